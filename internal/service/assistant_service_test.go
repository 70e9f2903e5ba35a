package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/feedesk-api/internal/assistant"
	"github.com/noah-isme/feedesk-api/internal/dto"
)

type stubPromptHandler struct {
	result assistant.Result
	err    error
	prompt string
}

func (s *stubPromptHandler) Handle(_ context.Context, prompt string) (assistant.Result, error) {
	s.prompt = prompt
	return s.result, s.err
}

func TestAssistantServiceChat(t *testing.T) {
	handler := &stubPromptHandler{result: assistant.Result{OK: true, Message: "Monthly fee set to INR 700 for all students.", Intent: assistant.IntentSetFee}}
	svc := NewAssistantService(handler, zerolog.Nop())

	response, err := svc.Chat(context.Background(), 1, dto.AssistantChatRequest{Prompt: "fee 700"})
	require.NoError(t, err)
	require.Equal(t, "fee 700", handler.prompt)
	require.True(t, response.OK)
	require.Equal(t, "setFee", response.Intent)
	require.Equal(t, "Monthly fee set to INR 700 for all students.", response.Message)
}

func TestAssistantServiceChatUnrecognisedOmitsIntent(t *testing.T) {
	handler := &stubPromptHandler{result: assistant.Result{OK: false, Message: "Command not recognized.", Intent: assistant.IntentNone}}
	svc := NewAssistantService(handler, zerolog.Nop())

	response, err := svc.Chat(context.Background(), 1, dto.AssistantChatRequest{Prompt: "hello"})
	require.NoError(t, err)
	require.False(t, response.OK)
	require.Empty(t, response.Intent)
}

func TestAssistantServiceChatErrors(t *testing.T) {
	blank := &stubPromptHandler{err: assistant.ErrPromptRequired}
	response, err := NewAssistantService(blank, zerolog.Nop()).Chat(context.Background(), 1, dto.AssistantChatRequest{Prompt: "  "})
	require.ErrorIs(t, err, ErrPromptRequired)
	require.False(t, response.OK)

	failing := &stubPromptHandler{
		result: assistant.Result{OK: false, Message: "Assistant failed to process request", Intent: assistant.IntentSummary},
		err:    fmt.Errorf("%w: summary: db down", assistant.ErrCommandFailed),
	}
	response, err = NewAssistantService(failing, zerolog.Nop()).Chat(context.Background(), 1, dto.AssistantChatRequest{Prompt: "summary"})
	require.ErrorIs(t, err, assistant.ErrCommandFailed)
	require.Equal(t, "summary", response.Intent)
	require.Equal(t, "Assistant failed to process request", response.Message)
}
