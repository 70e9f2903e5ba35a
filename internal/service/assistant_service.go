package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/feedesk-api/internal/assistant"
	"github.com/noah-isme/feedesk-api/internal/dto"
	"github.com/noah-isme/feedesk-api/internal/observability"
)

// ErrPromptRequired indicates an empty assistant prompt.
var ErrPromptRequired = assistant.ErrPromptRequired

// AssistantService answers admin assistant prompts.
type AssistantService interface {
	Chat(ctx context.Context, adminID uint, req dto.AssistantChatRequest) (dto.AssistantChatResponse, error)
}

// PromptHandler runs one assistant prompt.
type PromptHandler interface {
	Handle(ctx context.Context, prompt string) (assistant.Result, error)
}

type assistantService struct {
	handler PromptHandler
	tracer  trace.Tracer
	logger  zerolog.Logger
}

// NewAssistantService wraps the assistant with tracing, metrics and logging.
func NewAssistantService(handler PromptHandler, logger zerolog.Logger) AssistantService {
	return &assistantService{
		handler: handler,
		tracer:  otel.Tracer("github.com/noah-isme/feedesk-api/internal/service/assistant"),
		logger:  logger.With().Str("component", "assistant_service").Logger(),
	}
}

// Chat runs the prompt. The response is always filled in; the error is
// ErrPromptRequired for blank prompts or wraps assistant.ErrCommandFailed.
func (s *assistantService) Chat(ctx context.Context, adminID uint, req dto.AssistantChatRequest) (dto.AssistantChatResponse, error) {
	ctx, span := s.tracer.Start(ctx, "assistant.chat", trace.WithAttributes(attribute.Int("admin.id", int(adminID))))
	defer span.End()

	result, err := s.handler.Handle(ctx, req.Prompt)
	if errors.Is(err, assistant.ErrPromptRequired) {
		observability.AssistantCommands().WithLabelValues("none", "invalid").Inc()
		return dto.AssistantChatResponse{OK: false, Message: "Prompt is required"}, ErrPromptRequired
	}

	intent := result.Intent.String()
	span.SetAttributes(attribute.String("assistant.intent", intent))

	response := dto.AssistantChatResponse{OK: result.OK, Message: result.Message}
	if result.Intent != assistant.IntentNone {
		response.Intent = intent
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		observability.AssistantCommands().WithLabelValues(intent, "error").Inc()
		s.logger.Error().Err(err).Uint("admin_id", adminID).Str("intent", intent).Msg("assistant command failed")
		return response, err
	}

	outcome := "ok"
	if !result.OK {
		outcome = "rejected"
	}
	observability.AssistantCommands().WithLabelValues(intent, outcome).Inc()
	s.logger.Info().Uint("admin_id", adminID).Str("intent", intent).Bool("ok", result.OK).Msg("assistant command handled")

	return response, nil
}
