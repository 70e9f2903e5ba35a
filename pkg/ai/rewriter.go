// Package ai holds the optional language-model helpers used by the admin
// assistant.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	rewriteDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "feedesk",
		Subsystem: "ai",
		Name:      "rewrite_duration_seconds",
		Help:      "Duration of prompt rewrite requests",
	}, []string{"model"})

	rewriteFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "feedesk",
		Subsystem: "ai",
		Name:      "rewrite_failures_total",
		Help:      "Number of failed prompt rewrite requests",
	}, []string{"model"})
)

// OpenAIConfig defines configuration options for the prompt rewriter.
type OpenAIConfig struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	Logger    zerolog.Logger
}

// PromptRewriter maps free-form admin requests onto one of the canonical
// assistant commands. The rewritten text is still classified by the
// deterministic pipeline.
type PromptRewriter struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewPromptRewriter builds a rewriter using the provided configuration.
func NewPromptRewriter(cfg OpenAIConfig) (*PromptRewriter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 64
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return &PromptRewriter{
		client: openai.NewClientWithConfig(config),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/feedesk-api/pkg/ai"),
		logger: cfg.Logger.With().Str("component", "prompt_rewriter").Logger(),
	}, nil
}

// Rewrite returns the canonical command for prompt, or an empty string when
// the model finds none.
func (r *PromptRewriter) Rewrite(parent context.Context, prompt string) (string, error) {
	ctx, span := r.tracer.Start(parent, "openai.rewrite", trace.WithAttributes(
		attribute.String("model", r.cfg.Model),
	))
	defer span.End()

	start := time.Now()
	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       r.cfg.Model,
		MaxTokens:   r.cfg.MaxTokens,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: rewriterSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	rewriteDuration.WithLabelValues(r.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		return "", r.fail(span, fmt.Errorf("openai rewrite: %w", err))
	}

	if len(resp.Choices) == 0 {
		return "", r.fail(span, fmt.Errorf("no choices returned from openai"))
	}

	command, err := parseRewrite(resp.Choices[0].Message.Content)
	if err != nil {
		return "", r.fail(span, err)
	}

	r.logger.Debug().Str("command", command).Msg("prompt rewritten")
	return command, nil
}

func (r *PromptRewriter) fail(span trace.Span, err error) error {
	rewriteFailures.WithLabelValues(r.cfg.Model).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

const rewriterSystemPrompt = "You translate a school administrator's question into exactly one read-only command for a fee desk. " +
	"Allowed forms: 'list unpaid <month>', 'details student id <n>', 'details <full name>', 'summary'. " +
	"Never produce commands that mark payments, send reminders, update students or change fees. " +
	"Respond with a JSON object {\"command\": \"...\"}; use \"none\" when nothing fits."

func parseRewrite(content string) (string, error) {
	var payload struct {
		Command string `json:"command"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &payload); err != nil {
		return "", fmt.Errorf("parse rewrite json: %w", err)
	}

	command := strings.TrimSpace(payload.Command)
	if strings.EqualFold(command, "none") {
		return "", nil
	}
	return command, nil
}
