// Package assistant turns free-text admin prompts into fee and roster
// operations. Prompts are normalised, classified into one of seven intents
// and executed against the student directory, the payment ledger and the fee
// settings.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/feedesk-api/internal/academic"
	"github.com/noah-isme/feedesk-api/internal/models"
)

var (
	// ErrPromptRequired indicates a blank prompt reached the assistant.
	ErrPromptRequired = errors.New("prompt is required")
	// ErrCommandFailed indicates a collaborator failed while a command ran.
	ErrCommandFailed = errors.New("assistant command failed")
)

const (
	unrecognisedMessage = "Command not recognized. Use keywords like: 'paid id 3 march', 'reminder all', 'unpaid november', 'details id 3', 'update student id 3 phone 98...', 'fee 700', 'summary'."
	failureMessage      = "Assistant failed to process request"
)

// Config wires the assistant to its collaborators.
type Config struct {
	Students StudentDirectory
	Payments PaymentLedger
	Settings FeeSettings
	Notifier Notifier
	Rewriter Rewriter
	Logger   zerolog.Logger
	Now      func() time.Time
}

// Assistant executes admin prompts.
type Assistant struct {
	students StudentDirectory
	payments PaymentLedger
	settings FeeSettings
	notifier Notifier
	rewriter Rewriter
	logger   zerolog.Logger
	now      func() time.Time
	inflight sync.WaitGroup
}

type command func(ctx context.Context, p Prompt) (Result, error)

// New constructs an assistant. A nil notifier disables notifications and a
// nil rewriter disables prompt rewriting.
func New(cfg Config) *Assistant {
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = noopNotifier{}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Assistant{
		students: cfg.Students,
		payments: cfg.Payments,
		settings: cfg.Settings,
		notifier: notifier,
		rewriter: cfg.Rewriter,
		logger:   cfg.Logger.With().Str("component", "admin_assistant").Logger(),
		now:      now,
	}
}

// Handle classifies and runs one prompt. Validation problems come back as a
// Result with OK false; collaborator failures come back as a generic Result
// together with an error wrapping ErrCommandFailed.
func (a *Assistant) Handle(ctx context.Context, raw string) (Result, error) {
	prompt := Normalize(raw)
	if prompt.Empty() {
		return Result{}, ErrPromptRequired
	}

	intent := Classify(prompt)
	if intent == IntentNone {
		prompt, intent = a.rewrite(ctx, prompt)
	}
	if intent == IntentNone {
		return Result{OK: false, Message: unrecognisedMessage, Intent: IntentNone}, nil
	}

	result, err := a.run(ctx, intent, prompt)
	result.Intent = intent
	if err != nil {
		a.logger.Error().Err(err).Str("intent", intent.String()).Msg("assistant command failed")
		return Result{OK: false, Message: failureMessage, Intent: intent}, fmt.Errorf("%w: %s: %v", ErrCommandFailed, intent, err)
	}

	return result, nil
}

// Wait blocks until background fee-paid notifications have finished.
func (a *Assistant) Wait() {
	a.inflight.Wait()
}

func (a *Assistant) run(ctx context.Context, intent Intent, prompt Prompt) (result Result, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("panic: %v", recovered)
		}
	}()

	execute := a.command(intent)
	if execute == nil {
		return Result{}, fmt.Errorf("no executor for intent %s", intent)
	}
	return execute(ctx, prompt)
}

func (a *Assistant) command(intent Intent) command {
	switch intent {
	case IntentMarkPaid:
		return a.markPaid
	case IntentReminder:
		return a.remind
	case IntentListUnpaid:
		return a.listUnpaid
	case IntentUpdateStudent:
		return a.updateStudent
	case IntentStudentDetails:
		return a.studentDetails
	case IntentSetFee:
		return a.setFee
	case IntentSummary:
		return a.summary
	case IntentNone:
		return nil
	}
	return nil
}

// rewrite asks the rewriter for a canonical command. Only read-only intents
// are accepted from it; changes must be typed by the admin.
func (a *Assistant) rewrite(ctx context.Context, prompt Prompt) (Prompt, Intent) {
	if a.rewriter == nil {
		return prompt, IntentNone
	}

	rewritten, err := a.rewriter.Rewrite(ctx, prompt.Text)
	if err != nil {
		a.logger.Warn().Err(err).Msg("prompt rewrite failed")
		return prompt, IntentNone
	}

	candidate := Normalize(rewritten)
	if candidate.Empty() {
		return prompt, IntentNone
	}

	intent := Classify(candidate)
	if intent == IntentNone {
		return prompt, IntentNone
	}
	if !intent.ReadOnly() {
		a.logger.Warn().Str("rewritten", candidate.Text).Str("intent", intent.String()).Msg("rewritten prompt would change data, ignoring")
		return prompt, IntentNone
	}

	a.logger.Info().Str("rewritten", candidate.Text).Str("intent", intent.String()).Msg("prompt rewritten")
	return candidate, intent
}

func (a *Assistant) academicYear() int {
	return academic.Year(a.now())
}

// notifyFeePaid delivers the fee-paid message without holding up the caller.
func (a *Assistant) notifyFeePaid(ctx context.Context, student models.Student, payment models.Payment) {
	detached := context.WithoutCancel(ctx)
	a.inflight.Add(1)
	go func() {
		defer a.inflight.Done()
		if err := a.notifier.NotifyFeePaid(detached, student, payment, models.PaymentModeCash); err != nil {
			a.logger.Warn().Err(err).Uint("student_id", student.ID).Str("month", payment.Month).Msg("fee paid notification failed")
		}
	}()
}
