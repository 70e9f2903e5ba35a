package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/feedesk-api/internal/academic"
	"github.com/noah-isme/feedesk-api/internal/models"
	"github.com/noah-isme/feedesk-api/internal/observability"
)

var (
	// ErrNotificationsDisabled indicates WhatsApp credentials are missing.
	ErrNotificationsDisabled = errors.New("whatsapp notifications are not configured")
	// ErrNoPhone indicates the student has no phone number on record.
	ErrNoPhone = errors.New("student has no phone number")
)

// MessageSender delivers WhatsApp messages.
type MessageSender interface {
	Enabled() bool
	SendTemplate(ctx context.Context, to, name, language string, params []string) error
	SendText(ctx context.Context, to, body string) error
	SendDocument(ctx context.Context, to, link, filename, caption string) error
}

// ReceiptUploader stores a rendered receipt and returns its public link.
type ReceiptUploader interface {
	Upload(ctx context.Context, name string, content io.Reader) (string, error)
}

// EventPublisher publishes fee events to the message bus.
type EventPublisher interface {
	Publish(subject string, data []byte) error
}

// NotifierConfig selects the message templates. Empty template names fall
// back to plain text.
type NotifierConfig struct {
	FeePaidTemplate  string
	ReminderTemplate string
	TemplateLanguage string
	SubjectPrefix    string
}

// FeeEvent is published after a fee-paid or reminder message goes out.
type FeeEvent struct {
	Kind         string    `json:"kind"`
	StudentID    uint      `json:"student_id"`
	Months       []string  `json:"months"`
	AcademicYear int       `json:"academic_year"`
	Amount       int       `json:"amount"`
	Mode         string    `json:"mode,omitempty"`
	SentAt       time.Time `json:"sent_at"`
}

// FeeNotifier sends fee-paid confirmations, receipts and reminders.
type FeeNotifier struct {
	sender    MessageSender
	receipts  ReceiptUploader
	events    EventPublisher
	cfg       NotifierConfig
	sanitizer *bluemonday.Policy
	tracer    trace.Tracer
	logger    zerolog.Logger
	now       func() time.Time
}

// NewFeeNotifier constructs the notifier. receipts and events are optional.
func NewFeeNotifier(sender MessageSender, receipts ReceiptUploader, events EventPublisher, cfg NotifierConfig, logger zerolog.Logger) *FeeNotifier {
	if cfg.TemplateLanguage == "" {
		cfg.TemplateLanguage = "en"
	}
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = "feedesk"
	}

	return &FeeNotifier{
		sender:    sender,
		receipts:  receipts,
		events:    events,
		cfg:       cfg,
		sanitizer: bluemonday.StrictPolicy(),
		tracer:    otel.Tracer("github.com/noah-isme/feedesk-api/internal/service/notifier"),
		logger:    logger.With().Str("component", "fee_notifier").Logger(),
		now:       time.Now,
	}
}

// Enabled reports whether messages can be delivered.
func (n *FeeNotifier) Enabled() bool {
	return n != nil && n.sender != nil && n.sender.Enabled()
}

// NotifyFeePaid confirms a payment to the student and attaches the receipt.
// Receipt problems are logged and never fail the confirmation.
func (n *FeeNotifier) NotifyFeePaid(ctx context.Context, student models.Student, payment models.Payment, mode string) error {
	if !n.Enabled() || strings.TrimSpace(student.Phone) == "" {
		observability.NotificationsSent().WithLabelValues("fee_paid", "skipped").Inc()
		return nil
	}

	ctx, span := n.tracer.Start(ctx, "notifications.fee_paid", trace.WithAttributes(
		attribute.Int("student.id", int(student.ID)),
		attribute.String("payment.month", payment.Month),
	))
	defer span.End()

	name := n.clean(student.Name)
	amount := strconv.Itoa(payment.Amount)

	var err error
	if n.cfg.FeePaidTemplate != "" {
		err = n.sender.SendTemplate(ctx, student.Phone, n.cfg.FeePaidTemplate, n.cfg.TemplateLanguage, []string{name, payment.Month, amount})
	} else {
		err = n.sender.SendText(ctx, student.Phone, fmt.Sprintf("Hi %s, your fee for %s is received. Amount: INR %s. Mode: %s.", name, payment.Month, amount, mode))
	}
	if err != nil {
		observability.NotificationsSent().WithLabelValues("fee_paid", "failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("send fee paid message: %w", err)
	}
	observability.NotificationsSent().WithLabelValues("fee_paid", "sent").Inc()

	if err := n.sendReceipt(ctx, student, payment, mode); err != nil {
		observability.NotificationsSent().WithLabelValues("receipt", "failed").Inc()
		n.logger.Warn().Err(err).Uint("student_id", student.ID).Str("month", payment.Month).Msg("receipt skipped")
	}

	n.publish(FeeEvent{
		Kind:         "payments.paid",
		StudentID:    student.ID,
		Months:       []string{payment.Month},
		AcademicYear: payment.AcademicYear,
		Amount:       payment.Amount,
		Mode:         mode,
	})
	return nil
}

// SendReminder lists the pending months and the total due for the session.
func (n *FeeNotifier) SendReminder(ctx context.Context, student models.Student, dueMonths []string, monthlyFee int, academicYear int) error {
	if !n.Enabled() {
		observability.NotificationsSent().WithLabelValues("reminder", "skipped").Inc()
		return ErrNotificationsDisabled
	}
	if strings.TrimSpace(student.Phone) == "" {
		observability.NotificationsSent().WithLabelValues("reminder", "skipped").Inc()
		return ErrNoPhone
	}
	if len(dueMonths) == 0 {
		return nil
	}

	ctx, span := n.tracer.Start(ctx, "notifications.reminder", trace.WithAttributes(
		attribute.Int("student.id", int(student.ID)),
		attribute.Int("reminder.due_months", len(dueMonths)),
	))
	defer span.End()

	name := n.clean(student.Name)
	months := strings.Join(dueMonths, ", ")
	totalDue := len(dueMonths) * monthlyFee
	session := academic.SessionLabel(academicYear)

	var err error
	if n.cfg.ReminderTemplate != "" {
		err = n.sender.SendTemplate(ctx, student.Phone, n.cfg.ReminderTemplate, n.cfg.TemplateLanguage, []string{name, months, strconv.Itoa(totalDue), session})
	} else {
		err = n.sender.SendText(ctx, student.Phone, fmt.Sprintf("Hi %s, fee reminder for %s. Pending months: %s. Total due: INR %d.", name, session, months, totalDue))
	}
	if err != nil {
		observability.NotificationsSent().WithLabelValues("reminder", "failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("send reminder: %w", err)
	}
	observability.NotificationsSent().WithLabelValues("reminder", "sent").Inc()

	n.publish(FeeEvent{
		Kind:         "reminders.sent",
		StudentID:    student.ID,
		Months:       dueMonths,
		AcademicYear: academicYear,
		Amount:       totalDue,
	})
	return nil
}

func (n *FeeNotifier) sendReceipt(ctx context.Context, student models.Student, payment models.Payment, mode string) error {
	if n.receipts == nil {
		return nil
	}

	document, err := RenderReceipt(student, payment, mode, n.now())
	if err != nil {
		return err
	}

	name := fmt.Sprintf("fee-receipt-%d-%s-%d.html", student.ID, payment.Month, payment.AcademicYear)
	link, err := n.receipts.Upload(ctx, name, bytes.NewReader(document))
	if err != nil {
		return err
	}

	caption := fmt.Sprintf("Receipt for %s (%s)", payment.Month, academic.SessionLabel(payment.AcademicYear))
	if err := n.sender.SendDocument(ctx, student.Phone, link, fmt.Sprintf("fee-receipt-%s.html", payment.Month), caption); err != nil {
		return err
	}

	observability.NotificationsSent().WithLabelValues("receipt", "sent").Inc()
	return nil
}

func (n *FeeNotifier) publish(event FeeEvent) {
	if n.events == nil {
		return
	}

	event.SentAt = n.now().UTC()
	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Warn().Err(err).Msg("failed to encode fee event")
		return
	}

	subject := n.cfg.SubjectPrefix + "." + event.Kind
	if err := n.events.Publish(subject, payload); err != nil {
		n.logger.Warn().Err(err).Str("subject", subject).Msg("failed to publish fee event")
	}
}

func (n *FeeNotifier) clean(value string) string {
	return strings.TrimSpace(html.UnescapeString(n.sanitizer.Sanitize(value)))
}
