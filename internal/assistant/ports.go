package assistant

import (
	"context"

	"github.com/noah-isme/feedesk-api/internal/models"
)

// StudentDirectory is the student roster the assistant reads and updates.
type StudentDirectory interface {
	// FindStudentByID returns nil when no student has the id. Paid payments
	// are preloaded.
	FindStudentByID(ctx context.Context, id uint) (*models.Student, error)
	// ListStudents returns every student ordered by id.
	ListStudents(ctx context.Context) ([]models.Student, error)
	// ListStudentsWithPaidMonths returns every student ordered by id with the
	// paid payments of academicYear preloaded.
	ListStudentsWithPaidMonths(ctx context.Context, academicYear int) ([]models.Student, error)
	UpdateStudent(ctx context.Context, id uint, updates map[string]interface{}) (models.Student, error)
	BulkSetStudentFee(ctx context.Context, fee int) error
	CountStudents(ctx context.Context) (int64, error)
}

// PaymentLedger records and aggregates fee payments.
type PaymentLedger interface {
	// FindPaidPayment returns nil when the month is not paid yet.
	FindPaidPayment(ctx context.Context, studentID uint, month string, academicYear int) (*models.Payment, error)
	CreatePaidPayment(ctx context.Context, studentID uint, month string, academicYear int, amount int, mode string) (models.Payment, error)
	CountPaidPayments(ctx context.Context) (int64, error)
	SumPaidAmount(ctx context.Context) (int64, error)
}

// FeeSettings holds the institute-wide monthly fee.
type FeeSettings interface {
	// GetMonthlyFee reports false when the fee was never configured.
	GetMonthlyFee(ctx context.Context) (int, bool, error)
	SetMonthlyFee(ctx context.Context, fee int) error
}

// Notifier delivers fee messages to students.
type Notifier interface {
	NotifyFeePaid(ctx context.Context, student models.Student, payment models.Payment, mode string) error
	SendReminder(ctx context.Context, student models.Student, dueMonths []string, monthlyFee int, academicYear int) error
}

// Rewriter turns an unrecognised prompt into one of the canonical commands.
type Rewriter interface {
	Rewrite(ctx context.Context, prompt string) (string, error)
}

type noopNotifier struct{}

func (noopNotifier) NotifyFeePaid(context.Context, models.Student, models.Payment, string) error {
	return nil
}

func (noopNotifier) SendReminder(context.Context, models.Student, []string, int, int) error {
	return nil
}
