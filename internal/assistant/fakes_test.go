package assistant

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/feedesk-api/internal/models"
)

var testNow = time.Date(2024, time.November, 10, 9, 0, 0, 0, time.UTC)

type memoryStore struct {
	mu            sync.Mutex
	students      []models.Student
	payments      []models.Payment
	fee           int
	feeSet        bool
	nextPaymentID uint
	createErrFor  map[uint]error
	listErr       error
}

func newMemoryStore(students ...models.Student) *memoryStore {
	return &memoryStore{students: students, fee: 600, feeSet: true, createErrFor: map[uint]error{}}
}

func (m *memoryStore) withPayments(student models.Student, academicYear int) models.Student {
	student.Payments = nil
	for _, payment := range m.payments {
		if payment.StudentID == student.ID && payment.Status == models.PaymentStatusPaid && (academicYear == 0 || payment.AcademicYear == academicYear) {
			student.Payments = append(student.Payments, payment)
		}
	}
	return student
}

func (m *memoryStore) FindStudentByID(_ context.Context, id uint) (*models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, student := range m.students {
		if student.ID == id {
			found := m.withPayments(student, 0)
			return &found, nil
		}
	}
	return nil, nil
}

func (m *memoryStore) ListStudents(context.Context) ([]models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	students := append([]models.Student(nil), m.students...)
	sort.SliceStable(students, func(i, j int) bool { return students[i].ID < students[j].ID })
	return students, nil
}

func (m *memoryStore) ListStudentsWithPaidMonths(ctx context.Context, academicYear int) ([]models.Student, error) {
	students, err := m.ListStudents(ctx)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range students {
		students[i] = m.withPayments(students[i], academicYear)
	}
	return students, nil
}

func (m *memoryStore) UpdateStudent(_ context.Context, id uint, updates map[string]interface{}) (models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.students {
		if m.students[i].ID != id {
			continue
		}
		for field, value := range updates {
			text, _ := value.(string)
			switch field {
			case "phone":
				m.students[i].Phone = text
			case "class":
				m.students[i].Class = text
			case "email":
				m.students[i].Email = text
			case "school":
				m.students[i].School = text
			case "name":
				m.students[i].Name = text
			}
		}
		return m.students[i], nil
	}
	return models.Student{}, errors.New("record not found")
}

func (m *memoryStore) BulkSetStudentFee(_ context.Context, fee int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.students {
		m.students[i].MonthlyFee = fee
	}
	return nil
}

func (m *memoryStore) CountStudents(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.students)), nil
}

func (m *memoryStore) FindPaidPayment(_ context.Context, studentID uint, month string, academicYear int) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, payment := range m.payments {
		if payment.StudentID == studentID && payment.Month == month && payment.AcademicYear == academicYear && payment.Status == models.PaymentStatusPaid {
			found := payment
			return &found, nil
		}
	}
	return nil, nil
}

func (m *memoryStore) CreatePaidPayment(_ context.Context, studentID uint, month string, academicYear int, amount int, mode string) (models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.createErrFor[studentID]; err != nil {
		return models.Payment{}, err
	}
	m.nextPaymentID++
	payment := models.Payment{
		ID:           m.nextPaymentID,
		StudentID:    studentID,
		Month:        month,
		AcademicYear: academicYear,
		Amount:       amount,
		Status:       models.PaymentStatusPaid,
		Metadata:     map[string]interface{}{"mode": mode},
	}
	m.payments = append(m.payments, payment)
	return payment, nil
}

func (m *memoryStore) CountPaidPayments(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, payment := range m.payments {
		if payment.Status == models.PaymentStatusPaid {
			count++
		}
	}
	return count, nil
}

func (m *memoryStore) SumPaidAmount(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum int64
	for _, payment := range m.payments {
		if payment.Status == models.PaymentStatusPaid {
			sum += int64(payment.Amount)
		}
	}
	return sum, nil
}

func (m *memoryStore) GetMonthlyFee(context.Context) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fee, m.feeSet, nil
}

func (m *memoryStore) SetMonthlyFee(_ context.Context, fee int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fee = fee
	m.feeSet = true
	return nil
}

func (m *memoryStore) paidPayments() []models.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Payment(nil), m.payments...)
}

type recordingNotifier struct {
	mu         sync.Mutex
	feePaid    []uint
	reminders  map[uint][]string
	failFor    map[uint]bool
	feePaidErr error
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{reminders: map[uint][]string{}, failFor: map[uint]bool{}}
}

func (n *recordingNotifier) NotifyFeePaid(_ context.Context, student models.Student, _ models.Payment, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.feePaid = append(n.feePaid, student.ID)
	return n.feePaidErr
}

func (n *recordingNotifier) SendReminder(_ context.Context, student models.Student, dueMonths []string, _ int, _ int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failFor[student.ID] {
		return errors.New("whatsapp unavailable")
	}
	n.reminders[student.ID] = dueMonths
	return nil
}

type stubRewriter struct {
	output string
	err    error
	calls  int
}

func (r *stubRewriter) Rewrite(context.Context, string) (string, error) {
	r.calls++
	return r.output, r.err
}

func newTestAssistant(store *memoryStore, notifier Notifier) *Assistant {
	return New(Config{
		Students: store,
		Payments: store,
		Settings: store,
		Notifier: notifier,
		Logger:   zerolog.Nop(),
		Now:      func() time.Time { return testNow },
	})
}

func sampleRoster() []models.Student {
	return []models.Student{
		{ID: 1, Name: "Asha Verma", Phone: "9000000001", Class: "7", School: "City Public"},
		{ID: 2, Name: "Rahul Sharma", Phone: "9000000002", Class: "8", School: "Green Valley", Email: "rahul@example.com"},
		{ID: 7, Name: "Chetan Rao", Phone: "9000000007", Class: "9", School: "City Public"},
	}
}
