package assistant

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/noah-isme/feedesk-api/internal/academic"
	"github.com/noah-isme/feedesk-api/internal/models"
)

// maxUnpaidLines caps the roster printed by the unpaid listing.
const maxUnpaidLines = 80

func (a *Assistant) targets(p Prompt, students []models.Student) []models.Student {
	if AppliesToAll(p) {
		return students
	}
	return MatchStudents(p, students)
}

func (a *Assistant) markPaid(ctx context.Context, p Prompt) (Result, error) {
	month, ok := ExtractMonth(p.Lower)
	if !ok {
		return reject("Please mention month. Example: mark paid for Rahul for March"), nil
	}

	academicYear := a.academicYear()
	fee, configured, err := a.settings.GetMonthlyFee(ctx)
	if err != nil {
		return Result{}, err
	}
	if !configured || fee <= 0 {
		return reject("Monthly fee not configured."), nil
	}

	students, err := a.students.ListStudents(ctx)
	if err != nil {
		return Result{}, err
	}

	targets := a.targets(p, students)
	if len(targets) == 0 {
		return reject("No student matched. Use full name or 'student id 12'."), nil
	}

	var tally Tally
	for _, student := range targets {
		outcome, err := a.markPaidForStudent(ctx, student, month, academicYear, fee)
		if err != nil {
			a.logger.Error().Err(err).Uint("student_id", student.ID).Str("month", month).Msg("mark paid failed for student")
		}
		tally.Add(outcome)
	}

	return succeed(tally.MarkPaidSummary(month)), nil
}

func (a *Assistant) markPaidForStudent(ctx context.Context, student models.Student, month string, academicYear, fee int) (Outcome, error) {
	existing, err := a.payments.FindPaidPayment(ctx, student.ID, month, academicYear)
	if err != nil {
		return OutcomeFailed, err
	}
	if existing != nil {
		return OutcomeAlreadyPaid, nil
	}

	payment, err := a.payments.CreatePaidPayment(ctx, student.ID, month, academicYear, fee, models.PaymentModeCash)
	if err != nil {
		return OutcomeFailed, err
	}

	a.notifyFeePaid(ctx, student, payment)
	return OutcomeCreated, nil
}

func (a *Assistant) remind(ctx context.Context, p Prompt) (Result, error) {
	month, _ := ExtractMonth(p.Lower)
	academicYear := a.academicYear()

	fee, _, err := a.settings.GetMonthlyFee(ctx)
	if err != nil {
		return Result{}, err
	}

	students, err := a.students.ListStudentsWithPaidMonths(ctx, academicYear)
	if err != nil {
		return Result{}, err
	}

	targets := a.targets(p, students)
	if len(targets) == 0 {
		return reject("No student matched. Try 'send reminder to all students'."), nil
	}

	now := a.now()
	var tally Tally
	for _, student := range targets {
		var due []string
		if month != "" {
			if !student.HasPaid(month) {
				due = []string{month}
			}
		} else {
			due = academic.DueMonths(now, student.PaidMonths())
		}

		if len(due) == 0 {
			tally.Add(OutcomeSkipped)
			continue
		}

		if err := a.notifier.SendReminder(ctx, student, due, fee, academicYear); err != nil {
			a.logger.Error().Err(err).Uint("student_id", student.ID).Msg("reminder failed for student")
			tally.Add(OutcomeFailed)
			continue
		}
		tally.Add(OutcomeSent)
	}

	return succeed(tally.ReminderSummary(month)), nil
}

func (a *Assistant) listUnpaid(ctx context.Context, p Prompt) (Result, error) {
	month, ok := ExtractMonth(p.Lower)
	if !ok {
		return reject("Please mention month. Example: list unpaid for November."), nil
	}

	students, err := a.students.ListStudentsWithPaidMonths(ctx, a.academicYear())
	if err != nil {
		return Result{}, err
	}

	unpaid := filterStudents(students, func(student models.Student) bool {
		return !student.HasPaid(month)
	})
	if len(unpaid) == 0 {
		return succeed(fmt.Sprintf("No unpaid students found for %s.", month)), nil
	}
	sortByName(unpaid)

	var builder strings.Builder
	fmt.Fprintf(&builder, "Unpaid for %s: %d student(s)", month, len(unpaid))
	for i, student := range unpaid {
		if i == maxUnpaidLines {
			builder.WriteString("\n...")
			break
		}
		phone := student.Phone
		if phone == "" {
			phone = "No phone"
		}
		fmt.Fprintf(&builder, "\n%d. %s - %s", i+1, student.Name, phone)
	}

	return succeed(builder.String()), nil
}

func (a *Assistant) summary(ctx context.Context, _ Prompt) (Result, error) {
	studentCount, err := a.students.CountStudents(ctx)
	if err != nil {
		return Result{}, err
	}
	paidCount, err := a.payments.CountPaidPayments(ctx)
	if err != nil {
		return Result{}, err
	}
	revenue, err := a.payments.SumPaidAmount(ctx)
	if err != nil {
		return Result{}, err
	}

	return succeed(fmt.Sprintf("Summary: Students %d, paid transactions %d, total revenue INR %d.", studentCount, paidCount, revenue)), nil
}

func (a *Assistant) setFee(ctx context.Context, p Prompt) (Result, error) {
	fee, ok := ExtractFeeAmount(p.Text)
	if !ok || fee <= 0 {
		return reject("Please provide valid fee amount. Example: set monthly fee 700"), nil
	}

	if err := a.settings.SetMonthlyFee(ctx, fee); err != nil {
		return Result{}, err
	}
	if err := a.students.BulkSetStudentFee(ctx, fee); err != nil {
		return Result{}, err
	}

	return succeed(fmt.Sprintf("Monthly fee updated to INR %d.", fee)), nil
}

func (a *Assistant) studentDetails(ctx context.Context, p Prompt) (Result, error) {
	academicYear := a.academicYear()

	var student *models.Student
	if id, ok := ExtractStudentID(p.Text); ok {
		found, err := a.students.FindStudentByID(ctx, id)
		if err != nil {
			return Result{}, err
		}
		student = found
	} else {
		students, err := a.students.ListStudentsWithPaidMonths(ctx, academicYear)
		if err != nil {
			return Result{}, err
		}
		sortByName(students)
		if matched := MatchStudents(p, students); len(matched) > 0 {
			student = &matched[0]
		}
	}

	if student == nil {
		return reject("Student not found. Use full name or student id."), nil
	}

	email := student.Email
	if email == "" {
		email = "-"
	}
	paid := strings.Join(paidMonthsIn(*student, academicYear), ", ")
	if paid == "" {
		paid = "none"
	}

	return succeed(fmt.Sprintf(
		"Student %s (ID %d) | Class: %s | School: %s | Phone: %s | Email: %s | Paid months: %s.",
		student.Name, student.ID, student.Class, student.School, student.Phone, email, paid,
	)), nil
}

func (a *Assistant) updateStudent(ctx context.Context, p Prompt) (Result, error) {
	id, ok := ExtractStudentID(p.Text)
	if !ok {
		return reject("Please include student id. Example: update student id 5 phone 9876543210"), nil
	}

	updates := ExtractStudentUpdates(p.Text)
	if len(updates) == 0 {
		return reject("No valid update field found. Supported fields: " + strings.Join(StudentFields, ", ") + "."), nil
	}

	updated, err := a.students.UpdateStudent(ctx, id, updates)
	if err != nil {
		return Result{}, err
	}

	return succeed(fmt.Sprintf("Student updated: %s (ID %d).", updated.Name, updated.ID)), nil
}

// paidMonthsIn narrows the loaded paid payments to one academic year.
func paidMonthsIn(student models.Student, academicYear int) []string {
	scoped := student
	scoped.Payments = make([]models.Payment, 0, len(student.Payments))
	for _, payment := range student.Payments {
		if payment.AcademicYear == academicYear {
			scoped.Payments = append(scoped.Payments, payment)
		}
	}
	return scoped.PaidMonths()
}

func sortByName(students []models.Student) {
	sort.SliceStable(students, func(i, j int) bool {
		return students[i].Name < students[j].Name
	})
}
