package assistant

import "fmt"

// Result is the reply to a single assistant prompt.
type Result struct {
	OK      bool
	Message string
	Intent  Intent
}

func succeed(message string) Result {
	return Result{OK: true, Message: message}
}

func reject(message string) Result {
	return Result{OK: false, Message: message}
}

// Outcome is what happened to one student inside a batch command.
type Outcome int

// Batch outcomes.
const (
	OutcomeCreated Outcome = iota
	OutcomeAlreadyPaid
	OutcomeSent
	OutcomeSkipped
	OutcomeFailed
)

// Tally counts per-student outcomes of a batch command.
type Tally struct {
	counts [OutcomeFailed + 1]int
}

// Add records one outcome.
func (t *Tally) Add(outcome Outcome) {
	t.counts[outcome]++
}

// Count returns how many students ended with outcome.
func (t Tally) Count(outcome Outcome) int {
	return t.counts[outcome]
}

// Total returns the number of recorded outcomes.
func (t Tally) Total() int {
	total := 0
	for _, count := range t.counts {
		total += count
	}
	return total
}

// MarkPaidSummary renders the outcome of a mark-paid batch.
func (t Tally) MarkPaidSummary(month string) string {
	message := fmt.Sprintf("Done. Marked paid for %d student(s), already paid: %d", t.Count(OutcomeCreated), t.Count(OutcomeAlreadyPaid))
	if failed := t.Count(OutcomeFailed); failed > 0 {
		message += fmt.Sprintf(", failed: %d", failed)
	}
	return message + fmt.Sprintf(", month: %s.", month)
}

// ReminderSummary renders the outcome of a reminder batch. Failed sends are
// reported as skipped.
func (t Tally) ReminderSummary(month string) string {
	monthInfo := ""
	if month != "" {
		monthInfo = " for " + month
	}
	skipped := t.Count(OutcomeSkipped) + t.Count(OutcomeFailed)
	return fmt.Sprintf("Reminder job done%s. Sent: %d, skipped: %d.", monthInfo, t.Count(OutcomeSent), skipped)
}
