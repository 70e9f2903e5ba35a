package assistant

import "sort"

// Intent identifies one of the assistant's command categories.
type Intent int

// Recognised intents, in tie-break order.
const (
	IntentNone Intent = iota
	IntentMarkPaid
	IntentReminder
	IntentListUnpaid
	IntentUpdateStudent
	IntentStudentDetails
	IntentSetFee
	IntentSummary
)

// minimumIntentScore is the lowest score that selects an intent.
const minimumIntentScore = 2

var intentNames = map[Intent]string{
	IntentNone:           "none",
	IntentMarkPaid:       "markPaid",
	IntentReminder:       "reminder",
	IntentListUnpaid:     "listUnpaid",
	IntentUpdateStudent:  "updateStudent",
	IntentStudentDetails: "studentDetails",
	IntentSetFee:         "setFee",
	IntentSummary:        "summary",
}

func (i Intent) String() string {
	if name, ok := intentNames[i]; ok {
		return name
	}
	return "unknown"
}

// ReadOnly reports whether the intent only reads data.
func (i Intent) ReadOnly() bool {
	switch i {
	case IntentListUnpaid, IntentStudentDetails, IntentSummary:
		return true
	default:
		return false
	}
}

var unpaidKeywords = []string{"unpaid", "pending", "due", "left"}

// IntentScore pairs an intent with its keyword score.
type IntentScore struct {
	Intent Intent
	Score  int
}

// Score computes the keyword score of every intent, in declaration order.
func Score(p Prompt) []IntentScore {
	_, hasMonth := ExtractMonth(p.Lower)

	markPaid := 0
	if p.Mentions("mark", "paid", "payment") {
		markPaid += 2
	}
	if hasMonth {
		markPaid++
	}

	reminder := 0
	if p.Mentions("reminder", "notify", "message", "whatsapp", "ping") {
		reminder += 2
	}
	if p.HasToken("send", "trigger") {
		reminder++
	}

	listUnpaid := 0
	if p.Mentions(unpaidKeywords...) {
		listUnpaid += 2
	}
	if p.Mentions("list", "show", "who") {
		listUnpaid++
	}
	if hasMonth {
		listUnpaid++
	}

	updateStudent := 0
	if p.Mentions("update", "change", "edit", "modify") {
		updateStudent += 2
	}
	if p.Mentions("student", "phone", "class", "email", "school", "name") {
		updateStudent++
	}

	studentDetails := 0
	if p.Mentions("detail", "details", "info", "profile", "record") {
		studentDetails += 2
	}
	if p.HasToken("student", "id", "name") {
		studentDetails++
	}

	setFee := 0
	if p.Mentions("fee", "monthly", "charge") {
		setFee += 2
	}
	if p.Mentions("set", "update", "change") {
		setFee++
	}

	summary := 0
	if p.Mentions("summary", "stats", "dashboard", "report", "overview", "revenue") {
		summary += 2
	}

	return []IntentScore{
		{Intent: IntentMarkPaid, Score: markPaid},
		{Intent: IntentReminder, Score: reminder},
		{Intent: IntentListUnpaid, Score: listUnpaid},
		{Intent: IntentUpdateStudent, Score: updateStudent},
		{Intent: IntentStudentDetails, Score: studentDetails},
		{Intent: IntentSetFee, Score: setFee},
		{Intent: IntentSummary, Score: summary},
	}
}

// Classify picks the highest scoring intent. Ties keep declaration order and
// a winning score below two means nothing was recognised. A mark-paid winner
// that also talks about unpaid or pending fees is read as a listing request.
func Classify(p Prompt) Intent {
	scores := Score(p)
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})

	top := scores[0]
	if top.Score < minimumIntentScore {
		return IntentNone
	}

	if top.Intent == IntentMarkPaid && p.Mentions(unpaidKeywords...) {
		return IntentListUnpaid
	}

	return top.Intent
}
