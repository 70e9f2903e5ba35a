package assistant

import (
	"regexp"
	"strconv"
	"strings"
)

var studentIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bstudent\s*(?:id)?\s*(\d+)\b`),
	regexp.MustCompile(`(?i)\bid\s*(\d+)\b`),
	regexp.MustCompile(`(?i)\broll\s*(\d+)\b`),
}

var nameHintPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bname\s*[:=-]?\s*([A-Za-z][A-Za-z .'-]{1,59})$`),
	regexp.MustCompile(`(?i)\bstudent\s+([A-Za-z][A-Za-z .'-]{1,59})$`),
}

var feeAmountPattern = regexp.MustCompile(`(\d{2,6})`)

type monthAlias struct {
	alias   string
	month   string
	pattern *regexp.Regexp
}

// monthAliases is scanned in declaration order; the first alias found
// anywhere in the text wins.
var monthAliases = newMonthAliases([][2]string{
	{"march", "March"},
	{"mar", "March"},
	{"april", "April"},
	{"apr", "April"},
	{"may", "May"},
	{"june", "June"},
	{"jun", "June"},
	{"july", "July"},
	{"jul", "July"},
	{"august", "August"},
	{"aug", "August"},
	{"september", "September"},
	{"sept", "September"},
	{"sep", "September"},
	{"october", "October"},
	{"oct", "October"},
	{"november", "November"},
	{"nov", "November"},
	{"december", "December"},
	{"dec", "December"},
	{"january", "January"},
	{"jan", "January"},
	{"february", "February"},
	{"feb", "February"},
})

func newMonthAliases(pairs [][2]string) []monthAlias {
	aliases := make([]monthAlias, 0, len(pairs))
	for _, pair := range pairs {
		aliases = append(aliases, monthAlias{
			alias:   pair[0],
			month:   pair[1],
			pattern: regexp.MustCompile(`\b` + regexp.QuoteMeta(pair[0]) + `\b`),
		})
	}
	return aliases
}

// ExtractStudentID finds "student id N", "id N" or "roll N" in text. Id 0 is
// never a student and counts as absent.
func ExtractStudentID(text string) (uint, bool) {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, pattern := range studentIDPatterns {
		match := pattern.FindStringSubmatch(lower)
		if match == nil {
			continue
		}
		id, err := strconv.ParseUint(match[1], 10, 64)
		if err != nil || id == 0 {
			continue
		}
		return uint(id), true
	}
	return 0, false
}

// ExtractNameHint returns the free text following "name" or "student" when it
// runs to the end of the prompt.
func ExtractNameHint(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	for _, pattern := range nameHintPatterns {
		match := pattern.FindStringSubmatch(trimmed)
		if match == nil {
			continue
		}
		if hint := strings.TrimSpace(match[1]); hint != "" {
			return hint, true
		}
	}
	return "", false
}

// ExtractMonth maps a full or abbreviated month name to its canonical form.
func ExtractMonth(text string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, alias := range monthAliases {
		if alias.pattern.MatchString(lower) {
			return alias.month, true
		}
	}
	return "", false
}

// ExtractFeeAmount returns the first run of two to six digits. Any earlier
// number in the prompt, such as a student id, is taken first.
func ExtractFeeAmount(text string) (int, bool) {
	match := feeAmountPattern.FindString(strings.TrimSpace(text))
	if match == "" {
		return 0, false
	}
	amount, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return amount, true
}

var (
	updatePhonePattern  = regexp.MustCompile(`(?i)\bphone\s+(\+?\d{10,15})\b`)
	updateClassPattern  = regexp.MustCompile(`(?i)\bclass\s+([A-Za-z0-9-]+)\b`)
	updateEmailPattern  = regexp.MustCompile(`(?i)\bemail\s+([^\s]+@[^\s]+)\b`)
	updateSchoolPattern = regexp.MustCompile(`(?i)\bschool\s+([A-Za-z0-9 .'-]{3,})$`)
	updateNamePattern   = regexp.MustCompile(`(?i)\bname\s+([A-Za-z .'-]{3,})$`)
)

// StudentFields lists the profile fields the assistant can change, in the
// order they are reported.
var StudentFields = []string{"phone", "class", "email", "school", "name"}

// ExtractStudentUpdates collects every field assignment present in text, keyed
// by column name.
func ExtractStudentUpdates(text string) map[string]interface{} {
	trimmed := strings.TrimSpace(text)
	updates := make(map[string]interface{})

	if match := updatePhonePattern.FindStringSubmatch(trimmed); match != nil {
		updates["phone"] = match[1]
	}
	if match := updateClassPattern.FindStringSubmatch(trimmed); match != nil {
		updates["class"] = match[1]
	}
	if match := updateEmailPattern.FindStringSubmatch(trimmed); match != nil {
		updates["email"] = match[1]
	}
	if match := updateSchoolPattern.FindStringSubmatch(trimmed); match != nil {
		updates["school"] = strings.TrimSpace(match[1])
	}
	if match := updateNamePattern.FindStringSubmatch(trimmed); match != nil {
		updates["name"] = strings.TrimSpace(match[1])
	}

	return updates
}
