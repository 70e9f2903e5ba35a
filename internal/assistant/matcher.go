package assistant

import (
	"regexp"
	"strings"

	"github.com/noah-isme/feedesk-api/internal/models"
)

var allStudentsPattern = regexp.MustCompile(`(?i)\ball\b`)

// AppliesToAll reports whether the prompt addresses every student, as in
// "send reminder to all students".
func AppliesToAll(p Prompt) bool {
	return allStudentsPattern.MatchString(p.Text)
}

// MatchStudents resolves the students a prompt refers to. An explicit id
// short-circuits everything else; otherwise a name hint is tried and, when it
// matches nobody, every student whose full name occurs in the prompt.
func MatchStudents(p Prompt, students []models.Student) []models.Student {
	if id, ok := ExtractStudentID(p.Text); ok {
		for _, student := range students {
			if student.ID == id {
				return []models.Student{student}
			}
		}
		return []models.Student{}
	}

	if hint, ok := ExtractNameHint(p.Text); ok {
		lowerHint := strings.ToLower(hint)
		matched := filterStudents(students, func(student models.Student) bool {
			return strings.Contains(strings.ToLower(student.Name), lowerHint)
		})
		if len(matched) > 0 {
			return matched
		}
	}

	return filterStudents(students, func(student models.Student) bool {
		name := strings.ToLower(strings.TrimSpace(student.Name))
		return name != "" && strings.Contains(p.Lower, name)
	})
}

func filterStudents(students []models.Student, keep func(models.Student) bool) []models.Student {
	matched := make([]models.Student, 0)
	for _, student := range students {
		if keep(student) {
			matched = append(matched, student)
		}
	}
	return matched
}
