package assistant

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/feedesk-api/internal/models"
)

func ids(students []models.Student) []uint {
	result := make([]uint, 0, len(students))
	for _, student := range students {
		result = append(result, student.ID)
	}
	return result
}

func TestMatchStudentsByID(t *testing.T) {
	matched := MatchStudents(Normalize("mark paid for student id 7 march"), sampleRoster())
	require.Equal(t, []uint{7}, ids(matched))
}

func TestMatchStudentsUnknownIDDoesNotFallBack(t *testing.T) {
	matched := MatchStudents(Normalize("details id 99 rahul sharma"), sampleRoster())
	require.NotNil(t, matched)
	require.Empty(t, matched)
}

func TestMatchStudentsZeroIDFallsBackToNames(t *testing.T) {
	matched := MatchStudents(Normalize("details id 0 rahul sharma"), sampleRoster())
	require.Equal(t, []uint{2}, ids(matched))
}

func TestMatchStudentsByNameHint(t *testing.T) {
	matched := MatchStudents(Normalize("send reminder to student rahul"), sampleRoster())
	require.Equal(t, []uint{2}, ids(matched))
}

func TestMatchStudentsHintReturnsEveryMatch(t *testing.T) {
	roster := append(sampleRoster(), models.Student{ID: 9, Name: "Rahul Verma"})
	matched := MatchStudents(Normalize("remind student rahul"), roster)
	require.Equal(t, []uint{2, 9}, ids(matched))
}

func TestMatchStudentsFallsBackToFullNames(t *testing.T) {
	matched := MatchStudents(Normalize("mark paid for rahul sharma march"), sampleRoster())
	require.Equal(t, []uint{2}, ids(matched))

	matched = MatchStudents(Normalize("mark paid for student rahul sharma march"), sampleRoster())
	require.Equal(t, []uint{2}, ids(matched))
}

func TestMatchStudentsIgnoresBlankNames(t *testing.T) {
	roster := []models.Student{{ID: 1, Name: ""}, {ID: 2, Name: "Asha"}}
	require.Empty(t, MatchStudents(Normalize("mark paid march"), roster))
}

func TestAppliesToAll(t *testing.T) {
	require.True(t, AppliesToAll(Normalize("reminder all")))
	require.True(t, AppliesToAll(Normalize("mark paid for ALL students march")))
	require.False(t, AppliesToAll(Normalize("install reminders")))
}
