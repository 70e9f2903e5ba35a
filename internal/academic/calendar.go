// Package academic models the institute's March-to-February fee calendar.
package academic

import (
	"fmt"
	"strings"
	"time"
)

// Months lists the academic cycle in billing order, March first.
var Months = [12]string{
	"March",
	"April",
	"May",
	"June",
	"July",
	"August",
	"September",
	"October",
	"November",
	"December",
	"January",
	"February",
}

// Year returns the academic year containing t: the calendar year of March
// when t falls in March or later, otherwise the previous calendar year.
func Year(t time.Time) int {
	if t.Month() >= time.March {
		return t.Year()
	}
	return t.Year() - 1
}

// MonthIndex returns the position of t's month inside the academic cycle
// (0 for March, 11 for February).
func MonthIndex(t time.Time) int {
	if t.Month() >= time.March {
		return int(t.Month()) - int(time.March)
	}
	return int(t.Month()) + 9
}

// IsMonth reports whether name is one of the canonical cycle months.
func IsMonth(name string) bool {
	for _, month := range Months {
		if month == name {
			return true
		}
	}
	return false
}

// ParseMonth matches name case-insensitively against the cycle months and
// returns the canonical spelling.
func ParseMonth(name string) (string, bool) {
	trimmed := strings.TrimSpace(name)
	for _, month := range Months {
		if strings.EqualFold(month, trimmed) {
			return month, true
		}
	}
	return "", false
}

// DueMonths returns every month of the cycle up to and including the month
// of t that is not present in paid.
func DueMonths(t time.Time, paid []string) []string {
	paidSet := make(map[string]struct{}, len(paid))
	for _, month := range paid {
		paidSet[month] = struct{}{}
	}

	current := MonthIndex(t)
	due := make([]string, 0, current+1)
	for i := 0; i <= current; i++ {
		if _, ok := paidSet[Months[i]]; !ok {
			due = append(due, Months[i])
		}
	}
	return due
}

// SessionLabel formats an academic year as "2024-2025".
func SessionLabel(year int) string {
	return fmt.Sprintf("%d-%d", year, year+1)
}

// IsFebruary reports whether t falls in the closing month of the cycle.
func IsFebruary(t time.Time) bool {
	return t.Month() == time.February
}

// FullYearPaid reports whether paid covers all twelve months of the cycle.
func FullYearPaid(paid []string) bool {
	seen := make(map[string]struct{}, len(Months))
	for _, month := range paid {
		if IsMonth(month) {
			seen[month] = struct{}{}
		}
	}
	return len(seen) == len(Months)
}
