// Package syllabus holds the calendar-event domain: the Event entity, the
// extraction prompt, response normalization, and display mapping.
package syllabus

import (
	"regexp"
	"time"
)

// EventType is the closed category set for calendar events.
// Matching is case-sensitive; unknown values are validation failures,
// never silently defaulted.
type EventType string

const (
	TypeAssignment EventType = "Assignment"
	TypeReading    EventType = "Reading"
	TypeExam       EventType = "Exam"
)

// Valid reports whether t is one of the three known categories.
func (t EventType) Valid() bool {
	switch t {
	case TypeAssignment, TypeReading, TypeExam:
		return true
	}
	return false
}

// Event is a single calendar-worthy item extracted from a syllabus.
// An Event is immutable once it leaves Normalize: either the record
// validated fully or it was rejected, there is no partially-valid state.
type Event struct {
	Title string    `json:"title"`
	Date  string    `json:"date"` // strict YYYY-MM-DD
	Type  EventType `json:"type"`
}

var (
	dateRe      = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	looseDateRe = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
)

// ValidDate reports whether s matches YYYY-MM-DD and denotes a real
// calendar date (2025-02-30 fails).
func ValidDate(s string) bool {
	if !dateRe.MatchString(s) {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// NormalizeDate repairs minor date-format deviations: single-digit month or
// day components are zero-padded (2025-9-5 → 2025-09-05). Returns the
// canonical date and true, or "" and false when the value cannot be made
// valid.
func NormalizeDate(s string) (string, bool) {
	m := looseDateRe.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	date := m[1] + "-" + pad2(m[2]) + "-" + pad2(m[3])
	if !ValidDate(date) {
		return "", false
	}
	return date, true
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
