package syllabus

import "testing"

func TestValidDate(t *testing.T) {
	tests := []struct {
		date  string
		valid bool
	}{
		{"2025-10-03", true},
		{"2025-01-01", true},
		{"2024-02-29", true}, // leap year
		{"2025-02-29", false},
		{"2025-02-30", false},
		{"2025-13-01", false},
		{"2025-00-10", false},
		{"2025-12-00", false},
		{"2025-12-32", false},
		{"2025-9-5", false}, // pattern requires zero padding
		{"25-09-05", false},
		{"2025/09/05", false},
		{"September 19th", false},
		{"", false},
		{"2025-10-03T00:00:00Z", false},
	}

	for _, tt := range tests {
		if got := ValidDate(tt.date); got != tt.valid {
			t.Errorf("ValidDate(%q) = %v, want %v", tt.date, got, tt.valid)
		}
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2025-10-03", "2025-10-03", true},
		{"2025-9-5", "2025-09-05", true},
		{"2025-09-5", "2025-09-05", true},
		{"2025-2-30", "", false},
		{"2025-13-1", "", false},
		{"oct 3", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := NormalizeDate(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("NormalizeDate(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestEventType_Valid(t *testing.T) {
	for _, typ := range []EventType{TypeAssignment, TypeReading, TypeExam} {
		if !typ.Valid() {
			t.Errorf("%q should be valid", typ)
		}
	}
	for _, typ := range []EventType{"", "exam", "EXAM", "Quiz", "Homework", "assignment"} {
		if typ.Valid() {
			t.Errorf("%q should be invalid", typ)
		}
	}
}
