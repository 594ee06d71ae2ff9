package syllabus

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestNormalize_Valid(t *testing.T) {
	raw := `{"events": [
		{"title": "Midterm Exam", "date": "2025-10-03", "type": "Exam"},
		{"title": "Chapter 1", "date": "2025-09-05", "type": "Reading"},
		{"title": "Essay draft", "date": "2025-09-19", "type": "Assignment"}
	]}`

	events, rejects, err := Normalize(raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(rejects) != 0 {
		t.Fatalf("rejects = %v, want none", rejects)
	}

	// Sorted by date ascending.
	want := []Event{
		{Title: "Chapter 1", Date: "2025-09-05", Type: TypeReading},
		{Title: "Essay draft", Date: "2025-09-19", Type: TypeAssignment},
		{Title: "Midterm Exam", Date: "2025-10-03", Type: TypeExam},
	}
	if !reflect.DeepEqual(events, want) {
		t.Fatalf("events = %+v, want %+v", events, want)
	}
}

func TestNormalize_MalformedJSON(t *testing.T) {
	_, _, err := Normalize("the AI apologises and refuses")
	if !errors.Is(err, ErrMalformedJSON) {
		t.Fatalf("expected ErrMalformedJSON, got %v", err)
	}
}

func TestNormalize_SchemaMismatch(t *testing.T) {
	tests := []string{
		`[{"title": "x", "date": "2025-01-01", "type": "Exam"}]`, // top-level array
		`"just a string"`,
		`{"items": []}`,        // wrong key
		`{"events": "nope"}`,   // events not an array
		`{"events": {"a": 1}}`, // events is an object
		`{"events": null}`,     // null unmarshals into a nil slice
		`{"events": 7}`,
	}
	for _, raw := range tests {
		if _, _, err := Normalize(raw); !errors.Is(err, ErrSchemaMismatch) {
			t.Errorf("Normalize(%q): expected ErrSchemaMismatch, got %v", raw, err)
		}
	}
}

func TestNormalize_PartialFailure(t *testing.T) {
	raw := `{"events": [
		{"title": "Good one", "date": "2025-09-05", "type": "Reading"},
		{"title": "", "date": "2025-09-06", "type": "Exam"},
		{"title": "Bad type", "date": "2025-09-07", "type": "quiz"},
		{"title": "Bad date", "date": "2025-02-30", "type": "Exam"},
		{"title": "Also good", "date": "2025-12-01", "type": "Exam"},
		"not an object"
	]}`

	events, rejects, err := Normalize(raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2: %+v", len(events), events)
	}
	if len(rejects) != 4 {
		t.Fatalf("rejects = %d, want 4: %+v", len(rejects), rejects)
	}
	wantIdx := []int{1, 2, 3, 5}
	for i, r := range rejects {
		if r.Index != wantIdx[i] {
			t.Errorf("rejects[%d].Index = %d, want %d (%s)", i, r.Index, wantIdx[i], r.Reason)
		}
	}
}

func TestNormalize_AllElementsInvalid(t *testing.T) {
	raw := `{"events": [
		{"title": "x", "date": "not a date", "type": "Exam"},
		{"title": "y", "date": "2025-01-01", "type": "Party"}
	]}`

	_, rejects, err := Normalize(raw)
	if !errors.Is(err, ErrAllElementsInvalid) {
		t.Fatalf("expected ErrAllElementsInvalid, got %v", err)
	}
	if len(rejects) != 2 {
		t.Fatalf("rejects = %d, want 2", len(rejects))
	}
}

func TestNormalize_EmptyIsSuccess(t *testing.T) {
	events, rejects, err := Normalize(`{"events": []}`)
	if err != nil {
		t.Fatalf("empty events array should succeed, got %v", err)
	}
	if len(events) != 0 || len(rejects) != 0 {
		t.Fatalf("got events=%v rejects=%v, want both empty", events, rejects)
	}
}

func TestNormalize_TypeClosure(t *testing.T) {
	for _, typ := range []string{"exam", "EXAM", "Quiz", "Homework", "Lecture", ""} {
		raw := `{"events": [{"title": "x", "date": "2025-01-01", "type": "` + typ + `"}]}`
		_, rejects, err := Normalize(raw)
		if !errors.Is(err, ErrAllElementsInvalid) {
			t.Errorf("type %q: expected ErrAllElementsInvalid, got %v", typ, err)
			continue
		}
		if len(rejects) != 1 {
			t.Errorf("type %q: rejects = %d, want 1", typ, len(rejects))
		}
	}
}

func TestNormalize_DateRepair(t *testing.T) {
	raw := `{"events": [{"title": "Quiz review", "date": "2025-9-5", "type": "Reading"}]}`
	events, _, err := Normalize(raw)
	if err != nil {
		t.Fatal(err)
	}
	if events[0].Date != "2025-09-05" {
		t.Fatalf("date = %q, want 2025-09-05", events[0].Date)
	}
}

func TestNormalize_DuplicatesLegal(t *testing.T) {
	raw := `{"events": [
		{"title": "Reading quiz", "date": "2025-09-05", "type": "Reading"},
		{"title": "Reading quiz", "date": "2025-09-05", "type": "Reading"}
	]}`
	events, _, err := Normalize(raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("duplicates must survive, got %d events", len(events))
	}
}

func TestNormalize_CodeFence(t *testing.T) {
	raw := "```json\n{\"events\": [{\"title\": \"Final Exam\", \"date\": \"2025-12-15\", \"type\": \"Exam\"}]}\n```"
	events, _, err := Normalize(raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Title != "Final Exam" {
		t.Fatalf("events = %+v", events)
	}
}

func TestNormalize_RoundTrip(t *testing.T) {
	original := []Event{
		{Title: "Essay", Date: "2025-09-19", Type: TypeAssignment},
		{Title: "Final", Date: "2025-12-15", Type: TypeExam},
	}
	wire, err := json.Marshal(map[string][]Event{"events": original})
	if err != nil {
		t.Fatal(err)
	}

	events, rejects, err := Normalize(string(wire))
	if err != nil {
		t.Fatal(err)
	}
	if len(rejects) != 0 {
		t.Fatalf("rejects = %v", rejects)
	}
	if !reflect.DeepEqual(events, original) {
		t.Fatalf("round-trip: got %+v, want %+v", events, original)
	}
}
