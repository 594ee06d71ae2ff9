package syllabus

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Normalization failure sentinels. Callers classify with errors.Is.
var (
	// ErrMalformedJSON means the completion text was not parseable JSON.
	ErrMalformedJSON = errors.New("syllabus: malformed JSON")

	// ErrSchemaMismatch means the JSON parsed but the top-level shape was
	// not an object with an "events" array.
	ErrSchemaMismatch = errors.New("syllabus: schema mismatch")

	// ErrAllElementsInvalid means the events array was non-empty but every
	// element failed validation.
	ErrAllElementsInvalid = errors.New("syllabus: all elements invalid")
)

// Reject reports one candidate element that failed validation.
type Reject struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// candidate is the loose wire shape of one element before validation.
type candidate struct {
	Title string `json:"title"`
	Date  string `json:"date"`
	Type  string `json:"type"`
}

// Normalize parses the raw completion text and validates it into Events.
// Malformed elements are rejected individually and reported; the rest
// survive. An empty events array is a valid "no events found" outcome.
// A non-empty array in which nothing survives fails with
// ErrAllElementsInvalid.
func Normalize(raw string) ([]Event, []Reject, error) {
	raw = stripFences(raw)

	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &top); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			// Valid JSON, wrong top-level shape (array, string, ...).
			return nil, nil, fmt.Errorf("%w: top-level %s", ErrSchemaMismatch, typeErr.Value)
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}

	rawEvents, ok := top["events"]
	if !ok {
		return nil, nil, fmt.Errorf("%w: missing \"events\" key", ErrSchemaMismatch)
	}

	// json.Unmarshal accepts null for a slice, so require an actual array.
	if trimmed := strings.TrimSpace(string(rawEvents)); !strings.HasPrefix(trimmed, "[") {
		return nil, nil, fmt.Errorf("%w: \"events\" is not an array", ErrSchemaMismatch)
	}
	var elements []json.RawMessage
	if err := json.Unmarshal(rawEvents, &elements); err != nil {
		return nil, nil, fmt.Errorf("%w: \"events\" is not an array", ErrSchemaMismatch)
	}

	events := make([]Event, 0, len(elements))
	var rejects []Reject

	for i, el := range elements {
		var c candidate
		if err := json.Unmarshal(el, &c); err != nil {
			rejects = append(rejects, Reject{Index: i, Reason: "not an event object"})
			continue
		}

		title := strings.TrimSpace(c.Title)
		if title == "" {
			rejects = append(rejects, Reject{Index: i, Reason: "empty title"})
			continue
		}

		typ := EventType(c.Type)
		if !typ.Valid() {
			rejects = append(rejects, Reject{Index: i, Reason: fmt.Sprintf("unknown type %q", c.Type)})
			continue
		}

		date, ok := NormalizeDate(c.Date)
		if !ok {
			rejects = append(rejects, Reject{Index: i, Reason: fmt.Sprintf("invalid date %q", c.Date)})
			continue
		}

		events = append(events, Event{Title: title, Date: date, Type: typ})
	}

	if len(events) == 0 && len(elements) > 0 {
		return nil, rejects, fmt.Errorf("%w: %d of %d rejected", ErrAllElementsInvalid, len(rejects), len(elements))
	}

	// Chronological order gives deterministic calendar and list rendering.
	sort.SliceStable(events, func(a, b int) bool {
		return events[a].Date < events[b].Date
	})

	return events, rejects, nil
}

// stripFences removes a surrounding markdown code fence, which some
// completion backends emit even in structured-output mode.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
