package syllabus

// DisplayRecord is the render-ready shape consumed by calendar and list
// views: an all-day block at the event's date with a category styling key.
type DisplayRecord struct {
	Title    string `json:"title"`
	Start    string `json:"start"` // RFC 3339, midnight UTC
	End      string `json:"end"`
	AllDay   bool   `json:"allDay"`
	Category string `json:"category"`
}

// categoryKeys is total over the closed EventType set; Normalize guarantees
// no other value reaches this mapping.
var categoryKeys = map[EventType]string{
	TypeAssignment: "assignment",
	TypeReading:    "reading",
	TypeExam:       "exam",
}

// ToDisplayRecords converts validated events into display primitives.
// Pure mapping: start = end = date at midnight, allDay always true.
func ToDisplayRecords(events []Event) []DisplayRecord {
	records := make([]DisplayRecord, len(events))
	for i, ev := range events {
		midnight := ev.Date + "T00:00:00Z"
		records[i] = DisplayRecord{
			Title:    ev.Title,
			Start:    midnight,
			End:      midnight,
			AllDay:   true,
			Category: categoryKeys[ev.Type],
		}
	}
	return records
}
