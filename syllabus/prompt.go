package syllabus

import (
	"fmt"
	"strings"
)

// MaxPromptChars is the maximum number of source-text characters embedded in
// the extraction prompt. Longer inputs are truncated and the truncation is
// reported to the caller, since a silent cut can hide end-of-semester
// deadlines.
const MaxPromptChars = 60_000

const promptTemplate = `You are an expert assistant. Your task is to extract calendar events from the following syllabus text and return a valid JSON object.
The JSON object must contain a single key "events", which holds an array of event objects.
Each event object must have this structure: { "title": string, "date": "YYYY-MM-DD", "type": "Assignment" | "Reading" | "Exam" }.
If a year isn't specified, assume %d.
Carefully parse dates like "September 19th" into the strict "YYYY-MM-DD" format.
Here is the syllabus text:
---
%s
---
`

// BuildPrompt renders the extraction instructions with the source text
// embedded verbatim. The boolean reports whether the text was truncated at
// MaxPromptChars.
func BuildPrompt(text string, defaultYear int) (string, bool) {
	truncated := false
	if len(text) > MaxPromptChars {
		// Cut on a rune boundary.
		cut := MaxPromptChars
		for cut > 0 && !isRuneStart(text[cut]) {
			cut--
		}
		text = strings.TrimRight(text[:cut], " \t\n")
		truncated = true
	}
	return fmt.Sprintf(promptTemplate, defaultYear, text), truncated
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
