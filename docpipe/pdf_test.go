package docpipe

import (
	"fmt"
	"strings"
	"testing"
)

func TestExtractTextFromStream(t *testing.T) {
	stream := []byte("BT\n/F1 12 Tf\n72 720 Td\n(Hello World) Tj\nET")
	got := extractTextFromStream(stream)
	if !strings.Contains(got, "Hello World") {
		t.Fatalf("got %q, want 'Hello World'", got)
	}
}

func TestExtractTextFromStream_TJArray(t *testing.T) {
	stream := []byte("BT\n[(Mid) -20 (term)] TJ\nET")
	got := extractTextFromStream(stream)
	if !strings.Contains(got, "Midterm") {
		t.Fatalf("got %q, want 'Midterm'", got)
	}
}

func TestDecodePDFString(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`plain`, "plain"},
		{`with \( paren \)`, "with ( paren )"},
		{`tab\there`, "tab\there"},
		{`octal\040space`, "octal space"},
		{`back\\slash`, `back\slash`},
	}
	for _, tt := range tests {
		if got := decodePDFString([]byte(tt.raw)); got != tt.want {
			t.Errorf("decodePDFString(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestCleanPDFText_KeepsLines(t *testing.T) {
	got := cleanPDFText("Week 1\nWeek   2\nWeek 3")
	if got != "Week 1\nWeek 2\nWeek 3" {
		t.Fatalf("got %q", got)
	}
}

func TestComputePrintableRatio(t *testing.T) {
	if r := computePrintableRatio("normal readable text"); r != 1.0 {
		t.Fatalf("clean text ratio = %v, want 1.0", r)
	}
	garbage := strings.Repeat("", 90) + "ok"
	if r := computePrintableRatio(garbage); r > 0.5 {
		t.Fatalf("garbage ratio = %v, want < 0.5", r)
	}
}

func TestComputeWordlikeRatio(t *testing.T) {
	if r := computeWordlikeRatio("the quick brown fox"); r != 1.0 {
		t.Fatalf("word ratio = %v, want 1.0", r)
	}
	if r := computeWordlikeRatio(""); r != 0 {
		t.Fatalf("empty ratio = %v, want 0", r)
	}
}

func TestQuality_IsGarbage(t *testing.T) {
	good := &ExtractionQuality{PrintableRatio: 0.99, WordlikeRatio: 0.9}
	if good.IsGarbage() {
		t.Fatal("good quality flagged as garbage")
	}
	bad := &ExtractionQuality{PrintableRatio: 0.4, WordlikeRatio: 0.9}
	if !bad.IsGarbage() {
		t.Fatal("low printable ratio not flagged")
	}
}

// --- PDF test helpers ---

// buildTextPDF creates a valid single-page PDF with proper xref offsets.
func buildTextPDF(text string) []byte {
	escaped := strings.ReplaceAll(text, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, "(", `\(`)
	escaped = strings.ReplaceAll(escaped, ")", `\)`)

	stream := "BT\n/F1 12 Tf\n72 720 Td\n(" + escaped + ") Tj\nET"
	streamLen := len(stream)

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")

	offsets := make([]int, 6)

	offsets[1] = b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	offsets[2] = b.Len()
	b.WriteString("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")

	offsets[3] = b.Len()
	b.WriteString("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>\nendobj\n")

	offsets[4] = b.Len()
	b.WriteString("4 0 obj\n<< /Length ")
	fmt.Fprintf(&b, "%d", streamLen)
	b.WriteString(" >>\nstream\n")
	b.WriteString(stream)
	b.WriteString("\nendstream\nendobj\n")

	offsets[5] = b.Len()
	b.WriteString("5 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")

	xrefOffset := b.Len()
	b.WriteString("xref\n0 6\n")
	b.WriteString("0000000000 65535 f \n")
	for i := 1; i <= 5; i++ {
		fmt.Fprintf(&b, "%010d 00000 n \n", offsets[i])
	}
	b.WriteString("trailer\n<< /Size 6 /Root 1 0 R >>\nstartxref\n")
	fmt.Fprintf(&b, "%d", xrefOffset)
	b.WriteString("\n%%EOF\n")

	return []byte(b.String())
}
