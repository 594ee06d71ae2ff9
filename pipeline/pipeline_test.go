package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"syllacal/syllabus"
)

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) ExtractBytes(_ context.Context, _ []byte) (string, error) {
	return f.text, f.err
}

type fakeInvoker struct {
	response string
	err      error
	prompts  []string
	calls    int
}

func (f *fakeInvoker) Complete(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func newRunner(ext *fakeExtractor, inv *fakeInvoker) *Runner {
	return New(ext, inv, Config{DefaultYear: 2025})
}

func TestRun_Success(t *testing.T) {
	ext := &fakeExtractor{text: "Midterm Exam — October 3rd"}
	inv := &fakeInvoker{response: `{"events": [{"title": "Midterm Exam", "date": "2025-10-03", "type": "Exam"}]}`}

	res, err := newRunner(ext, inv).Run(context.Background(), []byte("%PDF-fake"))
	if err != nil {
		t.Fatal(err)
	}
	want := syllabus.Event{Title: "Midterm Exam", Date: "2025-10-03", Type: syllabus.TypeExam}
	if len(res.Events) != 1 || res.Events[0] != want {
		t.Fatalf("events = %+v, want [%+v]", res.Events, want)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("warnings = %v", res.Warnings)
	}

	// The prompt must embed the extracted text and the default-year rule.
	if len(inv.prompts) != 1 {
		t.Fatalf("invoker calls = %d", len(inv.prompts))
	}
	if !strings.Contains(inv.prompts[0], "Midterm Exam — October 3rd") {
		t.Fatal("prompt missing source text")
	}
	if !strings.Contains(inv.prompts[0], "assume 2025") {
		t.Fatal("prompt missing default year rule")
	}
}

func TestRun_NoFile(t *testing.T) {
	ext := &fakeExtractor{text: "unused"}
	inv := &fakeInvoker{}

	_, err := newRunner(ext, inv).Run(context.Background(), nil)
	var perr *Error
	if !errors.As(err, &perr) || perr.Kind != KindNoFile {
		t.Fatalf("expected KindNoFile, got %v", err)
	}
	if inv.calls != 0 {
		t.Fatal("no stage may run for an empty payload")
	}
}

func TestRun_ExtractionFailure(t *testing.T) {
	ext := &fakeExtractor{err: errors.New("corrupt document")}
	inv := &fakeInvoker{}

	_, err := newRunner(ext, inv).Run(context.Background(), []byte("x"))
	var perr *Error
	if !errors.As(err, &perr) || perr.Kind != KindExtraction {
		t.Fatalf("expected KindExtraction, got %v", err)
	}
	if inv.calls != 0 {
		t.Fatal("invoker must not run after extraction failure")
	}
}

func TestRun_InvocationFailure(t *testing.T) {
	ext := &fakeExtractor{text: "some syllabus"}
	inv := &fakeInvoker{err: errors.New("rate limited")}

	_, err := newRunner(ext, inv).Run(context.Background(), []byte("x"))
	var perr *Error
	if !errors.As(err, &perr) || perr.Kind != KindInvocation {
		t.Fatalf("expected KindInvocation, got %v", err)
	}
}

func TestRun_ValidationFailure(t *testing.T) {
	ext := &fakeExtractor{text: "some syllabus"}
	inv := &fakeInvoker{response: "not json at all"}

	_, err := newRunner(ext, inv).Run(context.Background(), []byte("x"))
	var perr *Error
	if !errors.As(err, &perr) || perr.Kind != KindValidation {
		t.Fatalf("expected KindValidation, got %v", err)
	}
	if !errors.Is(err, syllabus.ErrMalformedJSON) {
		t.Fatalf("cause not preserved: %v", err)
	}
}

func TestRun_PartialRejects(t *testing.T) {
	ext := &fakeExtractor{text: "some syllabus"}
	inv := &fakeInvoker{response: `{"events": [
		{"title": "Good", "date": "2025-09-05", "type": "Reading"},
		{"title": "Bad", "date": "nope", "type": "Reading"}
	]}`}

	res, err := newRunner(ext, inv).Run(context.Background(), []byte("x"))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Events) != 1 || len(res.Rejected) != 1 {
		t.Fatalf("events=%d rejected=%d, want 1/1", len(res.Events), len(res.Rejected))
	}
}

func TestRun_TruncationWarning(t *testing.T) {
	ext := &fakeExtractor{text: strings.Repeat("a very long syllabus ", syllabus.MaxPromptChars)}
	inv := &fakeInvoker{response: `{"events": []}`}

	res, err := newRunner(ext, inv).Run(context.Background(), []byte("x"))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "truncated") {
		t.Fatalf("warnings = %v, want truncation warning", res.Warnings)
	}
}

func TestRun_Cancelled(t *testing.T) {
	ext := &fakeExtractor{err: context.Canceled}
	inv := &fakeInvoker{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newRunner(ext, inv).Run(ctx, []byte("x"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	var perr *Error
	if errors.As(err, &perr) {
		t.Fatal("cancellation must not be wrapped in the external taxonomy")
	}
}

func TestKind_HTTPStatus(t *testing.T) {
	tests := []struct {
		kind   Kind
		status int
	}{
		{KindNoFile, 400},
		{KindExtraction, 422},
		{KindInvocation, 502},
		{KindValidation, 502},
	}
	for _, tt := range tests {
		if got := tt.kind.HTTPStatus(); got != tt.status {
			t.Errorf("%s status = %d, want %d", tt.kind, got, tt.status)
		}
	}
}

func TestKind_MessageNeverLeaksDetail(t *testing.T) {
	// Invocation details (credentials, provider errors) must not reach the caller.
	if KindInvocation.Message() != "processing failed" {
		t.Fatalf("invocation message = %q", KindInvocation.Message())
	}
	if KindValidation.Message() != "processing failed" {
		t.Fatalf("validation message = %q", KindValidation.Message())
	}
}
