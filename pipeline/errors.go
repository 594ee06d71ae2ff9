package pipeline

import (
	"fmt"
	"net/http"
)

// Kind is the external error taxonomy. Every internal failure is translated
// to exactly one Kind at the orchestrator boundary; no collaborator error
// shape crosses it unmapped.
type Kind string

const (
	KindNoFile     Kind = "no_file"
	KindExtraction Kind = "extraction"
	KindInvocation Kind = "invocation"
	KindValidation Kind = "validation"
)

// HTTPStatus maps a Kind to its response status category: client error for
// bad input, server error for collaborator and content failures.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindNoFile:
		return http.StatusBadRequest
	case KindExtraction:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

// Message is the caller-facing error text. Invocation and validation
// details stay internal; only the generic message is exposed.
func (k Kind) Message() string {
	switch k {
	case KindNoFile:
		return "no file uploaded"
	case KindExtraction:
		return "could not read document"
	default:
		return "processing failed"
	}
}

// Error is the single error contract returned by Runner.Run.
type Error struct {
	Kind  Kind
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("pipeline %s: %v", e.Kind, e.cause)
	}
	return fmt.Sprintf("pipeline %s", e.Kind)
}

func (e *Error) Unwrap() error { return e.cause }

// NewError wraps cause under the given Kind.
func NewError(kind Kind, cause error) *Error {
	return &Error{Kind: kind, cause: cause}
}
