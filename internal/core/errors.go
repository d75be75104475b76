package core

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedExpression is returned for any expression that cannot be
	// turned into a Schedule: wrong token count, out-of-range values,
	// non-positive steps, inverted ranges or unparseable atoms.
	ErrMalformedExpression = errors.New("malformed cron expression")

	// ErrSearchExhausted is returned when no instant within the search
	// horizon satisfies the schedule.
	ErrSearchExhausted = errors.New("no matching time within search horizon")
)

// FieldError describes why a single field of an expression was rejected.
type FieldError struct {
	Field  Field
	Text   string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid %s field %q: %s", e.Field, e.Text, e.Reason)
}

// Unwrap lets callers match any FieldError with errors.Is(err, ErrMalformedExpression).
func (e *FieldError) Unwrap() error {
	return ErrMalformedExpression
}

func fieldErr(field Field, text, format string, args ...any) error {
	return &FieldError{Field: field, Text: text, Reason: fmt.Sprintf(format, args...)}
}
