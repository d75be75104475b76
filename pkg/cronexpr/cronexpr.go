// Package cronexpr parses six-field cron expressions
// (second minute hour day-of-month month day-of-week) and computes the next
// time they fire.
//
// A five-field expression is also accepted; its seconds field is "*".
// Day-of-month and day-of-week are always combined with OR: a day matches
// when either field allows it.
package cronexpr

import (
	"time"

	"cronnext/internal/core"
)

// Field identifies one of the six expression fields.
type Field = core.Field

const (
	Second  = core.FieldSecond
	Minute  = core.FieldMinute
	Hour    = core.FieldHour
	Day     = core.FieldDay
	Month   = core.FieldMonth
	Weekday = core.FieldWeekday
)

var (
	ErrMalformedExpression = core.ErrMalformedExpression
	ErrSearchExhausted     = core.ErrSearchExhausted
)

// FieldError reports the field and text that made an expression invalid.
type FieldError = core.FieldError

// Expression is a parsed cron expression. It is safe for concurrent use.
type Expression struct {
	calc *core.Calculator
}

// New parses expr.
func New(expr string) (*Expression, error) {
	s, err := core.ParseExpression(expr)
	if err != nil {
		return nil, err
	}
	return &Expression{calc: core.NewCalculator(s)}, nil
}

// Create is an alias for New.
func Create(expr string) (*Expression, error) {
	return New(expr)
}

// MustParse is like New but panics if the expression cannot be parsed.
func MustParse(expr string) *Expression {
	e, err := New(expr)
	if err != nil {
		panic(err)
	}
	return e
}

// IsValid reports whether expr can be parsed.
func IsValid(expr string) bool {
	_, err := New(expr)
	return err == nil
}

// NextRun returns the first matching time strictly after from. A zero from
// means the current time.
func (e *Expression) NextRun(from time.Time) (time.Time, error) {
	return e.calc.Calculate(from)
}

// NextRuns returns the next n matching times after from.
func (e *Expression) NextRuns(from time.Time, n int) ([]time.Time, error) {
	return core.NextOccurrences(e.calc, from, n)
}

// Values returns the expanded set of values allowed for a field.
func (e *Expression) Values(f Field) []int {
	return e.calc.Schedule().Values(f)
}

// String returns the normalized six-field form of the expression.
func (e *Expression) String() string {
	return e.calc.Schedule().String()
}
