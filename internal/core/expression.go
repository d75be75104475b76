package core

import (
	"fmt"
	"strings"
)

// ParseExpression parses a six-field expression
// (second minute hour day month weekday) into a Schedule. A classic
// five-field expression is accepted too and runs on every second of each
// matching minute.
func ParseExpression(expr string) (Schedule, error) {
	tokens := strings.Fields(expr)
	if len(tokens) == 5 {
		tokens = append([]string{"*"}, tokens...)
	}
	if len(tokens) != fieldCount {
		return Schedule{}, fmt.Errorf("%w: expected 5 or 6 fields, got %d", ErrMalformedExpression, len(tokens))
	}
	return newSchedule(tokens)
}
