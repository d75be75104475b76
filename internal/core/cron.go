package core

import (
	"fmt"
	"strings"
	"time"
)

// ParseCron validates an expression and returns a calculator for it.
// Descriptors such as "@daily" are rejected explicitly.
func ParseCron(expr string) (*Calculator, error) {
	if strings.HasPrefix(strings.TrimSpace(expr), "@") {
		return nil, fmt.Errorf("%w: descriptors like %q are not supported", ErrMalformedExpression, strings.TrimSpace(expr))
	}
	schedule, err := ParseExpression(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}
	return NewCalculator(schedule), nil
}

// NextOccurrences returns the next n execution times after base. Each time
// is computed from the previous one, so the result is strictly increasing.
func NextOccurrences(calc *Calculator, base time.Time, n int) ([]time.Time, error) {
	times := make([]time.Time, 0, max(n, 0))
	next := base
	for i := 0; i < n; i++ {
		t, err := calc.Calculate(next)
		if err != nil {
			return times, err
		}
		times = append(times, t)
		next = t
	}
	return times, nil
}
