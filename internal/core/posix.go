package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

var posixParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// PosixOccurrences computes the next n run times of expr under classic cron
// rules, where day-of-month and weekday are ANDed whenever either of them is
// "*". It exists so callers can compare against this package's OR semantics.
func PosixOccurrences(expr string, base time.Time, n int) ([]time.Time, error) {
	tokens := strings.Fields(expr)
	if len(tokens) == 5 {
		tokens = append([]string{"*"}, tokens...)
	}
	sched, err := posixParser.Parse(strings.Join(tokens, " "))
	if err != nil {
		return nil, fmt.Errorf("posix parse: %w", err)
	}

	times := make([]time.Time, 0, max(n, 0))
	next := base
	for i := 0; i < n; i++ {
		next = sched.Next(next)
		if next.IsZero() {
			break
		}
		times = append(times, next)
	}
	return times, nil
}
