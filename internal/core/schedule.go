package core

import (
	"slices"
	"strings"
)

// Schedule is the parsed form of a cron expression: one sorted set of
// allowed values per field. A Schedule is never modified after it is built
// and may be shared between goroutines.
type Schedule struct {
	expr   string
	fields [fieldCount][]int
}

// Values returns a copy of the allowed values for a field.
func (s Schedule) Values(f Field) []int {
	return slices.Clone(s.fields[f])
}

// Contains reports whether v is an allowed value for the field.
func (s Schedule) Contains(f Field, v int) bool {
	_, ok := slices.BinarySearch(s.fields[f], v)
	return ok
}

// String returns the expression the schedule was parsed from.
func (s Schedule) String() string {
	return s.expr
}

// Equal reports whether both schedules expand to the same value sets.
func (s Schedule) Equal(other Schedule) bool {
	for _, f := range Fields {
		if !slices.Equal(s.fields[f], other.fields[f]) {
			return false
		}
	}
	return true
}

// EveryDayEligible reports whether combining day-of-month and weekday with OR
// makes every calendar day match even though one of the two fields was
// restricted. POSIX cron would AND them in this situation.
func (s Schedule) EveryDayEligible() bool {
	day, weekday := s.covers(FieldDay), s.covers(FieldWeekday)
	return day != weekday
}

func (s Schedule) covers(f Field) bool {
	min, max := f.Bounds()
	return len(s.fields[f]) == max-min+1
}

func (s Schedule) first(f Field) int {
	return s.fields[f][0]
}

func newSchedule(tokens []string) (Schedule, error) {
	s := Schedule{expr: strings.Join(tokens, " ")}
	for i, f := range Fields {
		values, err := ParseField(f, tokens[i])
		if err != nil {
			return Schedule{}, err
		}
		s.fields[f] = values
	}
	return s, nil
}
