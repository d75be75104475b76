package core

import (
	"time"
)

// FieldMatcher checks and steps a single component of a time against a
// field expression, independently of a full Schedule.
type FieldMatcher interface {
	IsSatisfiedBy(t time.Time, expr string, invert bool) (bool, error)
	Increment(t time.Time, invert bool, expr string) (time.Time, error)
}

// anyValue is the "unspecified" marker; it satisfies every time.
const anyValue = "?"

// SecondsField matches the seconds component of a time.
type SecondsField struct{}

var _ FieldMatcher = SecondsField{}

func (SecondsField) IsSatisfiedBy(t time.Time, expr string, invert bool) (bool, error) {
	if expr == anyValue {
		return true, nil
	}
	values, err := ParseField(FieldSecond, expr)
	if err != nil {
		return false, err
	}
	for _, v := range values {
		if v == t.Second() {
			return true, nil
		}
	}
	return false, nil
}

// Increment moves t to the next (or, with invert, previous) second allowed by
// expr. An empty or "?" expression steps by exactly one second.
func (SecondsField) Increment(t time.Time, invert bool, expr string) (time.Time, error) {
	if expr == "" || expr == anyValue {
		if invert {
			return t.Add(-time.Second), nil
		}
		return t.Add(time.Second), nil
	}

	values, err := ParseField(FieldSecond, expr)
	if err != nil {
		return t, err
	}
	cur := t.Second()

	if !invert {
		for _, v := range values {
			if v > cur {
				return t.Add(time.Duration(v-cur) * time.Second), nil
			}
		}
		next := t.Add(time.Minute)
		return next.Add(time.Duration(values[0]-next.Second()) * time.Second), nil
	}

	for i := len(values) - 1; i >= 0; i-- {
		if values[i] < cur {
			return t.Add(-time.Duration(cur-values[i]) * time.Second), nil
		}
	}
	prev := t.Add(-time.Minute)
	return prev.Add(time.Duration(values[len(values)-1]-prev.Second()) * time.Second), nil
}
