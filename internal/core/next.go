package core

import (
	"fmt"
	"time"
)

// searchHorizonYears bounds how far past the start instant Calculate looks.
const searchHorizonYears = 5

// Calculator finds the next instant matching a Schedule.
type Calculator struct {
	schedule Schedule
	now      func() time.Time
}

// NewCalculator returns a Calculator for the schedule. The zero reference
// instant passed to Calculate means "now".
func NewCalculator(s Schedule) *Calculator {
	return &Calculator{schedule: s, now: time.Now}
}

// Schedule returns the schedule the calculator searches.
func (c *Calculator) Schedule() Schedule {
	return c.schedule
}

// Calculate returns the first instant strictly after from, in from's
// location, that satisfies every field of the schedule.
func (c *Calculator) Calculate(from time.Time) (time.Time, error) {
	if from.IsZero() {
		from = c.now()
	}
	loc := from.Location()

	cur := civilOf(from.Truncate(time.Second).Add(time.Second))
	limit := cur.addYears(searchHorizonYears)

	for !limit.before(cur) {
		if !c.schedule.Contains(FieldMonth, cur.month) {
			c.advanceMonth(&cur)
			continue
		}
		if !c.matchDay(cur) {
			cur.addDays(1)
			cur.setTime(0, 0, 0)
			continue
		}
		if !c.matchTime(cur) {
			c.advanceTime(&cur)
			continue
		}

		t, ok := resolve(cur, loc, from)
		if !ok {
			c.advanceTime(&cur)
			continue
		}
		return t, nil
	}

	return time.Time{}, fmt.Errorf("%w: %q after %s", ErrSearchExhausted, c.schedule.expr, from.Format(time.RFC3339))
}

// resolve returns the earliest instant after from whose wall clock in loc
// reads cur. A wall time skipped by a DST jump has no such instant; a wall
// time repeated by a fall back has two, one offset-difference apart.
func resolve(cur civil, loc *time.Location, from time.Time) (time.Time, bool) {
	t := cur.in(loc)
	candidates := []time.Time{t}
	_, before := t.Add(-12 * time.Hour).Zone()
	_, after := t.Add(12 * time.Hour).Zone()
	if shift := time.Duration(before-after) * time.Second; shift != 0 {
		candidates = append(candidates, t.Add(-shift), t.Add(shift))
	}

	var best time.Time
	for _, cand := range candidates {
		if civilOf(cand) != cur || !cand.After(from) {
			continue
		}
		if best.IsZero() || cand.Before(best) {
			best = cand
		}
	}
	return best, !best.IsZero()
}

func (c *Calculator) matchDay(cur civil) bool {
	return c.schedule.Contains(FieldDay, cur.day) || c.schedule.Contains(FieldWeekday, cur.weekday())
}

func (c *Calculator) matchTime(cur civil) bool {
	return c.schedule.Contains(FieldHour, cur.hour) &&
		c.schedule.Contains(FieldMinute, cur.minute) &&
		c.schedule.Contains(FieldSecond, cur.second)
}

func (c *Calculator) advanceMonth(cur *civil) {
	next := c.findNextValue(FieldMonth, cur.month+1)
	switch next.outcome {
	case found:
		cur.setDate(cur.year, next.value, 1)
	case wrapped:
		cur.setDate(cur.year+1, next.value, 1)
	case exceedsBound:
		cur.setDate(cur.year+1, c.schedule.first(FieldMonth), 1)
	}
	cur.setTime(0, 0, 0)
}

// advanceTime moves to the next allowed second, minute or hour of the current
// day, rolling into the following day when the hour set is exhausted.
func (c *Calculator) advanceTime(cur *civil) {
	s := c.schedule

	switch next := c.findNextValue(FieldSecond, cur.second+1); next.outcome {
	case found:
		cur.setTime(cur.hour, cur.minute, next.value)
		return
	case wrapped, exceedsBound:
	}

	switch next := c.findNextValue(FieldMinute, cur.minute+1); next.outcome {
	case found:
		cur.setTime(cur.hour, next.value, s.first(FieldSecond))
		return
	case wrapped, exceedsBound:
	}

	switch next := c.findNextValue(FieldHour, cur.hour+1); next.outcome {
	case found:
		cur.setTime(next.value, s.first(FieldMinute), s.first(FieldSecond))
		return
	case wrapped, exceedsBound:
	}

	cur.addDays(1)
	cur.setTime(s.first(FieldHour), s.first(FieldMinute), s.first(FieldSecond))
}

type lookupOutcome int

const (
	// found: value is the smallest member >= start.
	found lookupOutcome = iota
	// wrapped: no member >= start; value is the first member of the set.
	wrapped
	// exceedsBound: start is past the field maximum.
	exceedsBound
)

type lookup struct {
	value   int
	outcome lookupOutcome
}

func (c *Calculator) findNextValue(f Field, start int) lookup {
	if _, max := f.Bounds(); start > max {
		return lookup{outcome: exceedsBound}
	}
	values := c.schedule.fields[f]
	for _, v := range values {
		if v >= start {
			return lookup{value: v, outcome: found}
		}
	}
	if len(values) == 0 {
		return lookup{outcome: exceedsBound}
	}
	return lookup{value: values[0], outcome: wrapped}
}

// civil is a wall-clock timestamp with second precision, independent of any
// location. Normalization goes through UTC so DST never shifts fields.
type civil struct {
	year, month, day     int
	hour, minute, second int
}

func civilOf(t time.Time) civil {
	y, m, d := t.Date()
	return civil{
		year: y, month: int(m), day: d,
		hour: t.Hour(), minute: t.Minute(), second: t.Second(),
	}
}

func (c civil) utc() time.Time {
	return time.Date(c.year, time.Month(c.month), c.day, c.hour, c.minute, c.second, 0, time.UTC)
}

func (c civil) in(loc *time.Location) time.Time {
	return time.Date(c.year, time.Month(c.month), c.day, c.hour, c.minute, c.second, 0, loc)
}

func (c civil) weekday() int {
	return int(c.utc().Weekday())
}

func (c civil) before(o civil) bool {
	return c.utc().Before(o.utc())
}

func (c civil) addYears(n int) civil {
	return civilOf(c.utc().AddDate(n, 0, 0))
}

func (c *civil) addDays(n int) {
	*c = civilOf(c.utc().AddDate(0, 0, n))
}

func (c *civil) setDate(year, month, day int) {
	c.year, c.month, c.day = year, month, day
}

func (c *civil) setTime(hour, minute, second int) {
	c.hour, c.minute, c.second = hour, minute, second
}
