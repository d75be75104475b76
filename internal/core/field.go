package core

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Field identifies one of the six schedule dimensions.
type Field int

const (
	FieldSecond Field = iota
	FieldMinute
	FieldHour
	FieldDay
	FieldMonth
	FieldWeekday

	fieldCount = 6
)

// Fields lists every field in expression order.
var Fields = [fieldCount]Field{FieldSecond, FieldMinute, FieldHour, FieldDay, FieldMonth, FieldWeekday}

var fieldNames = [fieldCount]string{"second", "minute", "hour", "day", "month", "weekday"}

var fieldBounds = [fieldCount][2]int{
	{0, 59},
	{0, 59},
	{0, 23},
	{1, 31},
	{1, 12},
	{0, 6},
}

var (
	monthAliases = strings.NewReplacer(
		"JAN", "1", "FEB", "2", "MAR", "3",
		"APR", "4", "MAY", "5", "JUN", "6",
		"JUL", "7", "AUG", "8", "SEP", "9",
		"OCT", "10", "NOV", "11", "DEC", "12",
	)
	weekdayAliases = strings.NewReplacer(
		"SUN", "0", "MON", "1", "TUE", "2",
		"WED", "3", "THU", "4", "FRI", "5", "SAT", "6",
	)
)

func (f Field) String() string {
	if f < 0 || int(f) >= fieldCount {
		return fmt.Sprintf("field(%d)", int(f))
	}
	return fieldNames[f]
}

// Bounds returns the inclusive range of valid values for the field.
func (f Field) Bounds() (min, max int) {
	b := fieldBounds[f]
	return b[0], b[1]
}

// ParseFieldName maps a field name such as "weekday" back to its Field.
func ParseFieldName(name string) (Field, bool) {
	for i, n := range fieldNames {
		if strings.EqualFold(n, name) {
			return Field(i), true
		}
	}
	return 0, false
}

// ParseField expands a single field expression into its sorted, deduplicated
// set of values.
func ParseField(field Field, raw string) ([]int, error) {
	seen := make(map[int]struct{})
	for _, atom := range strings.Split(raw, ",") {
		values, err := parseAtom(field, normalizeAliases(field, atom))
		if err != nil {
			// Report the atom as written, not its alias-expanded form.
			var fe *FieldError
			if errors.As(err, &fe) {
				fe.Text = atom
			}
			return nil, err
		}
		for _, v := range values {
			seen[v] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return nil, fieldErr(field, raw, "no values")
	}

	out := make([]int, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	slices.Sort(out)
	return out, nil
}

func normalizeAliases(field Field, raw string) string {
	switch field {
	case FieldMonth:
		return monthAliases.Replace(strings.ToUpper(raw))
	case FieldWeekday:
		return weekdayAliases.Replace(strings.ToUpper(raw))
	default:
		return raw
	}
}

func parseAtom(field Field, atom string) ([]int, error) {
	min, max := field.Bounds()

	switch {
	case atom == "*":
		return span(min, max, 1), nil
	case strings.Contains(atom, "/"):
		return parseStep(field, atom)
	case strings.Contains(atom, "-"):
		start, end, err := parseRange(field, atom)
		if err != nil {
			return nil, err
		}
		return span(start, end, 1), nil
	default:
		v, err := parseValue(field, atom)
		if err != nil {
			return nil, err
		}
		return []int{v}, nil
	}
}

func parseStep(field Field, atom string) ([]int, error) {
	lhs, rhs, _ := strings.Cut(atom, "/")
	step, err := strconv.Atoi(rhs)
	if err != nil {
		return nil, fieldErr(field, atom, "invalid step %q", rhs)
	}
	if step < 1 {
		return nil, fieldErr(field, atom, "step must be >= 1")
	}

	start, end := field.Bounds()
	switch {
	case lhs == "*":
	case strings.Contains(lhs, "-"):
		if start, end, err = parseRange(field, lhs); err != nil {
			return nil, err
		}
	default:
		if start, err = parseValue(field, lhs); err != nil {
			return nil, err
		}
	}
	return span(start, end, step), nil
}

func parseRange(field Field, atom string) (int, int, error) {
	lo, hi, _ := strings.Cut(atom, "-")
	start, err := parseValue(field, lo)
	if err != nil {
		return 0, 0, err
	}
	end, err := parseValue(field, hi)
	if err != nil {
		return 0, 0, err
	}
	if start > end {
		return 0, 0, fieldErr(field, atom, "range start %d is after end %d", start, end)
	}
	return start, end, nil
}

func parseValue(field Field, text string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, fieldErr(field, text, "not a number")
	}
	min, max := field.Bounds()
	if v < min || v > max {
		return 0, fieldErr(field, text, "value out of range [%d, %d]", min, max)
	}
	return v, nil
}

func span(start, end, step int) []int {
	out := make([]int, 0, (end-start)/step+1)
	for v := start; v <= end; v += step {
		out = append(out, v)
	}
	return out
}
