package cronexpr_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cronnext/pkg/cronexpr"
)

func TestNextRun_Scenarios(t *testing.T) {
	t.Parallel()

	tests := []struct {
		expr string
		from string
		want string
	}{
		{expr: "* * * * * *", from: "2024-01-01T00:00:00Z", want: "2024-01-01T00:00:01Z"},
		{expr: "0 0 12 * * *", from: "2024-01-01T00:00:00Z", want: "2024-01-01T12:00:00Z"},
		{expr: "*/15 * * * * *", from: "2024-01-01T00:00:07Z", want: "2024-01-01T00:00:15Z"},
		{expr: "0 0 0 1 1 *", from: "2024-06-01T00:00:00Z", want: "2025-01-01T00:00:00Z"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.expr, func(t *testing.T) {
			t.Parallel()

			e, err := cronexpr.New(tt.expr)
			require.NoError(t, err)

			from, err := time.Parse(time.RFC3339, tt.from)
			require.NoError(t, err)

			got, err := e.NextRun(from)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Format(time.RFC3339))
		})
	}
}

func TestNew_Invalid(t *testing.T) {
	t.Parallel()

	for _, expr := range []string{"60 * * * * *", "a b c", "", "0 0 0 32 * *", "*/0 * * * * *"} {
		_, err := cronexpr.New(expr)
		assert.ErrorIs(t, err, cronexpr.ErrMalformedExpression, expr)
		assert.False(t, cronexpr.IsValid(expr), expr)
	}

	_, err := cronexpr.Create("0 0 25 * * *")
	var fe *cronexpr.FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, cronexpr.Hour, fe.Field)
}

func TestIsValid(t *testing.T) {
	t.Parallel()

	assert.True(t, cronexpr.IsValid("0 30 9 * * MON-FRI"))
	assert.True(t, cronexpr.IsValid("*/5 * * * *"))
	assert.False(t, cronexpr.IsValid("@daily"))
}

func TestNextRun_DefaultsToNow(t *testing.T) {
	t.Parallel()

	e := cronexpr.MustParse("* * * * * *")
	before := time.Now()
	got, err := e.NextRun(time.Time{})
	require.NoError(t, err)
	assert.True(t, got.After(before.Add(-time.Second)))
	assert.WithinDuration(t, before, got, 2*time.Second)
}

func TestNextRuns_StrictlyIncreasing(t *testing.T) {
	t.Parallel()

	e := cronexpr.MustParse("0 */20 8-10 * * 1-5")
	from := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)

	runs, err := e.NextRuns(from, 10)
	require.NoError(t, err)
	require.Len(t, runs, 10)

	prev := from
	for _, r := range runs {
		assert.True(t, r.After(prev), "%s <= %s", r, prev)
		prev = r
	}
}

func TestNextRuns_NonPositiveCount(t *testing.T) {
	t.Parallel()

	e := cronexpr.MustParse("* * * * * *")
	for _, n := range []int{0, -1, -100} {
		runs, err := e.NextRuns(time.Now(), n)
		require.NoError(t, err, "n=%d", n)
		assert.Empty(t, runs, "n=%d", n)
	}
}

func TestExpression_Accessors(t *testing.T) {
	t.Parallel()

	e := cronexpr.MustParse("0 0 * JAN,MAR sun")
	assert.Equal(t, "* 0 0 * JAN,MAR sun", e.String())
	assert.Equal(t, []int{1, 3}, e.Values(cronexpr.Month))
	assert.Equal(t, []int{0}, e.Values(cronexpr.Weekday))
	assert.Equal(t, []int{0}, e.Values(cronexpr.Minute))

	assert.Panics(t, func() { cronexpr.MustParse("nope") })
}
