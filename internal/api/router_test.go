package api

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"cronnext/internal/config"
)

func newTestServer(t *testing.T, opts Options) http.Handler {
	t.Helper()
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Preview.MaxCount == 0 {
		opts.Preview = config.PreviewConfig{DefaultCount: 5, MaxCount: 10}
	}
	s, err := NewServer(opts, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return s.Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string, header ...string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, rec.Body.String()
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	rec, body := do(t, newTestServer(t, Options{}), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", gjson.Get(body, "status").String())
}

func TestIndex(t *testing.T) {
	t.Parallel()

	rec, body := do(t, newTestServer(t, Options{}), http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, body, "/v1/cron/preview")
}

func TestCronPreview(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, Options{})
	rec, body := do(t, h, http.MethodPost, "/v1/cron/preview",
		`{"expr":"*/15 * * * * *","now":"2024-01-01T00:00:07Z","count":3}`)

	require.Equal(t, http.StatusOK, rec.Code, body)
	assert.True(t, gjson.Get(body, "valid").Bool())
	assert.Equal(t, "*/15 * * * * *", gjson.Get(body, "expression").String())
	assert.Equal(t, []string{
		"2024-01-01T00:00:15Z",
		"2024-01-01T00:00:30Z",
		"2024-01-01T00:00:45Z",
	}, toStrings(gjson.Get(body, "next_times").Array()))
	assert.False(t, gjson.Get(body, "day_match_note").Exists())
	assert.False(t, gjson.Get(body, "posix_next_times").Exists())
}

func TestCronPreview_CountBounds(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, Options{Preview: config.PreviewConfig{DefaultCount: 2, MaxCount: 4}})

	_, body := do(t, h, http.MethodPost, "/v1/cron/preview", `{"expr":"* * * * *","now":"2024-01-01T00:00:00Z"}`)
	assert.Len(t, gjson.Get(body, "next_times").Array(), 2)

	_, body = do(t, h, http.MethodPost, "/v1/cron/preview", `{"expr":"* * * * *","now":"2024-01-01T00:00:00Z","count":50}`)
	assert.Len(t, gjson.Get(body, "next_times").Array(), 2)

	_, body = do(t, h, http.MethodPost, "/v1/cron/preview", `{"expr":"* * * * *","now":"2024-01-01T00:00:00Z","count":4}`)
	assert.Len(t, gjson.Get(body, "next_times").Array(), 4)
}

func TestCronPreview_ComparePosix(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, Options{})
	_, body := do(t, h, http.MethodPost, "/v1/cron/preview",
		`{"expr":"0 30 9 * * MON-FRI","now":"2024-01-06T00:00:00Z","count":1,"compare_posix":true}`)

	assert.Equal(t, "2024-01-06T09:30:00Z", gjson.Get(body, "next_times.0").String())
	assert.Equal(t, "2024-01-08T09:30:00Z", gjson.Get(body, "posix_next_times.0").String())
	assert.Equal(t, dayMatchNote, gjson.Get(body, "day_match_note").String())
}

func TestCronPreview_Invalid(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, Options{})

	rec, body := do(t, h, http.MethodPost, "/v1/cron/preview", `{"expr":"60 * * * * *"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, gjson.Get(body, "valid").Bool())
	assert.Equal(t, "second", gjson.Get(body, "field").String())
	assert.Equal(t, "60", gjson.Get(body, "text").String())

	rec, body = do(t, h, http.MethodPost, "/v1/cron/preview", `{"expr":"a b c"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, gjson.Get(body, "valid").Bool())
	assert.Contains(t, gjson.Get(body, "message").String(), "expected 5 or 6 fields")
	assert.False(t, gjson.Get(body, "field").Exists())

	rec, _ = do(t, h, http.MethodPost, "/v1/cron/preview", `{"expr":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, h, http.MethodPost, "/v1/cron/preview", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = do(t, h, http.MethodPost, "/v1/cron/preview", `{"expr":"* * * * *","now":"yesterday"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_input", gjson.Get(body, "error.code").String())
}

func TestCronValidate(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, Options{})

	_, body := do(t, h, http.MethodPost, "/v1/cron/validate", `{"expr":"0 0 1 * *"}`)
	assert.True(t, gjson.Get(body, "valid").Bool())
	assert.Equal(t, "* 0 0 1 * *", gjson.Get(body, "expression").String())
	assert.Equal(t, dayMatchNote, gjson.Get(body, "day_match_note").String())

	_, body = do(t, h, http.MethodPost, "/v1/cron/validate", `{"expr":"0 0 12-9 * * *"}`)
	assert.False(t, gjson.Get(body, "valid").Bool())
	assert.Equal(t, "hour", gjson.Get(body, "field").String())
}

func TestCronExplain(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, Options{})
	_, body := do(t, h, http.MethodPost, "/v1/cron/explain", `{"expr":"0 */20 9-10 * jan,jul SAT"}`)

	assert.True(t, gjson.Get(body, "valid").Bool())
	assert.Equal(t, `[0,20,40]`, gjson.Get(body, "fields.minute").Raw)
	assert.Equal(t, `[9,10]`, gjson.Get(body, "fields.hour").Raw)
	assert.Equal(t, `[1,7]`, gjson.Get(body, "fields.month").Raw)
	assert.Equal(t, `[6]`, gjson.Get(body, "fields.weekday").Raw)
	assert.Equal(t, int64(31), gjson.Get(body, "fields.day.#").Int())
	assert.True(t, gjson.Get(body, "every_day_eligible").Bool())
}

func TestAuth(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, Options{AuthToken: "s3cret"})
	payload := `{"expr":"* * * * *"}`

	rec, body := do(t, h, http.MethodPost, "/v1/cron/validate", payload)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", gjson.Get(body, "error.code").String())

	rec, _ = do(t, h, http.MethodPost, "/v1/cron/validate", payload, "Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = do(t, h, http.MethodPost, "/v1/cron/validate", payload, "Authorization", "Bearer s3cret")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, h, http.MethodPost, "/v1/cron/validate?token=s3cret", payload)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMCPMount(t *testing.T) {
	t.Parallel()

	mcp := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	h := newTestServer(t, Options{AuthToken: "tok", MCP: mcp})

	rec, _ := do(t, h, http.MethodPost, "/mcp", `{}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = do(t, h, http.MethodPost, "/mcp", `{}`, "Authorization", "Bearer tok")
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, Options{RateLimit: 1, RateBurst: 2})
	payload := `{"expr":"* * * * *"}`

	for i := 0; i < 2; i++ {
		rec, _ := do(t, h, http.MethodPost, "/v1/cron/validate", payload)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}

	rec, body := do(t, h, http.MethodPost, "/v1/cron/validate", payload)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, "rate_limited", gjson.Get(body, "error.code").String())

	// Different client, fresh bucket.
	rec, _ = do(t, h, http.MethodPost, "/v1/cron/validate", payload, "X-Forwarded-For", "10.1.2.3")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func toStrings(results []gjson.Result) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.String())
	}
	return out
}
