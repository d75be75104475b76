package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"cronnext/internal/core"
)

type cronRequest struct {
	Expr         string `json:"expr"`
	Now          string `json:"now,omitempty"`
	Count        int    `json:"count,omitempty"`
	ComparePosix bool   `json:"compare_posix,omitempty"`
}

type cronPreviewResponse struct {
	Valid          bool     `json:"valid"`
	Expression     string   `json:"expression,omitempty"`
	NextTimes      []string `json:"next_times,omitempty"`
	PosixNextTimes []string `json:"posix_next_times,omitempty"`
	DayMatchNote   string   `json:"day_match_note,omitempty"`
	Message        string   `json:"message,omitempty"`
	Field          string   `json:"field,omitempty"`
	Text           *string  `json:"text,omitempty"`
}

type cronExplainResponse struct {
	Valid            bool             `json:"valid"`
	Expression       string           `json:"expression"`
	Fields           map[string][]int `json:"fields"`
	EveryDayEligible bool             `json:"every_day_eligible"`
}

const dayMatchNote = "day-of-month and weekday are combined with OR; because one of them is unrestricted, every day is eligible"

func decodeCronRequest(w http.ResponseWriter, r *http.Request) (cronRequest, bool) {
	var req cronRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, cronPreviewResponse{Valid: false, Message: "invalid JSON payload"})
		return req, false
	}
	req.Expr = strings.TrimSpace(req.Expr)
	if req.Expr == "" {
		writeJSON(w, http.StatusBadRequest, cronPreviewResponse{Valid: false, Message: "cron expression is required"})
		return req, false
	}
	return req, true
}

// invalidResponse describes a parse failure, pointing at the offending
// field when there is one.
func invalidResponse(err error) cronPreviewResponse {
	res := cronPreviewResponse{Valid: false, Message: err.Error()}
	var fe *core.FieldError
	if errors.As(err, &fe) {
		res.Field = fe.Field.String()
		text := fe.Text
		res.Text = &text
	}
	return res
}

func (s *Server) handleCronPreview(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCronRequest(w, r)
	if !ok {
		return
	}
	calc, err := core.ParseCron(req.Expr)
	if err != nil {
		writeJSON(w, http.StatusOK, invalidResponse(err))
		return
	}

	count := req.Count
	if count <= 0 || count > s.preview.MaxCount {
		count = s.preview.DefaultCount
	}

	base := time.Now().In(s.location)
	if req.Now != "" {
		parsed, err := time.Parse(time.RFC3339, req.Now)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_input", "now must be an RFC3339 timestamp")
			return
		}
		base = parsed.In(s.location)
	}

	times, err := core.NextOccurrences(calc, base, count)
	if err != nil {
		s.logger.Warn("cron preview", "expr", req.Expr, "err", err)
		writeError(w, http.StatusUnprocessableEntity, "search_exhausted", err.Error())
		return
	}

	res := cronPreviewResponse{
		Valid:      true,
		Expression: calc.Schedule().String(),
		NextTimes:  formatTimes(times),
	}
	if calc.Schedule().EveryDayEligible() {
		res.DayMatchNote = dayMatchNote
	}
	if req.ComparePosix {
		posix, err := core.PosixOccurrences(req.Expr, base, count)
		if err != nil {
			s.logger.Debug("posix preview", "expr", req.Expr, "err", err)
		} else {
			res.PosixNextTimes = formatTimes(posix)
		}
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCronValidate(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCronRequest(w, r)
	if !ok {
		return
	}
	calc, err := core.ParseCron(req.Expr)
	if err != nil {
		writeJSON(w, http.StatusOK, invalidResponse(err))
		return
	}
	res := cronPreviewResponse{Valid: true, Expression: calc.Schedule().String()}
	if calc.Schedule().EveryDayEligible() {
		res.DayMatchNote = dayMatchNote
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCronExplain(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCronRequest(w, r)
	if !ok {
		return
	}
	calc, err := core.ParseCron(req.Expr)
	if err != nil {
		writeJSON(w, http.StatusOK, invalidResponse(err))
		return
	}
	schedule := calc.Schedule()
	fields := make(map[string][]int, len(core.Fields))
	for _, f := range core.Fields {
		fields[f.String()] = schedule.Values(f)
	}
	writeJSON(w, http.StatusOK, cronExplainResponse{
		Valid:            true,
		Expression:       schedule.String(),
		Fields:           fields,
		EveryDayEligible: schedule.EveryDayEligible(),
	})
}

func formatTimes(times []time.Time) []string {
	formatted := make([]string, 0, len(times))
	for _, t := range times {
		formatted = append(formatted, t.Format(time.RFC3339))
	}
	return formatted
}
