package http

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"mutuo/internal/amortization"
	"mutuo/internal/core"
	"mutuo/internal/export"
	applog "mutuo/internal/log"
	"mutuo/internal/report"
)

// Loan input ranges offered by the form.
var formLimits = struct {
	LoanMin, LoanMax, LoanStep    int
	RateMin, RateMax, RateStep    string
	YearsMin, YearsMax, YearsStep int
}{
	LoanMin: 80000, LoanMax: 1000000, LoanStep: 1000,
	RateMin: "0.01", RateMax: "20", RateStep: "0.01",
	YearsMin: 15, YearsMax: 30, YearsStep: 1,
}

type pageData struct {
	Title  string
	Limits any
	Inputs Inputs
	Panel  panelData
}

type panelData struct {
	Inputs    Inputs
	Summary   report.Summary
	Table     tableData
	PerPeriod report.PerPeriodSeries
	Cumul     []report.LongPoint
	Colors    map[string]string
}

type tableData struct {
	Inputs Inputs
	Page   report.Page
}

type errorData struct {
	Message string
}

// scheduleResponse is the body of /api/schedule.
type scheduleResponse struct {
	Loan       string          `json:"loan"`
	AnnualRate string          `json:"annual_rate"`
	Years      int             `json:"years"`
	Summary    summaryResponse `json:"summary"`
	Rows       []export.Row    `json:"rows"`
}

type summaryResponse struct {
	Months         int    `json:"months"`
	MonthlyPayment string `json:"monthly_payment"`
	LastPayment    string `json:"last_payment"`
	TotalPaid      string `json:"total_paid"`
	TotalInterest  string `json:"total_interest"`
	TotalPrincipal string `json:"total_principal"`
}

type cumulativeResponse struct {
	Domain [2]int             `json:"domain"`
	Colors map[string]string  `json:"colors"`
	Points []report.LongPoint `json:"points"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady checks templates and that a reference schedule can be computed.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if _, err := s.schedules.Compute(r.Context(), s.defaults); err != nil {
		checks["schedule"] = "failed: " + err.Error()
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["schedule"] = "ok"
	}

	if st, ok := s.schedules.(cacheStatter); ok {
		stats := st.Stats()
		checks["cache"] = map[string]any{
			"hits":      stats.Hits,
			"misses":    stats.Misses,
			"evictions": stats.Evictions,
		}
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	q, err := ParseScheduleQuery(r.URL.Query(), s.defaults)
	if err != nil {
		// A bad bookmark still gets a working page.
		applog.FromContext(r.Context()).DebugContext(r.Context(), "Ignoring invalid query on index",
			applog.FieldOperation, applog.OpParse, applog.FieldQuery, r.URL.RawQuery, applog.FieldError, err)
		q = ScheduleQuery{Params: s.defaults, Page: 1}
	}

	sched, err := s.schedules.Compute(r.Context(), q.Params)
	if err != nil {
		s.serverError(w, r, applog.OpCompute, err)
		return
	}

	data := pageData{
		Title:  "Fixed Rate Mortgage Calculator",
		Limits: formLimits,
		Inputs: InputsOf(q.Params),
		Panel:  s.panel(sched, q.Page),
	}
	s.render(w, r, http.StatusOK, "index.html", data, nil)
}

func (s *Server) handleSchedulePanel(w http.ResponseWriter, r *http.Request) {
	sched, q, ok := s.computeFromQuery(w, r)
	if !ok {
		return
	}
	panel := s.panel(sched, q.Page)
	s.render(w, r, http.StatusOK, "schedule_panel", panel,
		NewHTMXResponse().TriggerScheduleUpdated(panel.Summary))
}

func (s *Server) handleScheduleTable(w http.ResponseWriter, r *http.Request) {
	sched, q, ok := s.computeFromQuery(w, r)
	if !ok {
		return
	}
	page := report.Paginate(sched, q.Page, s.pageSize)
	applog.FromContext(r.Context()).DebugContext(r.Context(), "Schedule page served",
		applog.FieldPage, page.Number, applog.FieldMonths, page.TotalRows)
	s.render(w, r, http.StatusOK, "schedule_table", tableData{
		Inputs: InputsOf(q.Params),
		Page:   page,
	}, nil)
}

func (s *Server) handleAPISchedule(w http.ResponseWriter, r *http.Request) {
	sched, ok := s.computeJSON(w, r)
	if !ok {
		return
	}

	p := sched.Params()
	sum := report.Summarize(sched)
	rows := make([]export.Row, 0, sched.Len())
	for _, row := range sched.Rows() {
		rows = append(rows, export.RowOf(row))
	}

	writeJSON(w, http.StatusOK, scheduleResponse{
		Loan:       p.Loan.String(),
		AnnualRate: p.AnnualRate.String(),
		Years:      p.Years,
		Summary: summaryResponse{
			Months:         sum.Months,
			MonthlyPayment: sum.MonthlyPayment.String(),
			LastPayment:    sum.LastPayment.String(),
			TotalPaid:      sum.TotalPaid.String(),
			TotalInterest:  sum.TotalInterest.String(),
			TotalPrincipal: sum.TotalPrincipal.String(),
		},
		Rows: rows,
	})
}

func (s *Server) handleChartPerPeriod(w http.ResponseWriter, r *http.Request) {
	sched, ok := s.computeJSON(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report.PerPeriod(sched))
}

func (s *Server) handleChartCumulative(w http.ResponseWriter, r *http.Request) {
	sched, ok := s.computeJSON(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, cumulativeResponse{
		Domain: [2]int{0, sched.Len()},
		Colors: report.SeriesColors(),
		Points: report.Cumulative(sched),
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	enc, err := export.EncoderFor(r.URL.Query().Get("format"))
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	sched, _, ok := s.computeFromQuery(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := enc.Encode(&buf, sched); err != nil {
		s.serverError(w, r, applog.OpExport, err)
		return
	}

	applog.FromContext(r.Context()).WithComponent(applog.ComponentExport).InfoContext(r.Context(), "Schedule exported",
		applog.FieldFormat, enc.Extension(),
		applog.FieldMonths, sched.Len())

	NewHTMXResponse().
		Header("Content-Type", enc.ContentType()).
		Header("Content-Disposition", `attachment; filename="`+export.Filename(sched, enc)+`"`).
		Body(buf.Bytes()).
		Write(w)
}

// computeFromQuery parses the inputs and computes the schedule. On invalid
// input it renders the error partial with status 422 and returns false.
func (s *Server) computeFromQuery(w http.ResponseWriter, r *http.Request) (amortization.Schedule, ScheduleQuery, bool) {
	q, err := ParseScheduleQuery(r.URL.Query(), s.defaults)
	if err == nil {
		var sched amortization.Schedule
		if sched, err = s.schedules.Compute(r.Context(), q.Params); err == nil {
			return sched, q, true
		}
	}

	if errors.Is(err, core.ErrInvalidInput) {
		msg := inputMessage(err)
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Invalid schedule inputs",
			applog.FieldOperation, applog.OpValidate, applog.FieldQuery, r.URL.RawQuery, applog.FieldError, err)
		s.render(w, r, http.StatusUnprocessableEntity, "input_error", errorData{Message: msg},
			NewHTMXResponse().TriggerScheduleInvalid().TriggerErrorNotification(msg))
		return amortization.Schedule{}, ScheduleQuery{}, false
	}

	s.serverError(w, r, applog.OpCompute, err)
	return amortization.Schedule{}, ScheduleQuery{}, false
}

func (s *Server) computeJSON(w http.ResponseWriter, r *http.Request) (amortization.Schedule, bool) {
	q, err := ParseScheduleQuery(r.URL.Query(), s.defaults)
	if err == nil {
		var sched amortization.Schedule
		if sched, err = s.schedules.Compute(r.Context(), q.Params); err == nil {
			return sched, true
		}
	}

	if errors.Is(err, core.ErrInvalidInput) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": inputMessage(err)})
		return amortization.Schedule{}, false
	}

	applog.FromContext(r.Context()).ErrorContext(r.Context(), "Schedule computation failed", applog.FieldError, err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	return amortization.Schedule{}, false
}

func (s *Server) panel(sched amortization.Schedule, page int) panelData {
	in := InputsOf(sched.Params())
	return panelData{
		Inputs:  in,
		Summary: report.Summarize(sched),
		Table: tableData{
			Inputs: in,
			Page:   report.Paginate(sched, page, s.pageSize),
		},
		PerPeriod: report.PerPeriod(sched),
		Cumul:     report.Cumulative(sched),
		Colors:    report.SeriesColors(),
	}
}

// render executes a template into a buffer so that a failing template never
// leaves a half-written response.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any, resp *HTMXResponseBuilder) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		applog.NewStructuredLogger(applog.FromContext(r.Context())).LogError(r.Context(),
			"Template execution failed", err, applog.ComponentTemplate, applog.OpRender, applog.LogFields{"template": name})
		InternalServerError("Unable to render page").TriggerErrorNotification("Unable to render page").Write(w)
		return
	}
	if resp == nil {
		resp = NewHTMXResponse()
	}
	resp.Status(status).BodyHTML(buf.Bytes()).Write(w)
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, op string, err error) {
	applog.NewStructuredLogger(applog.FromContext(r.Context())).LogError(r.Context(),
		"Request failed", err, applog.ComponentHTTP, op, nil)
	InternalServerError("Something went wrong").TriggerErrorNotification("Something went wrong").Write(w)
}

// inputMessage strips the wrapping chain down to what the user can act on.
func inputMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidLoan):
		return "Loan amount must be between 0.01 and 1,000,000,000,000 euros."
	case errors.Is(err, core.ErrInvalidRate):
		return "Annual interest rate must be between 0 and 1000 percent."
	case errors.Is(err, core.ErrInvalidYears):
		return "Term must be a whole number of years between 1 and 100."
	default:
		return "Invalid input."
	}
}
