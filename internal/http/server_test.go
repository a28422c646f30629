package http

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mutuo/internal/amortization"
	"mutuo/internal/core"
	"mutuo/internal/report"
	"mutuo/internal/services"
)

type failingComputer struct{}

func (failingComputer) Compute(context.Context, core.LoanParams) (amortization.Schedule, error) {
	return amortization.Schedule{}, errors.New("disk on fire")
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv, err := NewServer(":0", services.NewScheduleService(16, time.Minute), Options{
		Defaults: defaultParams(t),
		PageSize: 12,
	})
	require.NoError(t, err)
	return srv
}

func get(t *testing.T, srv *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func TestNewServer_RequiresComputer(t *testing.T) {
	_, err := NewServer(":0", nil, Options{})
	assert.Error(t, err)
}

func TestIndexAndHealth(t *testing.T) {
	srv := newTestServer(t)

	rr := get(t, srv, "/")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Fixed Rate Mortgage Calculator")
	assert.Contains(t, body, `value="80000.00"`)
	assert.Contains(t, body, "French amortization system")
	assert.Contains(t, body, "Page 1 of 15")
	assert.Contains(t, body, `id="per-period-data"`)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := get(t, srv, path)
		assert.Equal(t, http.StatusOK, rr.Code, path)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"), path)
	}

	assert.Equal(t, http.StatusNotFound, get(t, srv, "/nope").Code)
}

func TestIndex_BadBookmarkFallsBackToDefaults(t *testing.T) {
	rr := get(t, newTestServer(t), "/?loan=abc")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `value="80000.00"`)
}

func TestReady_ReportsComputeFailure(t *testing.T) {
	srv, err := NewServer(":0", failingComputer{}, Options{Defaults: defaultParams(t)})
	require.NoError(t, err)

	rr := get(t, srv, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "not_ready")
}

func TestSchedulePanel(t *testing.T) {
	srv := newTestServer(t)

	rr := get(t, srv, "/ui/schedule?loan=100000&rate=3&years=30")
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.Contains(t, body, "Amount to pay back")
	assert.Contains(t, body, "421.60€")
	assert.Contains(t, body, "<td>250.00</td>")
	assert.Contains(t, body, "Page 1 of 30")
	assert.NotContains(t, body, "<html")
	assert.Contains(t, rr.Header().Get("HX-Trigger"), "schedule:updated")
}

func TestSchedulePanel_InvalidInput(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		query string
		want  string
	}{
		{"loan=-5", "Loan amount"},
		{"rate=-0.5", "Annual interest rate"},
		{"years=2.5", "Term must be"},
		{"rate=1000.5", "between 0 and 1000 percent"},
		{"loan=0.004", "between 0.01 and"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rr := get(t, srv, "/ui/schedule?"+tt.query)

			assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
			assert.Contains(t, rr.Body.String(), `class="error"`)
			assert.Contains(t, rr.Body.String(), tt.want)

			var triggers map[string]any
			require.NoError(t, json.Unmarshal([]byte(rr.Header().Get("HX-Trigger")), &triggers))
			assert.Contains(t, triggers, "schedule:invalid")
			notification, ok := triggers["show-notification"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "error", notification["type"])
			assert.Contains(t, notification["message"], tt.want)
		})
	}
}

func TestScheduleTable_Pagination(t *testing.T) {
	srv := newTestServer(t)

	rr := get(t, srv, "/ui/table?loan=100000&rate=3&years=30&page=30")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Page 30 of 30")
	assert.Contains(t, body, `<td class="sticky">360</td>`)

	rr = get(t, srv, "/ui/table?loan=100000&rate=3&years=30&page=99")
	assert.Contains(t, rr.Body.String(), "Page 30 of 30", "out of range pages are clamped")
}

func TestAPISchedule(t *testing.T) {
	srv := newTestServer(t)

	rr := get(t, srv, "/api/schedule?loan=100000&rate=3&years=30")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp scheduleResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "100000.00", resp.Loan)
	assert.Equal(t, 30, resp.Years)
	assert.Equal(t, 360, resp.Summary.Months)
	assert.Equal(t, "421.60", resp.Summary.MonthlyPayment)
	assert.Equal(t, "100000.00", resp.Summary.TotalPrincipal)
	require.Len(t, resp.Rows, 360)
	assert.Equal(t, "0.00", resp.Rows[359].RemainingBalance)

	rr = get(t, srv, "/api/schedule?years=0")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "error")
}

func TestAPICharts(t *testing.T) {
	srv := newTestServer(t)

	rr := get(t, srv, "/api/charts/per-period?loan=100000&rate=3&years=30")
	require.Equal(t, http.StatusOK, rr.Code)
	var per report.PerPeriodSeries
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &per))
	assert.Equal(t, [2]int{0, 360}, per.Domain)
	assert.Len(t, per.Interest, 360)
	assert.InDelta(t, 250.00, per.Interest[0], 1e-9)

	rr = get(t, srv, "/api/charts/cumulative?loan=100000&rate=3&years=30")
	require.Equal(t, http.StatusOK, rr.Code)
	var cum cumulativeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &cum))
	require.Len(t, cum.Points, 720)
	assert.Equal(t, report.SeriesPrincipal, cum.Points[0].Series)
	assert.Equal(t, report.SeriesInterest, cum.Points[360].Series)
	assert.InDelta(t, 100000.00, cum.Points[359].Value, 1e-6)
	assert.Equal(t, report.ColorInterest, cum.Colors[report.SeriesInterest])
}

func TestExport(t *testing.T) {
	srv := newTestServer(t)

	t.Run("csv", func(t *testing.T) {
		rr := get(t, srv, "/export?format=csv&loan=100000&rate=3&years=30")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="schedule-100000-3-30y.csv"`, rr.Header().Get("Content-Disposition"))

		records, err := csv.NewReader(strings.NewReader(rr.Body.String())).ReadAll()
		require.NoError(t, err)
		assert.Len(t, records, 361)
	})

	t.Run("yaml", func(t *testing.T) {
		rr := get(t, srv, "/export?format=yaml")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "remaining_balance:")
	})

	t.Run("unsupported format", func(t *testing.T) {
		rr := get(t, srv, "/export?format=xlsx")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("invalid inputs", func(t *testing.T) {
		rr := get(t, srv, "/export?format=json&loan=0")
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})
}

func TestStaticAssets(t *testing.T) {
	srv := newTestServer(t)

	rr := get(t, srv, "/static/app.js")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "schedule-panel")
	assert.Contains(t, rr.Header().Get("Cache-Control"), "max-age=3600")
}

func TestInternalErrorIsNotLeaked(t *testing.T) {
	srv, err := NewServer(":0", failingComputer{}, Options{Defaults: defaultParams(t)})
	require.NoError(t, err)

	rr := get(t, srv, "/ui/schedule")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "disk on fire")
	assert.Contains(t, rr.Header().Get("HX-Trigger"), "show-notification")
	assert.NotContains(t, rr.Header().Get("HX-Trigger"), "disk on fire")
}

func TestShutdown(t *testing.T) {
	srv := newTestServer(t)
	assert.NoError(t, srv.Shutdown(context.Background()))
	assert.NoError(t, srv.Shutdown(context.Background()))
}
