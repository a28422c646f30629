package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net"
	"net/http"
	"sync"
	"time"

	"mutuo/internal/amortization"
	"mutuo/internal/cache"
	"mutuo/internal/core"
	applog "mutuo/internal/log"
	"mutuo/internal/middleware/security"
	"mutuo/internal/middleware/trace"
	"mutuo/internal/report"
	appweb "mutuo/web"
)

// ScheduleComputer produces the schedule for a set of loan inputs.
type ScheduleComputer interface {
	Compute(ctx context.Context, p core.LoanParams) (amortization.Schedule, error)
}

// cacheStatter is implemented by computers that memoize schedules.
type cacheStatter interface {
	Stats() cache.Stats
}

// Options configures the server. Zero values fall back to sensible defaults.
type Options struct {
	Defaults core.LoanParams
	PageSize int
	Logger   *applog.Logger
}

type Server struct {
	http.Server
	templates *template.Template
	schedules ScheduleComputer
	defaults  core.LoanParams
	pageSize  int
	logger    *applog.Logger
	trace     *trace.Middleware
	started   time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, schedules ScheduleComputer, opts Options) (*Server, error) {
	if schedules == nil {
		return nil, fmt.Errorf("schedule computer is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = applog.Discard()
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = report.DefaultPageSize
	}
	defaults := opts.Defaults
	if defaults.Validate() != nil {
		var err error
		if defaults, err = core.ParseLoanParams("80000", "2.0", "15"); err != nil {
			return nil, err
		}
	}

	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		templates: t,
		schedules: schedules,
		defaults:  defaults,
		pageSize:  pageSize,
		logger:    logger.WithComponent(applog.ComponentHTTP),
		trace:     trace.NewMiddleware(logger, clientIP),
		started:   time.Now(),
	}

	mux := http.NewServeMux()

	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	// UI partials
	mux.HandleFunc("GET /ui/schedule", s.handleSchedulePanel)
	mux.HandleFunc("GET /ui/table", s.handleScheduleTable)

	// JSON and downloads
	mux.HandleFunc("GET /api/schedule", s.handleAPISchedule)
	mux.HandleFunc("GET /api/charts/per-period", s.handleChartPerPeriod)
	mux.HandleFunc("GET /api/charts/cumulative", s.handleChartCumulative)
	mux.HandleFunc("GET /export", s.handleExport)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	var handler http.Handler = mux
	handler = applog.RequestIDMiddleware(trace.RequestIDFromRequest)(handler)
	handler = applog.Middleware(logger)(handler)
	handler = s.trace.Middleware(handler)
	handler = headers.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s, nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.logger.Info("HTTP server shutting down", applog.FieldOperation, applog.OpShutdown)
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Metrics returns the request counters collected by the trace middleware.
func (s *Server) Metrics() trace.Metrics {
	return s.trace.GetMetrics()
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
