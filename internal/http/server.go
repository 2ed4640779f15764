package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"clinic/internal/analytics"
	"clinic/internal/cache"
	"clinic/internal/core"
	"clinic/internal/log"
	"clinic/internal/middleware/ratelimit"
	"clinic/internal/middleware/security"
	"clinic/internal/middleware/trace"
	"clinic/internal/services"
	appweb "clinic/web"
)

// Records is the record API behind the /api/<kind> routes.
type Records interface {
	CreatePatient(ctx context.Context, p core.Patient) (core.Patient, error)
	CreateAppointment(ctx context.Context, a core.Appointment) (core.Appointment, error)
	CreatePayment(ctx context.Context, p core.Payment) (core.Payment, error)
	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)

	ListPatients(ctx context.Context) ([]core.Patient, error)
	ListAppointments(ctx context.Context) ([]core.Appointment, error)
	ListPayments(ctx context.Context) ([]core.Payment, error)
	ListExpenses(ctx context.Context) ([]core.Expense, error)

	MarkPaymentPaid(ctx context.Context, id uuid.UUID) error
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status core.AppointmentStatus) error
	DeleteExpense(ctx context.Context, id uuid.UUID) error
}

// Reports builds finance reports for a range and locale.
type Reports interface {
	Report(ctx context.Context, from, to time.Time, tag string) (analytics.FinanceReport, error)
	Locale() string
}

// Options wires the server's collaborators. Publisher, Ready and CacheStats
// are optional.
type Options struct {
	Addr         string
	Records      Records
	Reports      Reports
	Publisher    services.ExportPublisher
	ExportTarget string
	// Location dates in query strings and bodies are parsed in.
	Location   *time.Location
	Ready      func(context.Context) error
	CacheStats func() cache.Stats
	Logger     *log.Logger
	RateLimit  ratelimit.Config
}

type Server struct {
	http.Server
	templates *template.Template

	records      Records
	reports      Reports
	publisher    services.ExportPublisher
	exportTarget string
	loc          *time.Location
	ready        func(context.Context) error
	cacheStats   func() cache.Stats
	now          func() time.Time
	started      time.Time

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	shutdownOnce sync.Once
}

func NewServer(opts Options) *Server {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}

	mux := http.NewServeMux()
	detector := security.NewDetector()

	s := &Server{
		records:          opts.Records,
		reports:          opts.Reports,
		publisher:        opts.Publisher,
		exportTarget:     opts.ExportTarget,
		loc:              opts.Location,
		ready:            opts.Ready,
		cacheStats:       opts.CacheStats,
		now:              time.Now,
		started:          time.Now(),
		rateLimiter:      ratelimit.NewLimiter(opts.RateLimit),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(detector.ExtractClientIP, opts.Logger),
	}

	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /{$}", s.handleDashboard)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/reports/finance", s.handleFinanceReport)
	mux.HandleFunc("GET /api/reports/series", s.handleSeries)
	mux.HandleFunc("GET /api/reports/categories", s.handleCategories)
	mux.HandleFunc("GET /api/reports/summary", s.handleSummary)
	mux.HandleFunc("GET /api/reports/finance.xlsx", s.handleFinanceWorkbook)
	mux.HandleFunc("POST /api/reports/export", s.handleExport)

	mux.HandleFunc("GET /api/patients", s.handleListPatients)
	mux.HandleFunc("POST /api/patients", s.handleCreatePatient)
	mux.HandleFunc("GET /api/appointments", s.handleListAppointments)
	mux.HandleFunc("POST /api/appointments", s.handleCreateAppointment)
	mux.HandleFunc("PATCH /api/appointments/{id}/status", s.handleUpdateAppointmentStatus)
	mux.HandleFunc("GET /api/payments", s.handleListPayments)
	mux.HandleFunc("POST /api/payments", s.handleCreatePayment)
	mux.HandleFunc("POST /api/payments/{id}/paid", s.handleMarkPaymentPaid)
	mux.HandleFunc("GET /api/expenses", s.handleListExpenses)
	mux.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.rateLimiter.Middleware(detector.ExtractClientIP, nil)

	var handler http.Handler = mux
	handler = limit(handler)
	handler = headers.Middleware(handler)
	handler = detector.Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)
	handler = log.Middleware(opts.Logger.WithComponent(log.ComponentHTTP))(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
