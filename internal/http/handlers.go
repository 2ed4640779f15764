package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"clinic/internal/analytics"
	"clinic/internal/core"
	"clinic/internal/locale"
	"clinic/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	}).Write(w)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	switch {
	case s.ready == nil:
		checks["storage"] = "ok"
	case ctx.Err() != nil:
		checks["storage"] = "timeout"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	default:
		if err := s.ready(ctx); err != nil {
			checks["storage"] = fmt.Sprintf("failed: %v", err)
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["storage"] = "ok"
		}
	}

	if s.publisher != nil {
		checks["export_publisher"] = "configured"
	} else {
		checks["export_publisher"] = "disabled"
	}

	if s.cacheStats != nil {
		st := s.cacheStats()
		checks["cache"] = map[string]interface{}{
			"entries":   st.Size,
			"hit_ratio": st.HitRatio(),
			"status":    "ok",
		}
	}

	checks["rate_limiter"] = map[string]interface{}{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	NewResponse().Status(httpStatus).JSON(map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics exposes counters in Prometheus text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()

	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_request_duration_avg_microseconds Average request duration\n")
	fmt.Fprintf(w, "# TYPE http_request_duration_avg_microseconds gauge\n")
	fmt.Fprintf(w, "http_request_duration_avg_microseconds %d\n\n", traceMetrics.AverageResponseTime)

	if s.cacheStats != nil {
		st := s.cacheStats()
		fmt.Fprintf(w, "# HELP report_cache_hits_total Total report cache hits\n")
		fmt.Fprintf(w, "# TYPE report_cache_hits_total counter\n")
		fmt.Fprintf(w, "report_cache_hits_total %d\n\n", st.Hits)

		fmt.Fprintf(w, "# HELP report_cache_misses_total Total report cache misses\n")
		fmt.Fprintf(w, "# TYPE report_cache_misses_total counter\n")
		fmt.Fprintf(w, "report_cache_misses_total %d\n\n", st.Misses)

		fmt.Fprintf(w, "# HELP report_cache_entries Current report cache entries\n")
		fmt.Fprintf(w, "# TYPE report_cache_entries gauge\n")
		fmt.Fprintf(w, "report_cache_entries %d\n\n", st.Size)
	}

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", rateLimitMetrics.TotalHits)

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", rateLimitMetrics.ClientCount)

	fmt.Fprintf(w, "# HELP blocked_requests_total Requests rejected as scanner traffic\n")
	fmt.Fprintf(w, "# TYPE blocked_requests_total counter\n")
	fmt.Fprintf(w, "blocked_requests_total %d\n\n", securityMetrics.BlockedRequests)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", time.Since(s.started).Seconds())
}

// dashboardData feeds templates/dashboard.html.
type dashboardData struct {
	Locale string
	From   string
	To     string
	Report analytics.FinanceReport
	Error  string
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	if s.templates == nil {
		logger.ErrorContext(ctx, "Templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	data := dashboardData{Locale: s.reports.Locale()}
	params, err := ParseRangeParams(r.URL.Query(), s.now(), s.loc)
	if err == nil {
		if params.Locale != "" {
			data.Locale = locale.Normalize(params.Locale)
		}
		data.From = params.From.Format(time.DateOnly)
		data.To = params.To.Format(time.DateOnly)
		data.Report, err = s.reports.Report(ctx, params.From, params.To, data.Locale)
	}
	if err != nil {
		logger.WarnContext(ctx, "Dashboard report unavailable", log.FieldError, err.Error())
		data.Error = err.Error()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		logger.ErrorContext(ctx, "Dashboard template execution failed", log.FieldError, err.Error())
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

func templateFuncs() map[string]interface{} {
	return map[string]interface{}{
		"amount": core.FormatAmount,
		"category": func(tag string, c core.ExpenseCategory) string {
			return locale.CategoryLabel(tag, c)
		},
		"date": func(t time.Time) string {
			return t.Format(time.DateOnly)
		},
		"signed": func(d decimal.Decimal) string {
			if d.IsPositive() {
				return "+" + d.StringFixed(2)
			}
			return d.StringFixed(2)
		},
	}
}
