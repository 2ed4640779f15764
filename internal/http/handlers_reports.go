package http

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"clinic/internal/amqp"
	"clinic/internal/analytics"
	"clinic/internal/export"
	"clinic/internal/locale"
	"clinic/internal/log"
)

// loadReport parses the range query and builds the report, writing the error
// response itself when it fails.
func (s *Server) loadReport(w http.ResponseWriter, r *http.Request) (analytics.FinanceReport, string, bool) {
	ctx := r.Context()

	params, err := ParseRangeParams(r.URL.Query(), s.now(), s.loc)
	if err != nil {
		ErrorFor(err).Write(w)
		return analytics.FinanceReport{}, "", false
	}

	tag := s.reports.Locale()
	if params.Locale != "" {
		tag = locale.Normalize(params.Locale)
	}

	report, err := s.reports.Report(ctx, params.From, params.To, tag)
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Finance report failed",
			log.NewFields().
				WithRange(params.From, params.To).
				WithError(err).
				WithOperation(log.OpAggregate).
				WithComponent(log.ComponentReport).
				ToSlice()...)
		ErrorFor(err).Write(w)
		return analytics.FinanceReport{}, "", false
	}
	return report, tag, true
}

func (s *Server) handleFinanceReport(w http.ResponseWriter, r *http.Request) {
	report, _, ok := s.loadReport(w, r)
	if !ok {
		return
	}
	NewResponse().JSON(report).Write(w)
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	report, _, ok := s.loadReport(w, r)
	if !ok {
		return
	}
	NewResponse().JSON(map[string]interface{}{
		"granularity": report.Granularity,
		"series":      report.Series,
	}).Write(w)
}

// categoryView adds the localized display label to a breakdown entry.
type categoryView struct {
	analytics.CategoryBreakdown
	Label string `json:"label"`
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	report, tag, ok := s.loadReport(w, r)
	if !ok {
		return
	}
	views := make([]categoryView, 0, len(report.Categories))
	for _, c := range report.Categories {
		views = append(views, categoryView{CategoryBreakdown: c, Label: locale.CategoryLabel(tag, c.Category)})
	}
	NewResponse().JSON(views).Write(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	report, _, ok := s.loadReport(w, r)
	if !ok {
		return
	}
	NewResponse().JSON(report.Summary).Write(w)
}

// handleFinanceWorkbook renders the report as an xlsx download. The workbook
// is built in memory first so a failure still yields a clean error response.
func (s *Server) handleFinanceWorkbook(w http.ResponseWriter, r *http.Request) {
	report, tag, ok := s.loadReport(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, report, tag); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Workbook export failed",
			log.FieldComponent, log.ComponentExport,
			log.FieldError, err.Error())
		InternalServerError("export failed").Write(w)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(report)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// handleExport queues an export of the requested range to the configured
// target. Without a publisher the export path is unavailable.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.publisher == nil {
		ServiceUnavailableError("report export is not configured").Write(w)
		return
	}

	params, err := ParseRangeParams(r.URL.Query(), s.now(), s.loc)
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	if params.From.After(params.To) {
		ErrorFor(analytics.ErrInvalidRange).Write(w)
		return
	}

	target := strings.TrimSpace(r.URL.Query().Get("target"))
	if target == "" {
		target = s.exportTarget
	}
	if target == "" {
		target = amqp.TargetSheets
	}

	msg := amqp.NewReportExportMessage(params.From, params.To, target, amqp.ReasonManual)
	if err := s.publisher.PublishReportExport(ctx, msg); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Failed to queue report export",
			log.NewFields().
				WithRange(params.From, params.To).
				WithError(err).
				WithOperation(log.OpPublish).
				WithComponent(log.ComponentAMQP).
				ToSlice()...)
		ServiceUnavailableError("export queue unavailable").Write(w)
		return
	}

	NewResponse().Status(http.StatusAccepted).JSON(map[string]string{
		"id":     msg.ID.String(),
		"from":   params.From.Format(time.DateOnly),
		"to":     params.To.Format(time.DateOnly),
		"target": target,
	}).Write(w)
}
