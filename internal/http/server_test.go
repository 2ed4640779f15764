package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"clinic/internal/adapters"
	"clinic/internal/amqp"
	"clinic/internal/analytics"
	"clinic/internal/core"
	"clinic/internal/log"
	"clinic/internal/middleware/ratelimit"
	"clinic/internal/services"
	"clinic/internal/sheets/memory"
)

type fakePublisher struct {
	mu   sync.Mutex
	msgs []*amqp.ReportExportMessage
	err  error
}

func (f *fakePublisher) PublishReportExport(_ context.Context, msg *amqp.ReportExportMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

type testEnv struct {
	srv   *Server
	store *memory.Store
}

func newTestEnv(t *testing.T, mutate func(*Options)) testEnv {
	t.Helper()
	store := memory.New()
	records := services.NewRecordService(store, nil, "")
	reports := services.NewReportService(store, nil, services.ReportOptions{Locale: "en", WeekStart: time.Monday})

	opts := Options{
		Addr:     ":0",
		Records:  adapters.NewRecordAdapter(store, records),
		Reports:  reports,
		Location: time.UTC,
		Logger:   log.New(log.Config{Output: io.Discard}),
	}
	if mutate != nil {
		mutate(&opts)
	}
	srv := NewServer(opts)
	srv.now = func() time.Time { return time.Date(2024, 6, 17, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return testEnv{srv: srv, store: store}
}

func (e testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if strings.HasPrefix(body, "{") {
		req.Header.Set("Content-Type", "application/json")
	} else if body != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func seedJune(t *testing.T, store *memory.Store) {
	t.Helper()
	ctx := context.Background()
	at := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	must(store.CreatePayment(ctx, core.Payment{ID: uuid.New(), PatientID: uuid.New(), Amount: decimal.NewFromInt(100), PaymentDate: at, IsPaid: true}))
	must(store.CreatePayment(ctx, core.Payment{ID: uuid.New(), PatientID: uuid.New(), Amount: decimal.NewFromInt(999), PaymentDate: at}))
	must(store.CreateExpense(ctx, core.Expense{ID: uuid.New(), Amount: decimal.NewFromInt(40), ExpenseDate: at, Category: core.Rent}))
}

func TestHealthReadyAndMetrics(t *testing.T) {
	env := newTestEnv(t, func(o *Options) {
		o.Ready = func(context.Context) error { return nil }
	})

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		rr := env.do(t, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d body=%s", path, rr.Code, rr.Body.String())
		}
	}

	rr := env.do(t, http.MethodGet, "/metrics", "")
	if !strings.Contains(rr.Body.String(), "http_requests_total") {
		t.Errorf("metrics missing request counter: %s", rr.Body.String())
	}
}

func TestReadyReportsStorageFailure(t *testing.T) {
	env := newTestEnv(t, func(o *Options) {
		o.Ready = func(context.Context) error { return errors.New("database is locked") }
	})

	rr := env.do(t, http.MethodGet, "/readyz", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "database is locked") {
		t.Errorf("readiness body missing cause: %s", rr.Body.String())
	}
}

func TestDashboardRenders(t *testing.T) {
	env := newTestEnv(t, nil)
	seedJune(t, env.store)

	rr := env.do(t, http.MethodGet, "/", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"Clinic finance", "2024-06-01", "2024-06-30", "100,00", "Rent"} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}

	rr = env.do(t, http.MethodGet, "/?from=2024-06-30&to=2024-06-01", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "invalid range") {
		t.Errorf("inverted range should render the error, got %d", rr.Code)
	}
}

func TestFinanceReportEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	seedJune(t, env.store)

	rr := env.do(t, http.MethodGet, "/api/reports/finance?from=2024-06-01&to=2024-06-30", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}

	var report analytics.FinanceReport
	if err := json.Unmarshal(rr.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Granularity != analytics.Day {
		t.Errorf("granularity = %s, want day", report.Granularity)
	}
	if len(report.Series) != 30 {
		t.Errorf("series length = %d, want 30", len(report.Series))
	}
	if !report.Summary.Current.TotalRevenue.Equal(decimal.NewFromInt(100)) {
		t.Errorf("revenue = %s, want 100 (unpaid payments excluded)", report.Summary.Current.TotalRevenue)
	}
	if !report.Summary.Current.TotalExpenses.Equal(decimal.NewFromInt(40)) {
		t.Errorf("expenses = %s, want 40", report.Summary.Current.TotalExpenses)
	}
}

func TestReportSubresources(t *testing.T) {
	env := newTestEnv(t, nil)
	seedJune(t, env.store)
	q := "?from=2024-01-01&to=2024-12-31&locale=it"

	rr := env.do(t, http.MethodGet, "/api/reports/series"+q, "")
	var series struct {
		Granularity analytics.Granularity        `json:"granularity"`
		Series      []analytics.FinanceDataPoint `json:"series"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &series); err != nil {
		t.Fatalf("decode series: %v", err)
	}
	if series.Granularity != analytics.Month || len(series.Series) != 12 {
		t.Errorf("series = %s x%d, want month x12", series.Granularity, len(series.Series))
	}

	rr = env.do(t, http.MethodGet, "/api/reports/categories"+q, "")
	var cats []struct {
		Category core.ExpenseCategory `json:"category"`
		Total    decimal.Decimal      `json:"total"`
		Label    string               `json:"label"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &cats); err != nil {
		t.Fatalf("decode categories: %v", err)
	}
	if len(cats) != len(core.ExpenseCategories()) {
		t.Fatalf("categories = %d, want one per category", len(cats))
	}
	for _, c := range cats {
		if c.Label == "" {
			t.Errorf("category %s has no label", c.Category)
		}
		if c.Category == core.Rent && !c.Total.Equal(decimal.NewFromInt(40)) {
			t.Errorf("rent total = %s, want 40", c.Total)
		}
	}

	rr = env.do(t, http.MethodGet, "/api/reports/summary"+q, "")
	var summary analytics.PeriodSummary
	if err := json.Unmarshal(rr.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if !summary.Current.NetIncome.Equal(decimal.NewFromInt(60)) {
		t.Errorf("net income = %s, want 60", summary.Current.NetIncome)
	}
}

func TestReportRejectsBadRanges(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, q := range []string{
		"?from=2024-06-30&to=2024-06-01",
		"?from=2024-13-01",
		"?to=not-a-date",
	} {
		rr := env.do(t, http.MethodGet, "/api/reports/finance"+q, "")
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status=%d, want 400", q, rr.Code)
		}
		var body ErrorBody
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil || body.Error == "" {
			t.Errorf("%s: expected JSON error body, got %q", q, rr.Body.String())
		}
	}
}

func TestFinanceWorkbookDownload(t *testing.T) {
	env := newTestEnv(t, nil)
	seedJune(t, env.store)

	rr := env.do(t, http.MethodGet, "/api/reports/finance.xlsx?from=2024-06-01&to=2024-06-30", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, ".xlsx") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !strings.HasPrefix(rr.Body.String(), "PK") {
		t.Error("workbook body is not a zip archive")
	}
}

func TestExportEndpoint(t *testing.T) {
	t.Run("without publisher", func(t *testing.T) {
		env := newTestEnv(t, nil)
		rr := env.do(t, http.MethodPost, "/api/reports/export?from=2024-06-01&to=2024-06-30", "")
		if rr.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rr.Code)
		}
	})

	t.Run("queues message", func(t *testing.T) {
		pub := &fakePublisher{}
		env := newTestEnv(t, func(o *Options) { o.Publisher = pub })

		rr := env.do(t, http.MethodPost, "/api/reports/export?from=2024-06-01&to=2024-06-30", "")
		if rr.Code != http.StatusAccepted {
			t.Fatalf("expected 202, got %d: %s", rr.Code, rr.Body.String())
		}
		if len(pub.msgs) != 1 {
			t.Fatalf("published %d messages, want 1", len(pub.msgs))
		}
		msg := pub.msgs[0]
		if msg.Target != amqp.TargetSheets || msg.Reason != amqp.ReasonManual {
			t.Errorf("message = %+v", msg)
		}
		if msg.From.Format(time.DateOnly) != "2024-06-01" || msg.To.Format(time.DateOnly) != "2024-06-30" {
			t.Errorf("range = %s..%s", msg.From, msg.To)
		}
	})

	t.Run("broker failure", func(t *testing.T) {
		pub := &fakePublisher{err: amqp.ErrCircuitOpen}
		env := newTestEnv(t, func(o *Options) { o.Publisher = pub })

		rr := env.do(t, http.MethodPost, "/api/reports/export", "")
		if rr.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rr.Code)
		}
	})

	t.Run("inverted range", func(t *testing.T) {
		env := newTestEnv(t, func(o *Options) { o.Publisher = &fakePublisher{} })
		rr := env.do(t, http.MethodPost, "/api/reports/export?from=2024-06-30&to=2024-06-01", "")
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
	})
}

func TestRecordRoutes(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.do(t, http.MethodPost, "/api/patients", `{"fullName":"Ada Rossi"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create patient: %d %s", rr.Code, rr.Body.String())
	}
	var patient core.Patient
	if err := json.Unmarshal(rr.Body.Bytes(), &patient); err != nil || patient.ID == uuid.Nil {
		t.Fatalf("decode patient: %v %+v", err, patient)
	}

	rr = env.do(t, http.MethodPost, "/api/patients", `{"fullName":"   "}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty name: status=%d, want 422", rr.Code)
	}

	rr = env.do(t, http.MethodPost, "/api/payments",
		"patientId="+patient.ID.String()+"&amount=80%2C50&paymentDate=2024-06-03&method=card")
	if rr.Code != http.StatusCreated {
		t.Fatalf("create payment: %d %s", rr.Code, rr.Body.String())
	}
	var payment core.Payment
	_ = json.Unmarshal(rr.Body.Bytes(), &payment)
	if payment.IsPaid || !payment.Amount.Equal(decimal.RequireFromString("80.50")) {
		t.Errorf("payment = %+v", payment)
	}

	rr = env.do(t, http.MethodPost, "/api/payments/"+payment.ID.String()+"/paid", "")
	if rr.Code != http.StatusNoContent {
		t.Errorf("mark paid: status=%d", rr.Code)
	}
	rr = env.do(t, http.MethodPost, "/api/payments/"+uuid.NewString()+"/paid", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("mark unknown paid: status=%d, want 404", rr.Code)
	}

	rr = env.do(t, http.MethodGet, "/api/payments", "")
	var payments []core.Payment
	if err := json.Unmarshal(rr.Body.Bytes(), &payments); err != nil || len(payments) != 1 || !payments[0].IsPaid {
		t.Errorf("list payments = %s", rr.Body.String())
	}

	rr = env.do(t, http.MethodPost, "/api/expenses", "amount=abc&category=RENT")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid amount: status=%d, want 422", rr.Code)
	}
	rr = env.do(t, http.MethodPost, "/api/expenses", "amount=10&category=FOOD")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("unknown category: status=%d, want 422", rr.Code)
	}
	rr = env.do(t, http.MethodPost, "/api/expenses", `{"amount":"25","category":"utilities","expenseDate":"2024-06-04"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create expense: %d %s", rr.Code, rr.Body.String())
	}
	var expense core.Expense
	_ = json.Unmarshal(rr.Body.Bytes(), &expense)

	rr = env.do(t, http.MethodDelete, "/api/expenses/"+expense.ID.String(), "")
	if rr.Code != http.StatusNoContent {
		t.Errorf("delete expense: status=%d", rr.Code)
	}
	rr = env.do(t, http.MethodDelete, "/api/expenses/not-a-uuid", "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("delete bad id: status=%d, want 400", rr.Code)
	}

	rr = env.do(t, http.MethodGet, "/api/expenses", "")
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Errorf("expenses after delete = %s, want []", rr.Body.String())
	}

	rr = env.do(t, http.MethodPut, "/api/patients", "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("PUT patients: status=%d, want 405", rr.Code)
	}
}

func TestAppointmentRoutes(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.do(t, http.MethodPost, "/api/appointments",
		`{"patientId":"`+uuid.NewString()+`","startTime":"2024-06-05T09:30:00Z"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create appointment: %d %s", rr.Code, rr.Body.String())
	}
	var a core.Appointment
	_ = json.Unmarshal(rr.Body.Bytes(), &a)
	if a.Status != core.Pending {
		t.Errorf("status = %s, want PENDING", a.Status)
	}

	rr = env.do(t, http.MethodPatch, "/api/appointments/"+a.ID.String()+"/status", `{"status":"confirmed"}`)
	if rr.Code != http.StatusNoContent {
		t.Errorf("confirm: status=%d %s", rr.Code, rr.Body.String())
	}
	rr = env.do(t, http.MethodPatch, "/api/appointments/"+a.ID.String()+"/status", `{"status":"late"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("unknown status: status=%d, want 422", rr.Code)
	}

	list, _ := env.store.ListAppointments(context.Background())
	if len(list) != 1 || list[0].Status != core.Confirmed {
		t.Errorf("appointments = %+v", list)
	}
}

func TestMiddlewareChain(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.do(t, http.MethodGet, "/api/patients", "")
	if id := rr.Header().Get("X-Request-ID"); id == "" {
		t.Error("missing X-Request-ID")
	} else if _, err := uuid.Parse(id); err != nil {
		t.Errorf("request id %q is not a uuid", id)
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}
	if rr.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store on API routes", rr.Header().Get("Cache-Control"))
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	given := uuid.NewString()
	req.Header.Set("X-Request-ID", given)
	rec := httptest.NewRecorder()
	env.srv.Handler.ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-ID") != given {
		t.Errorf("incoming request id not propagated")
	}

	rr = env.do(t, http.MethodGet, "/api/reports/finance?file=../../etc/passwd", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("scanner path: status=%d, want 404", rr.Code)
	}
}

func TestRateLimitAppliesToWritesOnly(t *testing.T) {
	env := newTestEnv(t, func(o *Options) {
		o.RateLimit = ratelimit.Config{RequestsPerMinute: 1, Methods: []string{http.MethodPost}}
	})

	if rr := env.do(t, http.MethodPost, "/api/patients", `{"fullName":"A"}`); rr.Code != http.StatusCreated {
		t.Fatalf("first write: %d", rr.Code)
	}
	if rr := env.do(t, http.MethodPost, "/api/patients", `{"fullName":"B"}`); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second write: status=%d, want 429", rr.Code)
	}
	for i := 0; i < 3; i++ {
		if rr := env.do(t, http.MethodGet, "/api/patients", ""); rr.Code != http.StatusOK {
			t.Fatalf("read %d throttled: %d", i, rr.Code)
		}
	}
}
