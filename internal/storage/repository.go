package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"clinic/internal/analytics"
	"clinic/internal/core"

	_ "modernc.org/sqlite"
)

// timeLayout is RFC 3339 with fixed nanosecond width so stored UTC
// timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// single writer; avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func checkAffected(n int64, err error, what string, id uuid.UUID) error {
	if err != nil {
		return fmt.Errorf("%s %s: %w", what, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) CreatePatient(ctx context.Context, p core.Patient) error {
	err := r.queries.CreatePatient(ctx, Patient{
		ID:        p.ID.String(),
		FullName:  p.FullName,
		CreatedAt: formatTime(p.CreatedAt),
	})
	if err != nil {
		return fmt.Errorf("create patient: %w", err)
	}
	slog.DebugContext(ctx, "Patient saved to SQLite", "id", p.ID)
	return nil
}

func (r *SQLiteRepository) ListPatients(ctx context.Context) ([]core.Patient, error) {
	rows, err := r.queries.ListPatients(ctx)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	out := make([]core.Patient, 0, len(rows))
	for _, row := range rows {
		p, err := patientFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *SQLiteRepository) CreateAppointment(ctx context.Context, a core.Appointment) error {
	err := r.queries.CreateAppointment(ctx, Appointment{
		ID:        a.ID.String(),
		PatientID: a.PatientID.String(),
		StartTime: formatTime(a.StartTime),
		Status:    string(a.Status),
	})
	if err != nil {
		return fmt.Errorf("create appointment: %w", err)
	}
	slog.DebugContext(ctx, "Appointment saved to SQLite", "id", a.ID, "status", a.Status)
	return nil
}

func (r *SQLiteRepository) ListAppointments(ctx context.Context) ([]core.Appointment, error) {
	rows, err := r.queries.ListAppointments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	out := make([]core.Appointment, 0, len(rows))
	for _, row := range rows {
		a, err := appointmentFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *SQLiteRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status core.AppointmentStatus) error {
	if !status.IsValid() {
		return core.ErrUnknownStatus
	}
	n, err := r.queries.UpdateAppointmentStatus(ctx, string(status), id.String())
	return checkAffected(n, err, "update appointment", id)
}

func (r *SQLiteRepository) CreatePayment(ctx context.Context, p core.Payment) error {
	err := r.queries.CreatePayment(ctx, Payment{
		ID:          p.ID.String(),
		PatientID:   p.PatientID.String(),
		Amount:      p.Amount.String(),
		PaymentDate: formatTime(p.PaymentDate),
		IsPaid:      p.IsPaid,
		Method:      p.Method,
	})
	if err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	slog.DebugContext(ctx, "Payment saved to SQLite", "id", p.ID, "amount", p.Amount.String(), "paid", p.IsPaid)
	return nil
}

func (r *SQLiteRepository) ListPayments(ctx context.Context) ([]core.Payment, error) {
	rows, err := r.queries.ListPayments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	out := make([]core.Payment, 0, len(rows))
	for _, row := range rows {
		p, err := paymentFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *SQLiteRepository) MarkPaymentPaid(ctx context.Context, id uuid.UUID) error {
	n, err := r.queries.MarkPaymentPaid(ctx, id.String())
	return checkAffected(n, err, "mark payment paid", id)
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) error {
	err := r.queries.CreateExpense(ctx, Expense{
		ID:          e.ID.String(),
		Amount:      e.Amount.String(),
		ExpenseDate: formatTime(e.ExpenseDate),
		Category:    string(e.Category),
		Description: e.Description,
	})
	if err != nil {
		return fmt.Errorf("create expense: %w", err)
	}
	slog.DebugContext(ctx, "Expense saved to SQLite", "id", e.ID, "amount", e.Amount.String(), "category", e.Category)
	return nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.queries.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	out := make([]core.Expense, 0, len(rows))
	for _, row := range rows {
		e, err := expenseFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	n, err := r.queries.DeleteExpense(ctx, id.String())
	return checkAffected(n, err, "delete expense", id)
}

// LoadDataset reads the four record collections inside one transaction so
// reports see a consistent snapshot.
func (r *SQLiteRepository) LoadDataset(ctx context.Context) (analytics.Dataset, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return analytics.Dataset{}, fmt.Errorf("begin dataset snapshot: %w", err)
	}
	defer tx.Rollback()

	txRepo := &SQLiteRepository{db: r.db, queries: r.queries.WithTx(tx)}

	var ds analytics.Dataset
	if ds.Payments, err = txRepo.ListPayments(ctx); err != nil {
		return analytics.Dataset{}, err
	}
	if ds.Expenses, err = txRepo.ListExpenses(ctx); err != nil {
		return analytics.Dataset{}, err
	}
	if ds.Patients, err = txRepo.ListPatients(ctx); err != nil {
		return analytics.Dataset{}, err
	}
	if ds.Appointments, err = txRepo.ListAppointments(ctx); err != nil {
		return analytics.Dataset{}, err
	}
	if err := tx.Commit(); err != nil {
		return analytics.Dataset{}, fmt.Errorf("commit dataset snapshot: %w", err)
	}
	return ds, nil
}

func (r *SQLiteRepository) CreateSchedule(ctx context.Context, s core.ReportSchedule) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("invalid schedule: %w", err)
	}
	row := ReportSchedule{
		ID:        s.ID.String(),
		Name:      s.Name,
		Every:     string(s.Every),
		Target:    s.Target,
		Active:    s.Active,
		AnchorDay: int64(s.AnchorDay),
		CreatedAt: formatTime(s.CreatedAt),
	}
	if !s.LastRunAt.IsZero() {
		row.LastRunAt = sql.NullString{String: formatTime(s.LastRunAt), Valid: true}
	}
	if err := r.queries.CreateSchedule(ctx, row); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	slog.InfoContext(ctx, "Report schedule saved", "id", s.ID, "name", s.Name, "every", s.Every)
	return nil
}

func (r *SQLiteRepository) ListActiveSchedules(ctx context.Context) ([]core.ReportSchedule, error) {
	rows, err := r.queries.ListActiveSchedules(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active schedules: %w", err)
	}
	out := make([]core.ReportSchedule, 0, len(rows))
	for _, row := range rows {
		s, err := scheduleFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *SQLiteRepository) UpdateScheduleLastRun(ctx context.Context, id uuid.UUID, at time.Time) error {
	n, err := r.queries.UpdateScheduleLastRun(ctx, formatTime(at), id.String())
	return checkAffected(n, err, "update schedule last run", id)
}

func patientFromRow(row Patient) (core.Patient, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return core.Patient{}, fmt.Errorf("patient %q: parse id: %w", row.ID, err)
	}
	created, err := parseTime(row.CreatedAt)
	if err != nil {
		return core.Patient{}, fmt.Errorf("patient %s: parse created_at: %w", row.ID, err)
	}
	return core.Patient{ID: id, FullName: row.FullName, CreatedAt: created}, nil
}

func appointmentFromRow(row Appointment) (core.Appointment, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return core.Appointment{}, fmt.Errorf("appointment %q: parse id: %w", row.ID, err)
	}
	patientID, err := uuid.Parse(row.PatientID)
	if err != nil {
		return core.Appointment{}, fmt.Errorf("appointment %s: parse patient id: %w", row.ID, err)
	}
	start, err := parseTime(row.StartTime)
	if err != nil {
		return core.Appointment{}, fmt.Errorf("appointment %s: parse start_time: %w", row.ID, err)
	}
	return core.Appointment{
		ID:        id,
		PatientID: patientID,
		StartTime: start,
		Status:    core.AppointmentStatus(row.Status),
	}, nil
}

func paymentFromRow(row Payment) (core.Payment, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return core.Payment{}, fmt.Errorf("payment %q: parse id: %w", row.ID, err)
	}
	patientID, err := uuid.Parse(row.PatientID)
	if err != nil {
		return core.Payment{}, fmt.Errorf("payment %s: parse patient id: %w", row.ID, err)
	}
	amount, err := decimal.NewFromString(row.Amount)
	if err != nil {
		return core.Payment{}, fmt.Errorf("payment %s: parse amount: %w", row.ID, err)
	}
	date, err := parseTime(row.PaymentDate)
	if err != nil {
		return core.Payment{}, fmt.Errorf("payment %s: parse payment_date: %w", row.ID, err)
	}
	return core.Payment{
		ID:          id,
		PatientID:   patientID,
		Amount:      amount,
		PaymentDate: date,
		IsPaid:      row.IsPaid,
		Method:      row.Method,
	}, nil
}

func expenseFromRow(row Expense) (core.Expense, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense %q: parse id: %w", row.ID, err)
	}
	amount, err := decimal.NewFromString(row.Amount)
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense %s: parse amount: %w", row.ID, err)
	}
	date, err := parseTime(row.ExpenseDate)
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense %s: parse expense_date: %w", row.ID, err)
	}
	return core.Expense{
		ID:          id,
		Amount:      amount,
		ExpenseDate: date,
		Category:    core.ExpenseCategory(row.Category),
		Description: row.Description,
	}, nil
}

func scheduleFromRow(row ReportSchedule) (core.ReportSchedule, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return core.ReportSchedule{}, fmt.Errorf("schedule %q: parse id: %w", row.ID, err)
	}
	created, err := parseTime(row.CreatedAt)
	if err != nil {
		return core.ReportSchedule{}, fmt.Errorf("schedule %s: parse created_at: %w", row.ID, err)
	}
	s := core.ReportSchedule{
		ID:        id,
		Name:      row.Name,
		Every:     core.Frequency(row.Every),
		Target:    row.Target,
		Active:    row.Active,
		AnchorDay: int(row.AnchorDay),
		CreatedAt: created,
	}
	if row.LastRunAt.Valid {
		if s.LastRunAt, err = parseTime(row.LastRunAt.String); err != nil {
			return core.ReportSchedule{}, fmt.Errorf("schedule %s: parse last_run_at: %w", row.ID, err)
		}
	}
	return s, nil
}
