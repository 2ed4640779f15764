package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"clinic/internal/analytics"
	"clinic/internal/core"
)

// Store keeps every record in process memory. It backs local development
// and tests, and records written reports instead of sending them anywhere.
type Store struct {
	mu           sync.Mutex
	patients     []core.Patient
	appointments []core.Appointment
	payments     []core.Payment
	expenses     []core.Expense
	schedules    []core.ReportSchedule
	reports      []analytics.FinanceReport
}

func New() *Store {
	return &Store{}
}

// Seed file names read by NewFromFiles.
const (
	PatientsFile     = "patients.json"
	AppointmentsFile = "appointments.json"
	PaymentsFile     = "payments.json"
	ExpensesFile     = "expenses.json"
)

// NewFromFiles loads JSON seed arrays from base. Missing files leave the
// collection empty; malformed files or invalid records are an error.
func NewFromFiles(base string) (*Store, error) {
	s := New()
	if err := readSeed(filepath.Join(base, PatientsFile), &s.patients); err != nil {
		return nil, err
	}
	if err := readSeed(filepath.Join(base, AppointmentsFile), &s.appointments); err != nil {
		return nil, err
	}
	if err := readSeed(filepath.Join(base, PaymentsFile), &s.payments); err != nil {
		return nil, err
	}
	if err := readSeed(filepath.Join(base, ExpensesFile), &s.expenses); err != nil {
		return nil, err
	}

	for _, p := range s.patients {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("seed patient %s: %w", p.ID, err)
		}
	}
	for _, a := range s.appointments {
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("seed appointment %s: %w", a.ID, err)
		}
	}
	for _, p := range s.payments {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("seed payment %s: %w", p.ID, err)
		}
	}
	for _, e := range s.expenses {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("seed expense %s: %w", e.ID, err)
		}
	}
	return s, nil
}

func readSeed[T any](path string, out *[]T) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read seed %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse seed %s: %w", path, err)
	}
	return nil
}

func (s *Store) CreatePatient(_ context.Context, p core.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patients = append(s.patients, p)
	return nil
}

func (s *Store) CreateAppointment(_ context.Context, a core.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appointments = append(s.appointments, a)
	return nil
}

func (s *Store) CreatePayment(_ context.Context, p core.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments = append(s.payments, p)
	return nil
}

func (s *Store) CreateExpense(_ context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = append(s.expenses, e)
	return nil
}

func (s *Store) ListPatients(_ context.Context) ([]core.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Patient(nil), s.patients...), nil
}

func (s *Store) ListAppointments(_ context.Context) ([]core.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Appointment(nil), s.appointments...), nil
}

func (s *Store) ListPayments(_ context.Context) ([]core.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Payment(nil), s.payments...), nil
}

func (s *Store) ListExpenses(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Expense(nil), s.expenses...), nil
}

func (s *Store) MarkPaymentPaid(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.payments {
		if s.payments[i].ID == id {
			s.payments[i].IsPaid = true
			return nil
		}
	}
	return fmt.Errorf("mark payment paid %s: %w", id, core.ErrNotFound)
}

func (s *Store) UpdateAppointmentStatus(_ context.Context, id uuid.UUID, status core.AppointmentStatus) error {
	if !status.IsValid() {
		return core.ErrUnknownStatus
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.appointments {
		if s.appointments[i].ID == id {
			s.appointments[i].Status = status
			return nil
		}
	}
	return fmt.Errorf("update appointment %s: %w", id, core.ErrNotFound)
}

func (s *Store) DeleteExpense(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.expenses {
		if s.expenses[i].ID == id {
			s.expenses = append(s.expenses[:i], s.expenses[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("delete expense %s: %w", id, core.ErrNotFound)
}

// LoadDataset copies all collections under one lock.
func (s *Store) LoadDataset(_ context.Context) (analytics.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return analytics.Dataset{
		Payments:     append([]core.Payment(nil), s.payments...),
		Expenses:     append([]core.Expense(nil), s.expenses...),
		Patients:     append([]core.Patient(nil), s.patients...),
		Appointments: append([]core.Appointment(nil), s.appointments...),
	}, nil
}

func (s *Store) CreateSchedule(_ context.Context, sc core.ReportSchedule) error {
	if err := sc.Validate(); err != nil {
		return fmt.Errorf("invalid schedule: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules = append(s.schedules, sc)
	return nil
}

func (s *Store) ListActiveSchedules(_ context.Context) ([]core.ReportSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.ReportSchedule
	for _, sc := range s.schedules {
		if sc.Active {
			out = append(out, sc)
		}
	}
	return out, nil
}

func (s *Store) UpdateScheduleLastRun(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.schedules {
		if s.schedules[i].ID == id {
			s.schedules[i].LastRunAt = at
			return nil
		}
	}
	return fmt.Errorf("update schedule last run %s: %w", id, core.ErrNotFound)
}

// WriteReport stores the report and returns a synthetic reference.
func (s *Store) WriteReport(_ context.Context, r analytics.FinanceReport, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, r)
	return fmt.Sprintf("mem:%d", len(s.reports)), nil
}

// Reports returns the reports written so far.
func (s *Store) Reports() []analytics.FinanceReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]analytics.FinanceReport(nil), s.reports...)
}
