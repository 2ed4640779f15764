package sheets

import (
	"context"
	"time"

	"github.com/google/uuid"

	"clinic/internal/analytics"
	"clinic/internal/core"
)

// Ports for outbound adapters.
type (
	RecordWriter interface {
		CreatePatient(ctx context.Context, p core.Patient) error
		CreateAppointment(ctx context.Context, a core.Appointment) error
		CreatePayment(ctx context.Context, p core.Payment) error
		CreateExpense(ctx context.Context, e core.Expense) error
	}

	RecordLister interface {
		ListPatients(ctx context.Context) ([]core.Patient, error)
		ListAppointments(ctx context.Context) ([]core.Appointment, error)
		ListPayments(ctx context.Context) ([]core.Payment, error)
		ListExpenses(ctx context.Context) ([]core.Expense, error)
	}

	// RecordUpdater mutates existing records. Missing ids yield core.ErrNotFound.
	RecordUpdater interface {
		MarkPaymentPaid(ctx context.Context, id uuid.UUID) error
		UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status core.AppointmentStatus) error
		DeleteExpense(ctx context.Context, id uuid.UUID) error
	}

	// DatasetLoader returns a consistent snapshot of all records for reporting.
	DatasetLoader interface {
		LoadDataset(ctx context.Context) (analytics.Dataset, error)
	}

	ScheduleStore interface {
		CreateSchedule(ctx context.Context, s core.ReportSchedule) error
		ListActiveSchedules(ctx context.Context) ([]core.ReportSchedule, error)
		UpdateScheduleLastRun(ctx context.Context, id uuid.UUID, at time.Time) error
	}

	// ReportWriter publishes a computed report to an external sink.
	ReportWriter interface {
		WriteReport(ctx context.Context, r analytics.FinanceReport, locale string) (ref string, err error)
	}
)
