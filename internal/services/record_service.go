package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"clinic/internal/amqp"
	"clinic/internal/core"
	"clinic/internal/sheets"
)

// ExportPublisher queues a report export. *amqp.Client and the in-process
// export worker both satisfy it.
type ExportPublisher interface {
	PublishReportExport(ctx context.Context, msg *amqp.ReportExportMessage) error
}

// RecordStore is the storage a RecordService writes through.
type RecordStore interface {
	sheets.RecordWriter
	sheets.RecordLister
	sheets.RecordUpdater
}

// RecordService validates and stores clinic records. After every successful
// write it drops cached reports and queues a refresh of the affected month.
type RecordService struct {
	store     RecordStore
	publisher ExportPublisher
	target    string
	onChange  []func(context.Context)
	now       func() time.Time
}

// NewRecordService creates a record service. publisher may be nil, in which
// case writes are not followed by an export.
func NewRecordService(store RecordStore, publisher ExportPublisher, exportTarget string) *RecordService {
	if exportTarget == "" {
		exportTarget = amqp.TargetSheets
	}
	return &RecordService{
		store:     store,
		publisher: publisher,
		target:    exportTarget,
		now:       time.Now,
	}
}

// OnChange registers fn to run after each successful write.
func (s *RecordService) OnChange(fn func(context.Context)) {
	s.onChange = append(s.onChange, fn)
}

func (s *RecordService) CreatePatient(ctx context.Context, p core.Patient) (core.Patient, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	if err := p.Validate(); err != nil {
		return core.Patient{}, err
	}
	if err := s.store.CreatePatient(ctx, p); err != nil {
		return core.Patient{}, fmt.Errorf("save patient: %w", err)
	}
	s.changed(ctx, p.CreatedAt)
	return p, nil
}

func (s *RecordService) CreateAppointment(ctx context.Context, a core.Appointment) (core.Appointment, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = core.Pending
	}
	if err := a.Validate(); err != nil {
		return core.Appointment{}, err
	}
	if err := s.store.CreateAppointment(ctx, a); err != nil {
		return core.Appointment{}, fmt.Errorf("save appointment: %w", err)
	}
	s.changed(ctx, a.StartTime)
	return a, nil
}

func (s *RecordService) CreatePayment(ctx context.Context, p core.Payment) (core.Payment, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if err := p.Validate(); err != nil {
		return core.Payment{}, err
	}
	if err := s.store.CreatePayment(ctx, p); err != nil {
		return core.Payment{}, fmt.Errorf("save payment: %w", err)
	}
	s.changed(ctx, p.PaymentDate)
	return p, nil
}

func (s *RecordService) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if err := s.store.CreateExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	s.changed(ctx, e.ExpenseDate)
	return e, nil
}

// MarkPaymentPaid flags a payment as collected so it starts counting as revenue.
func (s *RecordService) MarkPaymentPaid(ctx context.Context, id uuid.UUID) error {
	payments, err := s.store.ListPayments(ctx)
	if err != nil {
		return fmt.Errorf("list payments: %w", err)
	}
	at := s.now()
	for _, p := range payments {
		if p.ID == id {
			at = p.PaymentDate
			break
		}
	}
	if err := s.store.MarkPaymentPaid(ctx, id); err != nil {
		return err
	}
	s.changed(ctx, at)
	return nil
}

func (s *RecordService) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status core.AppointmentStatus) error {
	if !status.IsValid() {
		return core.ErrUnknownStatus
	}
	appointments, err := s.store.ListAppointments(ctx)
	if err != nil {
		return fmt.Errorf("list appointments: %w", err)
	}
	at := s.now()
	for _, a := range appointments {
		if a.ID == id {
			at = a.StartTime
			break
		}
	}
	if err := s.store.UpdateAppointmentStatus(ctx, id, status); err != nil {
		return err
	}
	s.changed(ctx, at)
	return nil
}

func (s *RecordService) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	expenses, err := s.store.ListExpenses(ctx)
	if err != nil {
		return fmt.Errorf("list expenses: %w", err)
	}
	at := s.now()
	for _, e := range expenses {
		if e.ID == id {
			at = e.ExpenseDate
			break
		}
	}
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return err
	}
	s.changed(ctx, at)
	return nil
}

// changed runs change hooks and queues an export of the month containing
// at. Publishing failures are logged; the write has already succeeded.
func (s *RecordService) changed(ctx context.Context, at time.Time) {
	for _, fn := range s.onChange {
		fn(ctx)
	}
	if s.publisher == nil {
		return
	}
	msg := amqp.MonthExportMessage(at, s.target, amqp.ReasonRecordChanged)
	if err := s.publisher.PublishReportExport(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish report export",
			"from", msg.From.Format(time.DateOnly),
			"to", msg.To.Format(time.DateOnly),
			"error", err)
	}
}
