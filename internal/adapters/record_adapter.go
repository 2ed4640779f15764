package adapters

import (
	"context"

	"github.com/google/uuid"

	"clinic/internal/core"
	"clinic/internal/services"
	"clinic/internal/sheets"
)

// RecordAdapter adapts a backend lister and the RecordService into the
// single record API the HTTP handlers use. Reads go straight to the
// backend; writes go through the service so they are validated, invalidate
// cached reports and queue an export.
type RecordAdapter struct {
	lister  sheets.RecordLister
	service *services.RecordService
}

func NewRecordAdapter(lister sheets.RecordLister, service *services.RecordService) *RecordAdapter {
	return &RecordAdapter{
		lister:  lister,
		service: service,
	}
}

func (a *RecordAdapter) CreatePatient(ctx context.Context, p core.Patient) (core.Patient, error) {
	return a.service.CreatePatient(ctx, p)
}

func (a *RecordAdapter) CreateAppointment(ctx context.Context, ap core.Appointment) (core.Appointment, error) {
	return a.service.CreateAppointment(ctx, ap)
}

func (a *RecordAdapter) CreatePayment(ctx context.Context, p core.Payment) (core.Payment, error) {
	return a.service.CreatePayment(ctx, p)
}

func (a *RecordAdapter) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	return a.service.CreateExpense(ctx, e)
}

func (a *RecordAdapter) MarkPaymentPaid(ctx context.Context, id uuid.UUID) error {
	return a.service.MarkPaymentPaid(ctx, id)
}

func (a *RecordAdapter) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status core.AppointmentStatus) error {
	return a.service.UpdateAppointmentStatus(ctx, id, status)
}

func (a *RecordAdapter) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	return a.service.DeleteExpense(ctx, id)
}

func (a *RecordAdapter) ListPatients(ctx context.Context) ([]core.Patient, error) {
	return a.lister.ListPatients(ctx)
}

func (a *RecordAdapter) ListAppointments(ctx context.Context) ([]core.Appointment, error) {
	return a.lister.ListAppointments(ctx)
}

func (a *RecordAdapter) ListPayments(ctx context.Context) ([]core.Payment, error) {
	return a.lister.ListPayments(ctx)
}

func (a *RecordAdapter) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	return a.lister.ListExpenses(ctx)
}
