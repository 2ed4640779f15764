package http

import (
	"context"
	"net/http"

	"clinic/internal/core"
	"clinic/internal/log"
)

// writeList renders a record list, logging and mapping lister failures.
func writeList[T any](w http.ResponseWriter, r *http.Request, kind string, list func(context.Context) ([]T, error)) {
	items, err := list(r.Context())
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "List records failed",
			log.FieldRecordKind, kind,
			log.FieldOperation, log.OpList,
			log.FieldError, err.Error())
		ErrorFor(err).Write(w)
		return
	}
	if items == nil {
		items = []T{}
	}
	NewResponse().JSON(items).Write(w)
}

// writeCreated logs and renders a stored record, or maps the error.
func writeCreated(w http.ResponseWriter, r *http.Request, kind, id string, record interface{}, err error) {
	ctx := r.Context()
	if err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Create record rejected",
			log.FieldRecordKind, kind,
			log.FieldOperation, log.OpCreate,
			log.FieldError, err.Error())
		ErrorFor(err).Write(w)
		return
	}
	log.NewStructuredLogger(log.FromContext(ctx)).LogRecordCreated(ctx, kind, id)
	NewResponse().Status(http.StatusCreated).JSON(record).Write(w)
}

func parseBody(w http.ResponseWriter, r *http.Request) (*RequestBodyParser, bool) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		ErrorFor(err).Write(w)
		return nil, false
	}
	return p, true
}

func (s *Server) handleListPatients(w http.ResponseWriter, r *http.Request) {
	writeList(w, r, "patient", s.records.ListPatients)
}

func (s *Server) handleListAppointments(w http.ResponseWriter, r *http.Request) {
	writeList(w, r, "appointment", s.records.ListAppointments)
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	writeList(w, r, "payment", s.records.ListPayments)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	writeList(w, r, "expense", s.records.ListExpenses)
}

func (s *Server) handleCreatePatient(w http.ResponseWriter, r *http.Request) {
	body, ok := parseBody(w, r)
	if !ok {
		return
	}
	p, err := s.records.CreatePatient(r.Context(), core.Patient{FullName: body.Get("fullName")})
	writeCreated(w, r, "patient", p.ID.String(), p, err)
}

func (s *Server) handleCreateAppointment(w http.ResponseWriter, r *http.Request) {
	body, ok := parseBody(w, r)
	if !ok {
		return
	}

	a := core.Appointment{}
	var err error
	if a.PatientID, err = body.UUID("patientId"); err != nil {
		ErrorFor(err).Write(w)
		return
	}
	if a.StartTime, err = body.Time("startTime", s.loc, s.now()); err != nil {
		ErrorFor(err).Write(w)
		return
	}
	if v := body.Get("status"); v != "" {
		if a.Status, err = core.ParseAppointmentStatus(v); err != nil {
			ErrorFor(err).Write(w)
			return
		}
	}

	a, err = s.records.CreateAppointment(r.Context(), a)
	writeCreated(w, r, "appointment", a.ID.String(), a, err)
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	body, ok := parseBody(w, r)
	if !ok {
		return
	}

	p := core.Payment{IsPaid: body.Bool("isPaid"), Method: body.Get("method")}
	var err error
	if p.PatientID, err = body.UUID("patientId"); err != nil {
		ErrorFor(err).Write(w)
		return
	}
	if p.Amount, err = body.Amount("amount"); err != nil {
		ErrorFor(err).Write(w)
		return
	}
	if p.PaymentDate, err = body.Time("paymentDate", s.loc, s.now()); err != nil {
		ErrorFor(err).Write(w)
		return
	}

	p, err = s.records.CreatePayment(r.Context(), p)
	writeCreated(w, r, "payment", p.ID.String(), p, err)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	body, ok := parseBody(w, r)
	if !ok {
		return
	}

	e := core.Expense{Description: body.Get("description")}
	var err error
	if e.Amount, err = body.Amount("amount"); err != nil {
		ErrorFor(err).Write(w)
		return
	}
	if e.ExpenseDate, err = body.Time("expenseDate", s.loc, s.now()); err != nil {
		ErrorFor(err).Write(w)
		return
	}
	if e.Category, err = core.ParseExpenseCategory(body.Get("category")); err != nil {
		ErrorFor(err).Write(w)
		return
	}

	e, err = s.records.CreateExpense(r.Context(), e)
	writeCreated(w, r, "expense", e.ID.String(), e, err)
}

func (s *Server) handleMarkPaymentPaid(w http.ResponseWriter, r *http.Request) {
	id, err := PathUUID(r)
	if err == nil {
		err = s.records.MarkPaymentPaid(r.Context(), id)
	}
	writeUpdated(w, r, "payment", err)
}

func (s *Server) handleUpdateAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	id, err := PathUUID(r)
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	body, ok := parseBody(w, r)
	if !ok {
		return
	}
	status, err := core.ParseAppointmentStatus(body.Get("status"))
	if err == nil {
		err = s.records.UpdateAppointmentStatus(r.Context(), id, status)
	}
	writeUpdated(w, r, "appointment", err)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := PathUUID(r)
	if err == nil {
		err = s.records.DeleteExpense(r.Context(), id)
	}
	writeUpdated(w, r, "expense", err)
}

func writeUpdated(w http.ResponseWriter, r *http.Request, kind string, err error) {
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Update record failed",
			log.FieldRecordKind, kind,
			log.FieldOperation, log.OpUpdate,
			log.FieldError, err.Error())
		ErrorFor(err).Write(w)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}
