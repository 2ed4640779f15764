package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const createPatient = `
INSERT INTO patients (id, full_name, created_at) VALUES (?, ?, ?)
`

func (q *Queries) CreatePatient(ctx context.Context, arg Patient) error {
	_, err := q.db.ExecContext(ctx, createPatient, arg.ID, arg.FullName, arg.CreatedAt)
	return err
}

const listPatients = `
SELECT id, full_name, created_at FROM patients ORDER BY created_at, id
`

func (q *Queries) ListPatients(ctx context.Context) ([]Patient, error) {
	rows, err := q.db.QueryContext(ctx, listPatients)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Patient
	for rows.Next() {
		var i Patient
		if err := rows.Scan(&i.ID, &i.FullName, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createAppointment = `
INSERT INTO appointments (id, patient_id, start_time, status) VALUES (?, ?, ?, ?)
`

func (q *Queries) CreateAppointment(ctx context.Context, arg Appointment) error {
	_, err := q.db.ExecContext(ctx, createAppointment, arg.ID, arg.PatientID, arg.StartTime, arg.Status)
	return err
}

const listAppointments = `
SELECT id, patient_id, start_time, status FROM appointments ORDER BY start_time, id
`

func (q *Queries) ListAppointments(ctx context.Context) ([]Appointment, error) {
	rows, err := q.db.QueryContext(ctx, listAppointments)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Appointment
	for rows.Next() {
		var i Appointment
		if err := rows.Scan(&i.ID, &i.PatientID, &i.StartTime, &i.Status); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateAppointmentStatus = `
UPDATE appointments SET status = ? WHERE id = ?
`

func (q *Queries) UpdateAppointmentStatus(ctx context.Context, status, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateAppointmentStatus, status, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const createPayment = `
INSERT INTO payments (id, patient_id, amount, payment_date, is_paid, method) VALUES (?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreatePayment(ctx context.Context, arg Payment) error {
	_, err := q.db.ExecContext(ctx, createPayment,
		arg.ID, arg.PatientID, arg.Amount, arg.PaymentDate, arg.IsPaid, arg.Method)
	return err
}

const listPayments = `
SELECT id, patient_id, amount, payment_date, is_paid, method FROM payments ORDER BY payment_date, id
`

func (q *Queries) ListPayments(ctx context.Context) ([]Payment, error) {
	rows, err := q.db.QueryContext(ctx, listPayments)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Payment
	for rows.Next() {
		var i Payment
		if err := rows.Scan(&i.ID, &i.PatientID, &i.Amount, &i.PaymentDate, &i.IsPaid, &i.Method); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const markPaymentPaid = `
UPDATE payments SET is_paid = 1 WHERE id = ?
`

func (q *Queries) MarkPaymentPaid(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, markPaymentPaid, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const createExpense = `
INSERT INTO expenses (id, amount, expense_date, category, description) VALUES (?, ?, ?, ?, ?)
`

func (q *Queries) CreateExpense(ctx context.Context, arg Expense) error {
	_, err := q.db.ExecContext(ctx, createExpense,
		arg.ID, arg.Amount, arg.ExpenseDate, arg.Category, arg.Description)
	return err
}

const listExpenses = `
SELECT id, amount, expense_date, category, description FROM expenses ORDER BY expense_date, id
`

func (q *Queries) ListExpenses(ctx context.Context) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, listExpenses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Expense
	for rows.Next() {
		var i Expense
		if err := rows.Scan(&i.ID, &i.Amount, &i.ExpenseDate, &i.Category, &i.Description); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteExpense = `
DELETE FROM expenses WHERE id = ?
`

func (q *Queries) DeleteExpense(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteExpense, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const createSchedule = `
INSERT INTO report_schedules (id, name, every, target, active, anchor_day, last_run_at, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateSchedule(ctx context.Context, arg ReportSchedule) error {
	_, err := q.db.ExecContext(ctx, createSchedule,
		arg.ID, arg.Name, arg.Every, arg.Target, arg.Active, arg.AnchorDay, arg.LastRunAt, arg.CreatedAt)
	return err
}

const listActiveSchedules = `
SELECT id, name, every, target, active, anchor_day, last_run_at, created_at
FROM report_schedules WHERE active = 1 ORDER BY created_at, id
`

func (q *Queries) ListActiveSchedules(ctx context.Context) ([]ReportSchedule, error) {
	rows, err := q.db.QueryContext(ctx, listActiveSchedules)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ReportSchedule
	for rows.Next() {
		var i ReportSchedule
		if err := rows.Scan(&i.ID, &i.Name, &i.Every, &i.Target, &i.Active, &i.AnchorDay, &i.LastRunAt, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateScheduleLastRun = `
UPDATE report_schedules SET last_run_at = ? WHERE id = ?
`

func (q *Queries) UpdateScheduleLastRun(ctx context.Context, lastRunAt, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateScheduleLastRun, lastRunAt, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
