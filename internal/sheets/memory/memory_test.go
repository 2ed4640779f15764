package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"clinic/internal/analytics"
	"clinic/internal/core"
)

func TestMemoryStoreCreateAndList(t *testing.T) {
	ctx := context.Background()
	s := New()
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	if err := s.CreatePayment(ctx, core.Payment{ID: uuid.New(), PatientID: uuid.New(), Amount: decimal.NewFromInt(100), PaymentDate: at}); err != nil {
		t.Fatalf("create payment: %v", err)
	}
	exp := core.Expense{ID: uuid.New(), Amount: decimal.NewFromInt(40), ExpenseDate: at, Category: core.Rent}
	if err := s.CreateExpense(ctx, exp); err != nil {
		t.Fatalf("create expense: %v", err)
	}

	ds, err := s.LoadDataset(ctx)
	if err != nil || len(ds.Payments) != 1 || len(ds.Expenses) != 1 {
		t.Fatalf("unexpected dataset: %+v err=%v", ds, err)
	}

	// snapshots do not alias the store
	ds.Payments[0].IsPaid = true
	again, _ := s.ListPayments(ctx)
	if again[0].IsPaid {
		t.Fatal("dataset mutation leaked into store")
	}

	if err := s.MarkPaymentPaid(ctx, again[0].ID); err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	again, _ = s.ListPayments(ctx)
	if !again[0].IsPaid {
		t.Fatal("payment not marked paid")
	}

	if err := s.DeleteExpense(ctx, exp.ID); err != nil {
		t.Fatalf("delete expense: %v", err)
	}
	if err := s.DeleteExpense(ctx, exp.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("second delete: got %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreAppointmentStatus(t *testing.T) {
	ctx := context.Background()
	s := New()
	a := core.Appointment{ID: uuid.New(), PatientID: uuid.New(), StartTime: time.Now(), Status: core.Pending}
	_ = s.CreateAppointment(ctx, a)

	if err := s.UpdateAppointmentStatus(ctx, a.ID, "LATE"); !errors.Is(err, core.ErrUnknownStatus) {
		t.Fatalf("got %v, want ErrUnknownStatus", err)
	}
	if err := s.UpdateAppointmentStatus(ctx, a.ID, core.Confirmed); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := s.ListAppointments(ctx)
	if got[0].Status != core.Confirmed {
		t.Fatalf("status = %s, want CONFIRMED", got[0].Status)
	}
	if err := s.UpdateAppointmentStatus(ctx, uuid.New(), core.Cancelled); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreSchedulesAndReports(t *testing.T) {
	ctx := context.Background()
	s := New()
	on := core.ReportSchedule{ID: uuid.New(), Name: "weekly", Every: core.Weekly, Target: "sheets", Active: true}
	off := core.ReportSchedule{ID: uuid.New(), Name: "paused", Every: core.Daily, Target: "sheets"}
	_ = s.CreateSchedule(ctx, on)
	_ = s.CreateSchedule(ctx, off)

	active, _ := s.ListActiveSchedules(ctx)
	if len(active) != 1 || active[0].ID != on.ID {
		t.Fatalf("unexpected active schedules: %+v", active)
	}
	ran := time.Date(2024, 6, 3, 6, 0, 0, 0, time.UTC)
	if err := s.UpdateScheduleLastRun(ctx, on.ID, ran); err != nil {
		t.Fatalf("update last run: %v", err)
	}
	active, _ = s.ListActiveSchedules(ctx)
	if !active[0].LastRunAt.Equal(ran) {
		t.Fatalf("LastRunAt = %v, want %v", active[0].LastRunAt, ran)
	}

	ref, err := s.WriteReport(ctx, analytics.FinanceReport{}, "en")
	if err != nil || ref != "mem:1" || len(s.Reports()) != 1 {
		t.Fatalf("unexpected write: ref=%q err=%v", ref, err)
	}
}

func TestNewFromFilesSeeds(t *testing.T) {
	dir := t.TempDir()

	// No files -> empty store
	s, err := NewFromFiles(dir)
	if err != nil {
		t.Fatalf("empty dir: %v", err)
	}
	ds, _ := s.LoadDataset(context.Background())
	if len(ds.Payments)+len(ds.Expenses)+len(ds.Patients)+len(ds.Appointments) != 0 {
		t.Fatalf("expected empty dataset, got %+v", ds)
	}

	mustWrite := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	mustWrite(PaymentsFile, `[{"id":"0b6f2a8e-4a3b-4d8c-9f1e-0c2d3e4f5a6b","patientId":"1c7e3b9f-5b4c-4e9d-8a2f-1d3e4f5a6b7c","amount":"150.50","paymentDate":"2024-06-03T10:00:00Z","isPaid":true}]`)
	mustWrite(ExpensesFile, `[{"id":"2d8f4c0a-6c5d-4fae-9b3a-2e4f5a6b7c8d","amount":"80","expenseDate":"2024-06-04T00:00:00Z","category":"UTILITIES"}]`)

	s, err = NewFromFiles(dir)
	if err != nil {
		t.Fatalf("seeded dir: %v", err)
	}
	ds, _ = s.LoadDataset(context.Background())
	if len(ds.Payments) != 1 || !ds.Payments[0].Amount.Equal(decimal.RequireFromString("150.50")) {
		t.Fatalf("unexpected payments: %+v", ds.Payments)
	}
	if len(ds.Expenses) != 1 || ds.Expenses[0].Category != core.Utilities {
		t.Fatalf("unexpected expenses: %+v", ds.Expenses)
	}

	mustWrite(ExpensesFile, `[{"id":"2d8f4c0a-6c5d-4fae-9b3a-2e4f5a6b7c8d","amount":"80","expenseDate":"2024-06-04T00:00:00Z","category":"FOOD"}]`)
	if _, err := NewFromFiles(dir); !errors.Is(err, core.ErrUnknownCategory) {
		t.Fatalf("got %v, want ErrUnknownCategory", err)
	}

	mustWrite(ExpensesFile, `{`)
	if _, err := NewFromFiles(dir); err == nil {
		t.Fatal("expected parse error")
	}
}
