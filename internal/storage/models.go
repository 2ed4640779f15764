package storage

import "database/sql"

// Row types mirror the tables one to one; conversion to core records lives
// in repository.go.

type Patient struct {
	ID        string
	FullName  string
	CreatedAt string
}

type Appointment struct {
	ID        string
	PatientID string
	StartTime string
	Status    string
}

type Payment struct {
	ID          string
	PatientID   string
	Amount      string
	PaymentDate string
	IsPaid      bool
	Method      string
}

type Expense struct {
	ID          string
	Amount      string
	ExpenseDate string
	Category    string
	Description string
}

type ReportSchedule struct {
	ID        string
	Name      string
	Every     string
	Target    string
	Active    bool
	AnchorDay int64
	LastRunAt sql.NullString
	CreatedAt string
}
