package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	Operational ExpenseCategory = "OPERATIONAL"
	Salary      ExpenseCategory = "SALARY"
	Equipment   ExpenseCategory = "EQUIPMENT"
	Utilities   ExpenseCategory = "UTILITIES"
	Rent        ExpenseCategory = "RENT"
	Other       ExpenseCategory = "OTHER"
)

const (
	Pending   AppointmentStatus = "PENDING"
	Confirmed AppointmentStatus = "CONFIRMED"
	Cancelled AppointmentStatus = "CANCELLED"
)

type (
	ExpenseCategory   string
	AppointmentStatus string

	Payment struct {
		ID          uuid.UUID       `json:"id"`
		PatientID   uuid.UUID       `json:"patientId"`
		Amount      decimal.Decimal `json:"amount"`
		PaymentDate time.Time       `json:"paymentDate"`
		IsPaid      bool            `json:"isPaid"`
		Method      string          `json:"method,omitempty"` // cash, card, transfer...
	}

	Expense struct {
		ID          uuid.UUID       `json:"id"`
		Amount      decimal.Decimal `json:"amount"`
		ExpenseDate time.Time       `json:"expenseDate"`
		Category    ExpenseCategory `json:"category"`
		Description string          `json:"description,omitempty"`
	}

	Patient struct {
		ID        uuid.UUID `json:"id"`
		FullName  string    `json:"fullName"`
		CreatedAt time.Time `json:"createdAt"`
	}

	Appointment struct {
		ID        uuid.UUID         `json:"id"`
		PatientID uuid.UUID         `json:"patientId"`
		StartTime time.Time         `json:"startTime"`
		Status    AppointmentStatus `json:"status"`
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrMissingDate     = errors.New("date cannot be zero")
	ErrUnknownCategory = errors.New("unknown expense category")
	ErrUnknownStatus   = errors.New("unknown appointment status")
	ErrEmptyName       = errors.New("empty patient name")
	ErrMissingPatient  = errors.New("missing patient id")
	ErrNotFound        = errors.New("record not found")
	ErrTooLong         = errors.New("value too long")
)

// expenseCategories is the fixed reporting order of categories.
var expenseCategories = []ExpenseCategory{Operational, Salary, Equipment, Utilities, Rent, Other}

// ExpenseCategories returns the closed set of categories in their fixed order.
func ExpenseCategories() []ExpenseCategory {
	return append([]ExpenseCategory(nil), expenseCategories...)
}

func (c ExpenseCategory) IsValid() bool {
	for _, v := range expenseCategories {
		if c == v {
			return true
		}
	}
	return false
}

// ParseExpenseCategory accepts the enum code in any case.
func ParseExpenseCategory(s string) (ExpenseCategory, error) {
	c := ExpenseCategory(strings.ToUpper(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", ErrUnknownCategory
	}
	return c, nil
}

func (s AppointmentStatus) IsValid() bool {
	switch s {
	case Pending, Confirmed, Cancelled:
		return true
	default:
		return false
	}
}

// ParseAppointmentStatus accepts the enum code in any case.
func ParseAppointmentStatus(s string) (AppointmentStatus, error) {
	st := AppointmentStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", ErrUnknownStatus
	}
	return st, nil
}

func validateAmount(d decimal.Decimal) error {
	if !d.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

func (p Payment) Validate() error {
	if err := validateAmount(p.Amount); err != nil {
		return err
	}
	if p.PaymentDate.IsZero() {
		return ErrMissingDate
	}
	if p.PatientID == uuid.Nil {
		return ErrMissingPatient
	}
	return nil
}

func (e Expense) Validate() error {
	if err := validateAmount(e.Amount); err != nil {
		return err
	}
	if e.ExpenseDate.IsZero() {
		return ErrMissingDate
	}
	if !e.Category.IsValid() {
		return ErrUnknownCategory
	}
	if len(e.Description) > 200 {
		return fmt.Errorf("%w: description (max 200 characters)", ErrTooLong)
	}
	return nil
}

func (p Patient) Validate() error {
	if strings.TrimSpace(p.FullName) == "" {
		return ErrEmptyName
	}
	if len(p.FullName) > 120 {
		return fmt.Errorf("%w: name (max 120 characters)", ErrTooLong)
	}
	if p.CreatedAt.IsZero() {
		return ErrMissingDate
	}
	return nil
}

func (a Appointment) Validate() error {
	if a.PatientID == uuid.Nil {
		return ErrMissingPatient
	}
	if a.StartTime.IsZero() {
		return ErrMissingDate
	}
	if !a.Status.IsValid() {
		return ErrUnknownStatus
	}
	return nil
}
