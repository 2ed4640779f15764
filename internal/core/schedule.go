package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

type (
	// Frequency controls how often a scheduled report is exported.
	Frequency string

	// ReportSchedule is a standing request to export the finance report
	// for the last completed period of the given frequency.
	ReportSchedule struct {
		ID        uuid.UUID
		Name      string
		Every     Frequency
		Target    string // export sink, e.g. "sheets"
		Active    bool
		AnchorDay int // day of month (monthly/yearly) the export becomes due
		LastRunAt time.Time
		CreatedAt time.Time
	}
)

var ErrUnknownFrequency = errors.New("unknown schedule frequency")

func (f Frequency) IsValid() bool {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return true
	default:
		return false
	}
}

func (s ReportSchedule) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("empty schedule name")
	}
	if !s.Every.IsValid() {
		return ErrUnknownFrequency
	}
	if strings.TrimSpace(s.Target) == "" {
		return errors.New("empty export target")
	}
	if s.AnchorDay < 0 || s.AnchorDay > 31 {
		return errors.New("anchor day must be between 1 and 31")
	}
	return nil
}
