package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"clinic/internal/analytics"
)

// Why an export was requested.
const (
	ReasonRecordChanged = "record_changed"
	ReasonScheduled     = "scheduled"
	ReasonManual        = "manual"
)

// TargetSheets routes an export to the Google Sheets writer.
const TargetSheets = "sheets"

var ErrInvalidMessage = errors.New("invalid report export message")

// ReportExportMessage asks a worker to build the finance report for
// [From, To] and write it to Target. The worker reloads the data itself, so
// the message carries no records.
type ReportExportMessage struct {
	ID        uuid.UUID `json:"id"`
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`
	Target    string    `json:"target"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

func NewReportExportMessage(from, to time.Time, target, reason string) *ReportExportMessage {
	return &ReportExportMessage{
		ID:        uuid.New(),
		From:      from,
		To:        to,
		Target:    target,
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

// MonthExportMessage covers the calendar month containing t.
func MonthExportMessage(t time.Time, target, reason string) *ReportExportMessage {
	y, m, _ := t.Date()
	from := analytics.DayStart(y, m, 1, t.Location())
	to := analytics.DayStart(y, m+1, 0, t.Location())
	return NewReportExportMessage(from, to, target, reason)
}

func (m *ReportExportMessage) Validate() error {
	if m.ID == uuid.Nil {
		return fmt.Errorf("%w: missing id", ErrInvalidMessage)
	}
	if m.From.IsZero() || m.To.IsZero() {
		return fmt.Errorf("%w: missing range", ErrInvalidMessage)
	}
	if m.From.After(m.To) {
		return fmt.Errorf("%w: from %s after to %s", ErrInvalidMessage,
			m.From.Format(time.DateOnly), m.To.Format(time.DateOnly))
	}
	if m.Target == "" {
		return fmt.Errorf("%w: missing target", ErrInvalidMessage)
	}
	return nil
}

func (m *ReportExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReportExportMessageFromJSON decodes and validates a message body.
func ReportExportMessageFromJSON(data []byte) (*ReportExportMessage, error) {
	var msg ReportExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
