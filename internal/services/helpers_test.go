package services

import (
	"context"
	"errors"
	"sync"

	"clinic/internal/amqp"
)

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*amqp.ReportExportMessage
	err  error
}

func (p *recordingPublisher) PublishReportExport(_ context.Context, msg *amqp.ReportExportMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *recordingPublisher) published() []*amqp.ReportExportMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*amqp.ReportExportMessage(nil), p.msgs...)
}

var errBroker = errors.New("connection refused")
