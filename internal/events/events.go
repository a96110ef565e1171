// Package events сообщает подписчикам тендера о новых откликах и сообщениях.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Type - тип события тендера.
type Type string

const (
	ResponseCreated Type = "tender.response.created"
	ResponseUpdated Type = "tender.response.updated"
	MessageCreated  Type = "tender.message.created"
)

// Event - изменение в переговорах по тендеру. RecordID указывает на отклик или сообщение.
type Event struct {
	Type       Type      `json:"type"`
	TenderID   string    `json:"tenderId"`
	RecordID   string    `json:"recordId"`
	OccurredAt time.Time `json:"occurredAt"`
}

// New создаёт событие.
func New(t Type, tenderID, recordID string, at time.Time) Event {
	return Event{Type: t, TenderID: tenderID, RecordID: recordID, OccurredAt: at}
}

// Publisher публикует события тендера.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// LogPublisher пишет события в лог, когда Redis не настроен.
type LogPublisher struct {
	logger zerolog.Logger
}

func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish реализует Publisher.
func (p *LogPublisher) Publish(_ context.Context, e Event) error {
	p.logger.Debug().
		Str("type", string(e.Type)).
		Str("tenderId", e.TenderID).
		Str("recordId", e.RecordID).
		Msg("tender event")
	return nil
}

// Recorder запоминает опубликованные события.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish реализует Publisher.
func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// Events возвращает копию опубликованных событий.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
