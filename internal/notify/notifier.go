// Package notify доставляет уведомления покупателям и оптовикам.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Типы уведомлений.
const (
	OrderCreated      = "order.created"
	ResponseSubmitted = "tender.response.submitted"
	ResponseAccepted  = "tender.response.accepted"
	TenderClosed      = "tender.closed"
	TenderCanceled    = "tender.canceled"
)

// Notification - уведомление одному получателю. Recipient - идентификатор пользователя.
type Notification struct {
	Event     string            `json:"event"`
	Recipient string            `json:"recipient"`
	Fields    map[string]string `json:"fields,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

// Notifier - канал доставки уведомлений.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Dispatcher отправляет уведомления в фоне. Ошибки доставки логируются и не возвращаются.
type Dispatcher struct {
	notifier  Notifier
	timeout   time.Duration
	logger    zerolog.Logger
	onFailure func(event string)
	wg        sync.WaitGroup
}

// NewDispatcher создаёт Dispatcher. onFailure может быть nil.
func NewDispatcher(n Notifier, timeout time.Duration, logger zerolog.Logger, onFailure func(event string)) *Dispatcher {
	return &Dispatcher{
		notifier:  n,
		timeout:   timeout,
		logger:    logger,
		onFailure: onFailure,
	}
}

// Dispatch отправляет уведомления параллельно, не дожидаясь результата.
func (d *Dispatcher) Dispatch(notifications ...Notification) {
	if len(notifications) == 0 {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		var g errgroup.Group
		for _, n := range notifications {
			g.Go(func() error {
				err := d.notifier.Notify(ctx, n)
				if err != nil {
					d.logger.Warn().Err(err).
						Str("event", n.Event).
						Str("recipient", n.Recipient).
						Msg("notification delivery failed")
					if d.onFailure != nil {
						d.onFailure(n.Event)
					}
				}
				return err
			})
		}
		_ = g.Wait()
	}()
}

// Wait ждёт завершения всех начатых отправок.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Recorder запоминает уведомления в памяти.
type Recorder struct {
	mu   sync.Mutex
	sent []Notification
}

// Notify реализует Notifier.
func (r *Recorder) Notify(_ context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

// Sent возвращает копию отправленных уведомлений.
func (r *Recorder) Sent() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.sent...)
}
