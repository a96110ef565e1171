package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// LogNotifier пишет уведомления в лог. Используется, когда брокеры Kafka не заданы.
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify реализует Notifier.
func (l *LogNotifier) Notify(_ context.Context, n Notification) error {
	l.logger.Info().
		Str("event", n.Event).
		Str("recipient", n.Recipient).
		Interface("fields", n.Fields).
		Msg("notification")
	return nil
}
