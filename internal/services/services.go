package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/senyabanana/pharma-marketplace/internal/events"
	"github.com/senyabanana/pharma-marketplace/internal/metrics"
	"github.com/senyabanana/pharma-marketplace/internal/models"
	"github.com/senyabanana/pharma-marketplace/internal/notify"
	"github.com/senyabanana/pharma-marketplace/internal/repository"
	"github.com/senyabanana/pharma-marketplace/internal/utils"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
)

// Deps - общие зависимости сервисов. Каждый сервис использует своё подмножество.
type Deps struct {
	Tx        repository.Transactor
	Offers    repository.OfferRepository
	Tenders   repository.TenderRepository
	Responses repository.ResponseRepository
	Orders    repository.OrderRepository
	Notifier  *notify.Dispatcher
	Publisher events.Publisher
	Metrics   *metrics.Metrics
	Now       Clock
	Logger    zerolog.Logger
}

var tracer = otel.Tracer("github.com/senyabanana/pharma-marketplace/internal/services")

// Clock возвращает текущее время. В тестах подменяется фиксированным.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

// pagination разбирает limit и offset из строк запроса.
func pagination(limitStr, offsetStr string) (int, int, error) {
	limit, offset, err := utils.ParseLimitOffset(limitStr, offsetStr)
	if err != nil {
		return 0, 0, models.NewValidationError("limit/offset", err.Error())
	}
	return limit, offset, nil
}

func forbidden(action string) error {
	return fmt.Errorf("%w: %s", models.ErrForbidden, action)
}

// publish отправляет событие тендера. Ошибка публикации не прерывает операцию.
func publish(ctx context.Context, logger zerolog.Logger, pub events.Publisher, e events.Event) {
	if err := pub.Publish(ctx, e); err != nil {
		logger.Warn().Err(err).
			Str("type", string(e.Type)).
			Str("tenderId", e.TenderID).
			Msg("failed to publish tender event")
	}
}

// logFailure пишет в лог ошибки, которые клиент не может исправить сам.
func logFailure(logger zerolog.Logger, err error, msg string) {
	if errors.Is(err, models.ErrPersistence) || errors.Is(err, models.ErrReconciliationMismatch) {
		logger.Error().Err(err).Msg(msg)
	}
}
