package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/senyabanana/pharma-marketplace/internal/events"
	"github.com/senyabanana/pharma-marketplace/internal/models"
	"github.com/senyabanana/pharma-marketplace/internal/notify"
	"github.com/senyabanana/pharma-marketplace/internal/tender"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Результаты отправки отклика для метрик.
const (
	outcomeCreated   = "created"
	outcomeUpdated   = "updated"
	outcomeUnchanged = "unchanged"
	outcomeRejected  = "rejected"
)

// ResponseService ведёт отклики оптовиков на тендеры.
type ResponseService struct {
	Deps
}

// NewResponseService создаёт новый экземпляр ResponseService.
func NewResponseService(d Deps) *ResponseService {
	return &ResponseService{Deps: d}
}

// SubmitResponse создаёт или заменяет отклик оптовика на тендер.
//
// ExpectedVersion = 0 создаёт отклик; повтор с тем же набором строк возвращает существующий отклик
// без изменений. Для обновления ExpectedVersion должен совпадать с текущей версией, иначе ErrStaleResponse.
func (s *ResponseService) SubmitResponse(ctx context.Context, user models.ActingUser, tenderID string, req models.ResponseRequest) (*models.TenderResponse, error) {
	ctx, span := tracer.Start(ctx, "ResponseService.SubmitResponse")
	defer span.End()
	span.SetAttributes(attribute.String("tender.id", tenderID), attribute.Int("expected.version", req.ExpectedVersion))

	if !user.IsSeller() {
		return nil, forbidden("only sellers can respond to tenders")
	}

	now := s.Now.now()
	var (
		result  models.TenderResponse
		outcome string
	)
	err := s.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		t, err := s.Tenders.GetTender(ctx, tenderID)
		if err != nil {
			return err
		}
		if err := tender.EnsureOpen(*t); err != nil {
			return err
		}

		existing, err := s.Responses.GetSellerResponse(ctx, t.ID, user.ID)
		switch {
		case errors.Is(err, models.ErrNotFound):
			existing = nil
		case err != nil:
			return err
		}

		responseID := uuid.New().String()
		if existing != nil {
			responseID = existing.ID
		}
		items, err := tender.BuildResponseItems(*t, responseID, req.Items, now)
		if err != nil {
			return err
		}

		if existing == nil {
			if req.ExpectedVersion != 0 {
				return fmt.Errorf("%w: no response exists yet, expected version must be 0", models.ErrStaleResponse)
			}
			result = models.TenderResponse{
				ID:        responseID,
				TenderID:  t.ID,
				SellerID:  user.ID,
				Version:   1,
				CreatedAt: now,
				UpdatedAt: now,
			}
			inserted, err := s.Responses.InsertResponse(ctx, result)
			if err != nil {
				return err
			}
			if !inserted {
				return fmt.Errorf("%w: response was created concurrently", models.ErrStaleResponse)
			}
			outcome = outcomeCreated
		} else {
			result = *existing
			if req.ExpectedVersion == 0 {
				if sameItems(existing.Items, items) {
					outcome = outcomeUnchanged
					return nil
				}
				return fmt.Errorf("%w: response already exists at version %d", models.ErrStaleResponse, existing.Version)
			}
			if req.ExpectedVersion != existing.Version {
				return fmt.Errorf("%w: expected version %d, current %d", models.ErrStaleResponse, req.ExpectedVersion, existing.Version)
			}
			bumped, err := s.Responses.BumpResponseVersion(ctx, existing.ID, existing.Version, now)
			if err != nil {
				return err
			}
			if !bumped {
				return fmt.Errorf("%w: response was updated concurrently", models.ErrStaleResponse)
			}
			result.Version++
			result.UpdatedAt = now
			outcome = outcomeUpdated
		}

		result.Items = items
		return s.Responses.ReplaceResponseItems(ctx, result.ID, items)
	})
	if err != nil {
		s.Metrics.ResponsesSubmitted.WithLabelValues(outcomeRejected).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "response rejected")
		logFailure(s.Logger, err, "failed to submit tender response")
		return nil, err
	}

	s.Metrics.ResponsesSubmitted.WithLabelValues(outcome).Inc()
	if outcome == outcomeUnchanged {
		return &result, nil
	}

	eventType := events.ResponseCreated
	if outcome == outcomeUpdated {
		eventType = events.ResponseUpdated
	}
	publish(ctx, s.Logger, s.Publisher, events.New(eventType, result.TenderID, result.ID, now))

	if t, err := s.Tenders.GetTender(ctx, result.TenderID); err == nil {
		s.Notifier.Dispatch(notify.Notification{
			Event:     notify.ResponseSubmitted,
			Recipient: t.BuyerID,
			Fields: map[string]string{
				"tenderId":    t.ID,
				"responseId":  result.ID,
				"companyName": user.CompanyName,
			},
			CreatedAt: now,
		})
	}

	s.Logger.Info().
		Str("tenderId", result.TenderID).
		Str("responseId", result.ID).
		Int("version", result.Version).
		Str("outcome", outcome).
		Msg("tender response submitted")
	return &result, nil
}

// ListResponses возвращает отклики на тендер. Покупатель видит все, оптовик - только свой.
func (s *ResponseService) ListResponses(ctx context.Context, user models.ActingUser, tenderID string) ([]models.TenderResponse, error) {
	t, err := s.Tenders.GetTender(ctx, tenderID)
	if err != nil {
		return nil, err
	}
	switch {
	case user.IsAdmin() || t.BuyerID == user.ID:
		return s.Responses.GetTenderResponses(ctx, t.ID)
	case user.IsSeller():
		own, err := s.Responses.GetSellerResponse(ctx, t.ID, user.ID)
		if errors.Is(err, models.ErrNotFound) {
			return []models.TenderResponse{}, nil
		}
		if err != nil {
			return nil, err
		}
		return []models.TenderResponse{*own}, nil
	default:
		return nil, forbidden("responses are visible to the tender owner only")
	}
}

// GetResponse возвращает отклик владельцу тендера или автору отклика.
func (s *ResponseService) GetResponse(ctx context.Context, user models.ActingUser, tenderID, responseID string) (*models.TenderResponse, error) {
	t, err := s.Tenders.GetTender(ctx, tenderID)
	if err != nil {
		return nil, err
	}
	resp, err := s.Responses.GetResponse(ctx, responseID)
	if err != nil {
		return nil, err
	}
	if resp.TenderID != t.ID {
		return nil, fmt.Errorf("response %s of tender %s: %w", responseID, t.ID, models.ErrNotFound)
	}
	if !user.IsAdmin() && t.BuyerID != user.ID && resp.SellerID != user.ID {
		return nil, forbidden("responses are sealed")
	}
	return resp, nil
}

// sameItems сравнивает наборы строк без учёта идентификаторов.
func sameItems(a, b []models.TenderResponseItem) bool {
	if len(a) != len(b) {
		return false
	}
	byItem := make(map[string]models.TenderResponseItem, len(a))
	for _, item := range a {
		byItem[item.TenderItemID] = item
	}
	for _, item := range b {
		other, ok := byItem[item.TenderItemID]
		if !ok ||
			!other.Price.Equal(item.Price) ||
			!other.DeliveryDate.Equal(item.DeliveryDate) ||
			!equalDecimalPtr(other.FreeUnitsPercentage, item.FreeUnitsPercentage) ||
			!equalTimePtr(other.ExpiryDate, item.ExpiryDate) {
			return false
		}
	}
	return true
}

func equalDecimalPtr(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
