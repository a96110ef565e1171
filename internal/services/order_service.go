package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/senyabanana/pharma-marketplace/internal/models"
	"github.com/senyabanana/pharma-marketplace/internal/notify"
	"github.com/senyabanana/pharma-marketplace/internal/orders"
	"github.com/senyabanana/pharma-marketplace/internal/pricing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// OrderService создаёт заказы по предложениям и принятым откликам.
type OrderService struct {
	Deps
}

// NewOrderService создаёт новый экземпляр OrderService.
func NewOrderService(d Deps) *OrderService {
	return &OrderService{Deps: d}
}

// PlaceOfferOrder создаёт заказ по предложению с выбором приоритетных товаров покупателя.
func (s *OrderService) PlaceOfferOrder(ctx context.Context, user models.ActingUser, offerID string, req models.PlaceOrderRequest) (*models.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.PlaceOfferOrder")
	defer span.End()
	span.SetAttributes(attribute.String("offer.id", offerID))

	if !user.IsBuyer() {
		return nil, forbidden("only buyers can order offers")
	}
	offer, err := s.Offers.GetOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	now := s.Now.now()
	if !offer.IsActive(now) {
		return nil, models.NewValidationError("offerId", fmt.Sprintf("offer %s is not active", offer.ID))
	}
	if err := pricing.ValidateSelection(*offer, req.SelectedPriorityProductIDs, req.WithoutPriority); err != nil {
		return nil, err
	}

	order, err := orders.FromOffer(*offer, user.ID, req.SelectedPriorityProductIDs, now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "order derivation failed")
		logFailure(s.Logger, err, "failed to derive order from offer")
		return nil, err
	}

	err = s.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.Orders.CreateOrder(ctx, order)
	})
	if err != nil {
		span.RecordError(err)
		logFailure(s.Logger, err, "failed to store offer order")
		return nil, err
	}

	s.Metrics.OrdersCreated.WithLabelValues(string(models.OfferOrder)).Inc()
	s.Logger.Info().
		Str("orderId", order.ID).
		Str("offerId", offer.ID).
		Str("total", order.TotalAmount.StringFixed(2)).
		Msg("offer order created")
	s.Notifier.Dispatch(orderCreated(order, now)...)
	return &order, nil
}

// AcceptTenderResponse принимает отклик: создаёт заказ и закрывает тендер в одной транзакции.
// Из двух одновременных принятий успешно только одно, второе получает ErrTenderAlreadyClosed.
// После Reopen тендер может получить новый заказ, но каждый отклик принимается не более одного раза.
func (s *OrderService) AcceptTenderResponse(ctx context.Context, user models.ActingUser, tenderID, responseID string) (*models.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.AcceptTenderResponse")
	defer span.End()
	span.SetAttributes(attribute.String("tender.id", tenderID), attribute.String("response.id", responseID))

	now := s.Now.now()
	var order models.Order
	err := s.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		t, err := s.Tenders.GetTender(ctx, tenderID)
		if err != nil {
			return err
		}
		if t.BuyerID != user.ID {
			return forbidden("only the tender owner can accept responses")
		}
		switch t.Status {
		case models.ClosedTender:
			return fmt.Errorf("%w: tender %s", models.ErrTenderAlreadyClosed, t.ID)
		case models.CanceledTender:
			return fmt.Errorf("%w: tender %s is %s", models.ErrTenderNotOpen, t.ID, t.Status)
		}

		resp, err := s.Responses.GetResponse(ctx, responseID)
		if err != nil {
			return err
		}
		if resp.TenderID != t.ID {
			return fmt.Errorf("response %s of tender %s: %w", responseID, t.ID, models.ErrNotFound)
		}
		ordered, err := s.Orders.ResponseOrderExists(ctx, resp.ID)
		if err != nil {
			return err
		}
		if ordered {
			return models.NewValidationError("responseId", fmt.Sprintf("response %s was already accepted", resp.ID))
		}

		order, err = orders.FromTenderResponse(*t, *resp, now)
		if err != nil {
			return err
		}

		closed, err := s.Tenders.TransitionTender(ctx, t.ID, models.OpenTender, models.ClosedTender, t.Deadline, now)
		if err != nil {
			return err
		}
		if !closed {
			return fmt.Errorf("%w: tender %s", models.ErrTenderAlreadyClosed, t.ID)
		}
		return s.Orders.CreateOrder(ctx, order)
	})
	if err != nil {
		if errors.Is(err, models.ErrTenderAlreadyClosed) {
			s.Metrics.AcceptanceConflicts.Inc()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "acceptance failed")
		logFailure(s.Logger, err, "failed to accept tender response")
		return nil, err
	}

	s.Metrics.OrdersCreated.WithLabelValues(string(models.TenderOrder)).Inc()
	s.Logger.Info().
		Str("orderId", order.ID).
		Str("tenderId", tenderID).
		Str("responseId", responseID).
		Msg("tender response accepted")

	notifications := orderCreated(order, now)
	notifications = append(notifications, notify.Notification{
		Event:     notify.ResponseAccepted,
		Recipient: order.SellerID,
		Fields:    map[string]string{"tenderId": tenderID, "responseId": responseID, "orderId": order.ID},
		CreatedAt: now,
	})
	s.Notifier.Dispatch(notifications...)
	return &order, nil
}

// GetOrder возвращает заказ покупателю, оптовику или администратору.
func (s *OrderService) GetOrder(ctx context.Context, user models.ActingUser, orderID string) (*models.Order, error) {
	order, err := s.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() && order.BuyerID != user.ID && order.SellerID != user.ID {
		return nil, forbidden("order belongs to other parties")
	}
	return order, nil
}

// ListOrders возвращает заказы, где пользователь покупатель или оптовик.
func (s *OrderService) ListOrders(ctx context.Context, user models.ActingUser, limitStr, offsetStr string) ([]models.Order, error) {
	limit, offset, err := pagination(limitStr, offsetStr)
	if err != nil {
		return nil, err
	}
	return s.Orders.GetUserOrders(ctx, user.ID, limit, offset)
}

func orderCreated(order models.Order, now time.Time) []notify.Notification {
	fields := map[string]string{
		"orderId": order.ID,
		"source":  string(order.Source),
		"total":   order.TotalAmount.StringFixed(2),
	}
	return []notify.Notification{
		{Event: notify.OrderCreated, Recipient: order.SellerID, Fields: fields, CreatedAt: now},
		{Event: notify.OrderCreated, Recipient: order.BuyerID, Fields: fields, CreatedAt: now},
	}
}
