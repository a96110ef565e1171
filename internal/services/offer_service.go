package services

import (
	"context"

	"github.com/senyabanana/pharma-marketplace/internal/models"
	"github.com/senyabanana/pharma-marketplace/internal/pricing"

	"github.com/google/uuid"
)

// OfferService управляет промо-предложениями оптовиков.
type OfferService struct {
	Deps
}

// NewOfferService создаёт новый экземпляр OfferService.
func NewOfferService(d Deps) *OfferService {
	return &OfferService{Deps: d}
}

// CreateOffer публикует предложение от имени оптовика.
func (s *OfferService) CreateOffer(ctx context.Context, user models.ActingUser, req models.OfferRequest) (*models.Offer, error) {
	if !user.IsSeller() {
		return nil, forbidden("only sellers can publish offers")
	}
	offer := buildOffer(uuid.New().String(), user.ID, req)
	offer.CreatedAt = s.Now.now()
	if err := offer.Validate(); err != nil {
		return nil, err
	}

	err := s.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.Offers.CreateOffer(ctx, offer)
	})
	if err != nil {
		logFailure(s.Logger, err, "failed to create offer")
		return nil, err
	}
	s.Logger.Info().Str("offerId", offer.ID).Str("sellerId", offer.SellerID).Msg("offer created")
	return &offer, nil
}

// ReplaceOffer полностью заменяет предложение. Доступно только автору.
func (s *OfferService) ReplaceOffer(ctx context.Context, user models.ActingUser, offerID string, req models.OfferRequest) (*models.Offer, error) {
	current, err := s.Offers.GetOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if current.SellerID != user.ID {
		return nil, forbidden("only the offer owner can edit it")
	}

	offer := buildOffer(current.ID, current.SellerID, req)
	offer.CreatedAt = current.CreatedAt
	if err := offer.Validate(); err != nil {
		return nil, err
	}

	err = s.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.Offers.ReplaceOffer(ctx, offer)
	})
	if err != nil {
		logFailure(s.Logger, err, "failed to replace offer")
		return nil, err
	}
	return &offer, nil
}

// GetOffer возвращает предложение с признаком истечения.
func (s *OfferService) GetOffer(ctx context.Context, offerID string) (*models.OfferSnapshot, error) {
	offer, err := s.Offers.GetOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	return &models.OfferSnapshot{Offer: *offer, Expired: offer.IsExpired(s.Now.now())}, nil
}

// ListActiveOffers возвращает действующие предложения.
func (s *OfferService) ListActiveOffers(ctx context.Context, limitStr, offsetStr string) ([]models.Offer, error) {
	limit, offset, err := pagination(limitStr, offsetStr)
	if err != nil {
		return nil, err
	}
	return s.Offers.GetActiveOffers(ctx, s.Now.now(), limit, offset)
}

// Quote считает сумму предложения для выбора покупателя, не создавая заказ.
func (s *OfferService) Quote(ctx context.Context, offerID string, req models.PlaceOrderRequest) (*models.Quote, error) {
	offer, err := s.Offers.GetOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if err := pricing.ValidateSelection(*offer, req.SelectedPriorityProductIDs, req.WithoutPriority); err != nil {
		return nil, err
	}
	b := pricing.Calculate(*offer, req.SelectedPriorityProductIDs)
	return &models.Quote{
		OfferID:              offer.ID,
		Base:                 b.Base,
		PriorityContribution: b.PriorityContribution,
		Total:                b.Total,
	}, nil
}

func buildOffer(id, sellerID string, req models.OfferRequest) models.Offer {
	items := make([]models.OfferLineItem, 0, len(req.LineItems))
	for _, item := range req.LineItems {
		item.ID = uuid.New().String()
		items = append(items, item)
	}
	return models.Offer{
		ID:                 id,
		SellerID:           sellerID,
		Type:               req.Type,
		StartDate:          req.StartDate.UTC(),
		EndDate:            req.EndDate.UTC(),
		MinPurchaseAmount:  req.MinPurchaseAmount,
		CustomTotalPrice:   req.CustomTotalPrice,
		MaxQuotaSelections: req.MaxQuotaSelections,
		Comment:            req.Comment,
		LineItems:          items,
	}
}

