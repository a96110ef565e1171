package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/senyabanana/pharma-marketplace/internal/events"
	"github.com/senyabanana/pharma-marketplace/internal/models"
	"github.com/senyabanana/pharma-marketplace/internal/notify"
	"github.com/senyabanana/pharma-marketplace/internal/tender"

	"github.com/google/uuid"
)

// TenderService управляет жизненным циклом тендеров и перепиской по ним.
type TenderService struct {
	Deps
}

// NewTenderService создаёт новый экземпляр TenderService.
func NewTenderService(d Deps) *TenderService {
	return &TenderService{Deps: d}
}

// CreateTender создаёт тендер от имени покупателя.
func (s *TenderService) CreateTender(ctx context.Context, user models.ActingUser, req models.TenderRequest) (*models.Tender, error) {
	if !user.IsBuyer() {
		return nil, forbidden("only buyers can create tenders")
	}
	t, err := tender.New(user.ID, req, s.Now.now())
	if err != nil {
		return nil, err
	}
	if err := s.store(ctx, t); err != nil {
		return nil, err
	}
	s.Logger.Info().Str("tenderId", t.ID).Str("buyerId", t.BuyerID).Msg("tender created")
	return &t, nil
}

// GetTender возвращает тендер с признаком истечения срока.
func (s *TenderService) GetTender(ctx context.Context, tenderID string) (*models.TenderSnapshot, error) {
	t, err := s.Tenders.GetTender(ctx, tenderID)
	if err != nil {
		return nil, err
	}
	snap := tender.Snapshot(*t, s.Now.now())
	return &snap, nil
}

// ListPublicTenders возвращает открытые публичные тендеры, при необходимости по вилаятам.
func (s *TenderService) ListPublicTenders(ctx context.Context, wilayas []string, limitStr, offsetStr string) ([]models.TenderSnapshot, error) {
	limit, offset, err := pagination(limitStr, offsetStr)
	if err != nil {
		return nil, err
	}
	tenders, err := s.Tenders.GetPublicTenders(ctx, wilayas, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.snapshots(tenders), nil
}

// ListMyTenders возвращает тендеры покупателя.
func (s *TenderService) ListMyTenders(ctx context.Context, user models.ActingUser, limitStr, offsetStr string) ([]models.TenderSnapshot, error) {
	if !user.IsBuyer() {
		return nil, forbidden("only buyers own tenders")
	}
	limit, offset, err := pagination(limitStr, offsetStr)
	if err != nil {
		return nil, err
	}
	tenders, err := s.Tenders.GetBuyerTenders(ctx, user.ID, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.snapshots(tenders), nil
}

// CloseTender закрывает открытый тендер.
func (s *TenderService) CloseTender(ctx context.Context, user models.ActingUser, tenderID string) (*models.Tender, error) {
	return s.leaveOpen(ctx, user, tenderID, tender.Close, notify.TenderClosed)
}

// CancelTender отменяет открытый тендер.
func (s *TenderService) CancelTender(ctx context.Context, user models.ActingUser, tenderID string) (*models.Tender, error) {
	return s.leaveOpen(ctx, user, tenderID, tender.Cancel, notify.TenderCanceled)
}

func (s *TenderService) leaveOpen(ctx context.Context, user models.ActingUser, tenderID string, transition func(*models.Tender, time.Time) error, event string) (*models.Tender, error) {
	t, err := s.owned(ctx, user, tenderID)
	if err != nil {
		return nil, err
	}
	now := s.Now.now()
	if err := transition(t, now); err != nil {
		return nil, err
	}

	changed, err := s.Tenders.TransitionTender(ctx, t.ID, models.OpenTender, t.Status, t.Deadline, now)
	if err != nil {
		logFailure(s.Logger, err, "failed to change tender status")
		return nil, err
	}
	if !changed {
		return nil, fmt.Errorf("%w: tender %s changed concurrently", models.ErrTenderNotOpen, t.ID)
	}
	s.Logger.Info().Str("tenderId", t.ID).Str("status", string(t.Status)).Msg("tender status changed")
	s.notifyBidders(ctx, *t, event, now)
	return t, nil
}

// ReopenTender возвращает закрытый или отменённый тендер в статус Open.
func (s *TenderService) ReopenTender(ctx context.Context, user models.ActingUser, tenderID string) (*models.Tender, error) {
	t, err := s.owned(ctx, user, tenderID)
	if err != nil {
		return nil, err
	}
	from := t.Status
	now := s.Now.now()
	if err := tender.Reopen(t, now); err != nil {
		return nil, err
	}

	changed, err := s.Tenders.TransitionTender(ctx, t.ID, from, models.OpenTender, t.Deadline, now)
	if err != nil {
		logFailure(s.Logger, err, "failed to reopen tender")
		return nil, err
	}
	if !changed {
		return nil, models.NewValidationError("status", "tender status changed concurrently, refresh and retry")
	}
	s.Logger.Info().Str("tenderId", t.ID).Time("deadline", t.Deadline).Msg("tender reopened")
	return t, nil
}

// CloneTender создаёт новый открытый тендер с тем же списком товаров.
func (s *TenderService) CloneTender(ctx context.Context, user models.ActingUser, tenderID string) (*models.Tender, error) {
	src, err := s.owned(ctx, user, tenderID)
	if err != nil {
		return nil, err
	}
	clone := tender.Clone(*src, s.Now.now())
	if err := s.store(ctx, clone); err != nil {
		return nil, err
	}
	s.Logger.Info().Str("tenderId", clone.ID).Str("sourceId", src.ID).Msg("tender cloned")
	return &clone, nil
}

// PostMessage добавляет сообщение в переговоры. Разрешено, пока тендер открыт.
func (s *TenderService) PostMessage(ctx context.Context, user models.ActingUser, tenderID string, req models.MessageRequest) (*models.TenderMessage, error) {
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, models.NewValidationError("body", "is required")
	}
	t, err := s.Tenders.GetTender(ctx, tenderID)
	if err != nil {
		return nil, err
	}
	if err := canNegotiate(user, *t); err != nil {
		return nil, err
	}
	if err := tender.EnsureOpen(*t); err != nil {
		return nil, err
	}

	msg := models.TenderMessage{
		ID:        uuid.New().String(),
		TenderID:  t.ID,
		AuthorID:  user.ID,
		Body:      body,
		CreatedAt: s.Now.now(),
	}
	if err := s.Tenders.CreateMessage(ctx, msg); err != nil {
		logFailure(s.Logger, err, "failed to store tender message")
		return nil, err
	}
	publish(ctx, s.Logger, s.Publisher, events.New(events.MessageCreated, t.ID, msg.ID, msg.CreatedAt))
	return &msg, nil
}

// ListMessages возвращает переписку по тендеру.
func (s *TenderService) ListMessages(ctx context.Context, user models.ActingUser, tenderID string) ([]models.TenderMessage, error) {
	t, err := s.Tenders.GetTender(ctx, tenderID)
	if err != nil {
		return nil, err
	}
	if err := canNegotiate(user, *t); err != nil {
		return nil, err
	}
	return s.Tenders.GetMessages(ctx, t.ID)
}

func (s *TenderService) store(ctx context.Context, t models.Tender) error {
	err := s.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.Tenders.CreateTender(ctx, t)
	})
	if err != nil {
		logFailure(s.Logger, err, "failed to store tender")
	}
	return err
}

// owned возвращает тендер, если пользователь - его покупатель.
func (s *TenderService) owned(ctx context.Context, user models.ActingUser, tenderID string) (*models.Tender, error) {
	t, err := s.Tenders.GetTender(ctx, tenderID)
	if err != nil {
		return nil, err
	}
	if t.BuyerID != user.ID {
		return nil, forbidden("only the tender owner can manage it")
	}
	return t, nil
}

func (s *TenderService) snapshots(tenders []models.Tender) []models.TenderSnapshot {
	now := s.Now.now()
	out := make([]models.TenderSnapshot, 0, len(tenders))
	for _, t := range tenders {
		out = append(out, tender.Snapshot(t, now))
	}
	return out
}

// notifyBidders уведомляет оптовиков, откликнувшихся на тендер.
func (s *TenderService) notifyBidders(ctx context.Context, t models.Tender, event string, now time.Time) {
	responses, err := s.Responses.GetTenderResponses(ctx, t.ID)
	if err != nil {
		s.Logger.Warn().Err(err).Str("tenderId", t.ID).Msg("failed to list bidders for notification")
		return
	}
	notifications := make([]notify.Notification, 0, len(responses))
	for _, resp := range responses {
		notifications = append(notifications, notify.Notification{
			Event:     event,
			Recipient: resp.SellerID,
			Fields:    map[string]string{"tenderId": t.ID, "title": t.Title},
			CreatedAt: now,
		})
	}
	s.Notifier.Dispatch(notifications...)
}

// canNegotiate - переписку ведут владелец тендера и оптовики; администратор может читать и писать.
func canNegotiate(user models.ActingUser, t models.Tender) error {
	if user.IsAdmin() || user.IsSeller() || t.BuyerID == user.ID {
		return nil
	}
	return forbidden("only the tender owner and sellers can negotiate")
}
