// Package tender содержит правила жизненного цикла тендера и приёма откликов оптовиков.
package tender

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/senyabanana/pharma-marketplace/internal/models"

	"github.com/google/uuid"
)

const (
	// ReopenExtension - на сколько продлевается просроченный срок при повторном открытии.
	ReopenExtension = 7 * 24 * time.Hour
	// CloneDeadline - срок нового тендера, созданного копированием.
	CloneDeadline = 14 * 24 * time.Hour
	// CloneTitleSuffix добавляется к названию копии.
	CloneTitleSuffix = " (copy)"
)

var allowedStatusTransition = map[models.TenderStatus][]models.TenderStatus{
	models.OpenTender:     {models.ClosedTender, models.CanceledTender},
	models.ClosedTender:   {models.OpenTender},
	models.CanceledTender: {models.OpenTender},
}

// CanTransition проверяет переход статуса по таблице допустимых переходов.
func CanTransition(from, to models.TenderStatus) bool {
	return slices.Contains(allowedStatusTransition[from], to)
}

// IsExpired - тендер открыт, но срок прошёл. Только для отображения, не хранится.
func IsExpired(t models.Tender, now time.Time) bool {
	return t.Status == models.OpenTender && now.After(t.Deadline)
}

// Snapshot возвращает тендер с производным признаком истечения.
func Snapshot(t models.Tender, now time.Time) models.TenderSnapshot {
	return models.TenderSnapshot{Tender: t, Expired: IsExpired(t, now)}
}

// EnsureOpen разрешает сообщения и отклики только для открытого тендера.
// Истёкший, но открытый тендер продолжает их принимать.
func EnsureOpen(t models.Tender) error {
	if t.Status != models.OpenTender {
		return fmt.Errorf("%w: tender %s is %s", models.ErrTenderNotOpen, t.ID, t.Status)
	}
	return nil
}

// New создаёт открытый тендер покупателя со списком товаров.
func New(buyerID string, req models.TenderRequest, now time.Time) (models.Tender, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return models.Tender{}, models.NewValidationError("title", "is required")
	}
	if strings.TrimSpace(req.Wilaya) == "" {
		return models.Tender{}, models.NewValidationError("wilaya", "is required")
	}
	if !req.Deadline.After(now) {
		return models.Tender{}, models.NewValidationError("deadline", "must be in the future")
	}
	if len(req.Items) == 0 {
		return models.Tender{}, models.NewValidationError("items", "at least one item is required")
	}

	id := uuid.New().String()
	items := make([]models.TenderItem, 0, len(req.Items))
	seen := make(map[string]bool, len(req.Items))
	for _, it := range req.Items {
		if it.ProductID == "" {
			return models.Tender{}, models.NewValidationError("items.productId", "is required")
		}
		if seen[it.ProductID] {
			return models.Tender{}, models.NewValidationError("items.productId", "duplicate product "+it.ProductID)
		}
		seen[it.ProductID] = true
		if it.Quantity <= 0 {
			return models.Tender{}, models.NewValidationError("items.quantity", "must be positive")
		}
		items = append(items, models.TenderItem{
			ID:        uuid.New().String(),
			TenderID:  id,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		})
	}

	return models.Tender{
		ID:         id,
		BuyerID:    buyerID,
		Title:      title,
		Wilaya:     strings.TrimSpace(req.Wilaya),
		Deadline:   req.Deadline.UTC(),
		IsPublic:   req.IsPublic,
		Status:     models.OpenTender,
		PublicLink: publicLink(),
		Items:      items,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Close закрывает открытый тендер.
func Close(t *models.Tender, now time.Time) error {
	return leaveOpen(t, models.ClosedTender, now)
}

// Cancel отменяет открытый тендер.
func Cancel(t *models.Tender, now time.Time) error {
	return leaveOpen(t, models.CanceledTender, now)
}

func leaveOpen(t *models.Tender, to models.TenderStatus, now time.Time) error {
	if err := EnsureOpen(*t); err != nil {
		return err
	}
	t.Status = to
	t.UpdatedAt = now
	return nil
}

// Reopen возвращает закрытый или отменённый тендер в статус Open.
// Просроченный срок сдвигается на now + 7 дней, будущий остаётся прежним.
func Reopen(t *models.Tender, now time.Time) error {
	if !CanTransition(t.Status, models.OpenTender) {
		return models.NewValidationError("status", fmt.Sprintf("cannot reopen a tender in status %s", t.Status))
	}
	if t.Deadline.Before(now) {
		t.Deadline = now.Add(ReopenExtension)
	}
	t.Status = models.OpenTender
	t.UpdatedAt = now
	return nil
}

// Clone создаёт новый открытый тендер с тем же списком товаров и сроком now + 14 дней.
// Отклики и сообщения не копируются.
func Clone(src models.Tender, now time.Time) models.Tender {
	id := uuid.New().String()
	items := make([]models.TenderItem, 0, len(src.Items))
	for _, it := range src.Items {
		items = append(items, models.TenderItem{
			ID:        uuid.New().String(),
			TenderID:  id,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		})
	}
	return models.Tender{
		ID:         id,
		BuyerID:    src.BuyerID,
		Title:      src.Title + CloneTitleSuffix,
		Wilaya:     src.Wilaya,
		Deadline:   now.Add(CloneDeadline),
		IsPublic:   src.IsPublic,
		Status:     models.OpenTender,
		PublicLink: publicLink(),
		Items:      items,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func publicLink() string {
	return "/tenders/public/" + uuid.New().String()
}
