package tender

import (
	"time"

	"github.com/senyabanana/pharma-marketplace/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// FilterDrafts оставляет строки с ценой > 0 и датой поставки. Остальные - отказ оптовика от строки.
func FilterDrafts(drafts []models.ResponseItemDraft) []models.ResponseItemDraft {
	priced := make([]models.ResponseItemDraft, 0, len(drafts))
	for _, d := range drafts {
		if d.Price == nil || !d.Price.IsPositive() || d.DeliveryDate == nil || d.DeliveryDate.IsZero() {
			continue
		}
		priced = append(priced, d)
	}
	return priced
}

// BuildResponseItems превращает черновики в строки отклика для тендера.
// Количество берётся из строки тендера, оптовик его не указывает.
func BuildResponseItems(t models.Tender, responseID string, drafts []models.ResponseItemDraft, now time.Time) ([]models.TenderResponseItem, error) {
	priced := FilterDrafts(drafts)
	if len(priced) == 0 {
		return nil, models.ErrEmptyResponse
	}

	today := startOfDay(now)
	seen := make(map[string]bool, len(priced))
	items := make([]models.TenderResponseItem, 0, len(priced))
	for _, d := range priced {
		if _, ok := t.Item(d.TenderItemID); !ok {
			return nil, models.NewValidationError("items.tenderItemId", "item "+d.TenderItemID+" does not belong to tender "+t.ID)
		}
		if seen[d.TenderItemID] {
			return nil, models.NewValidationError("items.tenderItemId", "duplicate item "+d.TenderItemID)
		}
		seen[d.TenderItemID] = true

		delivery := storedTime(*d.DeliveryDate)
		if delivery.Before(today) {
			return nil, models.NewValidationError("items.deliveryDate", "must not be in the past")
		}
		if d.ExpiryDate != nil && d.ExpiryDate.Before(delivery) {
			return nil, models.NewValidationError("items.expiryDate", "must not be before the delivery date")
		}
		if p := d.FreeUnitsPercentage; p != nil && (p.IsNegative() || p.GreaterThan(hundred)) {
			return nil, models.NewValidationError("items.freeUnitsPercentage", "must be between 0 and 100")
		}

		item := models.TenderResponseItem{
			ID:               uuid.New().String(),
			TenderResponseID: responseID,
			TenderItemID:     d.TenderItemID,
			Price:            d.Price.Round(2),
			DeliveryDate:     delivery,
		}
		if d.FreeUnitsPercentage != nil {
			p := d.FreeUnitsPercentage.Round(2)
			item.FreeUnitsPercentage = &p
		}
		if d.ExpiryDate != nil {
			expiry := storedTime(*d.ExpiryDate)
			item.ExpiryDate = &expiry
		}
		items = append(items, item)
	}
	return items, nil
}

// storedTime приводит время к точности TIMESTAMPTZ, чтобы повторный отклик совпадал с сохранённым.
func storedTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// startOfDay - даты поставки приходят без времени, поэтому сравнение идёт по дням.
func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
