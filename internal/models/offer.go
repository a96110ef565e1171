package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OfferType - тип промо-предложения.
type OfferType string

const (
	PackOffer      OfferType = "Pack"      // Набор товаров по фиксированной или расчётной цене
	ThresholdOffer OfferType = "Threshold" // Свободная покупка с минимальной суммой заказа
)

var hundred = decimal.NewFromInt(100)

// Offer представляет модель промо-предложения оптовика.
type Offer struct {
	ID                 string           `json:"id"`
	SellerID           string           `json:"sellerId"`
	Type               OfferType        `json:"type"`
	StartDate          time.Time        `json:"startDate"`
	EndDate            time.Time        `json:"endDate"`
	MinPurchaseAmount  *decimal.Decimal `json:"minPurchaseAmount,omitempty"`
	CustomTotalPrice   *decimal.Decimal `json:"customTotalPrice,omitempty"`
	MaxQuotaSelections *int             `json:"maxQuotaSelections,omitempty"`
	Comment            string           `json:"comment,omitempty"`
	LineItems          []OfferLineItem  `json:"lineItems"`
	CreatedAt          time.Time        `json:"createdAt"`
}

// OfferLineItem представляет строку предложения.
type OfferLineItem struct {
	ID                  string           `json:"id"`
	ProductID           string           `json:"productId"`
	Quantity            int              `json:"quantity"`
	UnitPrice           decimal.Decimal  `json:"unitPrice"`
	IsPriority          bool             `json:"isPriority"`
	FreeUnitsPercentage *decimal.Decimal `json:"freeUnitsPercentage,omitempty"`
	PriorityMessage     string           `json:"priorityMessage,omitempty"`
}

// OfferRequest представляет структуру запроса для создания или полной замены предложения.
type OfferRequest struct {
	Type               OfferType        `json:"type"`
	StartDate          time.Time        `json:"startDate"`
	EndDate            time.Time        `json:"endDate"`
	MinPurchaseAmount  *decimal.Decimal `json:"minPurchaseAmount,omitempty"`
	CustomTotalPrice   *decimal.Decimal `json:"customTotalPrice,omitempty"`
	MaxQuotaSelections *int             `json:"maxQuotaSelections,omitempty"`
	Comment            string           `json:"comment,omitempty"`
	LineItems          []OfferLineItem  `json:"lineItems"`
}

// OfferSnapshot - предложение вместе с производным признаком истечения.
type OfferSnapshot struct {
	Offer
	Expired bool `json:"expired"`
}

// Quote - расчёт суммы предложения для выбранных приоритетных товаров.
type Quote struct {
	OfferID              string          `json:"offerId"`
	Base                 decimal.Decimal `json:"base"`
	PriorityContribution decimal.Decimal `json:"priorityContribution"`
	Total                decimal.Decimal `json:"total"`
}

// LineTotal возвращает цену строки без бесплатных единиц.
func (i OfferLineItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// FreeUnits возвращает число бесплатных единиц: floor(quantity * p / 100).
func (i OfferLineItem) FreeUnits() int {
	return FreeUnits(i.Quantity, i.FreeUnitsPercentage)
}

// FreeUnits считает бесплатные единицы для количества и процента бонуса.
func FreeUnits(quantity int, percentage *decimal.Decimal) int {
	if percentage == nil || !percentage.IsPositive() {
		return 0
	}
	return int(decimal.NewFromInt(int64(quantity)).Mul(*percentage).Div(hundred).Floor().IntPart())
}

// IsExpired - предложение истекло, если now > endDate. Не хранится.
func (o Offer) IsExpired(now time.Time) bool {
	return now.After(o.EndDate)
}

// IsActive - предложение действует в интервале [startDate, endDate].
func (o Offer) IsActive(now time.Time) bool {
	return !now.Before(o.StartDate) && !o.IsExpired(now)
}

// HasPriorityItems сообщает, есть ли в предложении приоритетные товары.
func (o Offer) HasPriorityItems() bool {
	for _, item := range o.LineItems {
		if item.IsPriority {
			return true
		}
	}
	return false
}

// PriorityItem ищет приоритетную строку по товару.
func (o Offer) PriorityItem(productID string) (OfferLineItem, bool) {
	for _, item := range o.LineItems {
		if item.IsPriority && item.ProductID == productID {
			return item, true
		}
	}
	return OfferLineItem{}, false
}

// IsCents - суммы хранятся с точностью до сотых, больше знаков не принимаем.
func IsCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

// Validate проверяет инварианты предложения при создании и редактировании.
func (o Offer) Validate() error {
	if o.SellerID == "" {
		return NewValidationError("sellerId", "is required")
	}
	switch o.Type {
	case PackOffer:
	case ThresholdOffer:
		if o.MinPurchaseAmount == nil || !o.MinPurchaseAmount.IsPositive() {
			return NewValidationError("minPurchaseAmount", "is required for Threshold offers and must be positive")
		}
		if !IsCents(*o.MinPurchaseAmount) {
			return NewValidationError("minPurchaseAmount", "must have at most 2 decimal places")
		}
		if o.CustomTotalPrice != nil {
			return NewValidationError("customTotalPrice", "only applies to Pack offers")
		}
	default:
		return NewValidationError("type", "must be Pack or Threshold")
	}
	if o.StartDate.IsZero() || o.EndDate.IsZero() {
		return NewValidationError("startDate/endDate", "are required")
	}
	if !o.EndDate.After(o.StartDate) {
		return NewValidationError("endDate", "must be after startDate")
	}
	if o.CustomTotalPrice != nil && o.CustomTotalPrice.IsNegative() {
		return NewValidationError("customTotalPrice", "must not be negative")
	}
	if o.CustomTotalPrice != nil && !IsCents(*o.CustomTotalPrice) {
		return NewValidationError("customTotalPrice", "must have at most 2 decimal places")
	}
	if o.MaxQuotaSelections != nil && *o.MaxQuotaSelections < 1 {
		return NewValidationError("maxQuotaSelections", "must be at least 1")
	}
	if len(o.LineItems) == 0 {
		return NewValidationError("lineItems", "at least one line item is required")
	}

	seen := make(map[string]bool, len(o.LineItems))
	for _, item := range o.LineItems {
		if item.ProductID == "" {
			return NewValidationError("lineItems.productId", "is required")
		}
		if seen[item.ProductID] {
			return NewValidationError("lineItems.productId", "duplicate product "+item.ProductID)
		}
		seen[item.ProductID] = true
		if item.Quantity <= 0 {
			return NewValidationError("lineItems.quantity", "must be positive")
		}
		if item.UnitPrice.IsNegative() {
			return NewValidationError("lineItems.unitPrice", "must not be negative")
		}
		if !IsCents(item.UnitPrice) {
			return NewValidationError("lineItems.unitPrice", "must have at most 2 decimal places")
		}
		if p := item.FreeUnitsPercentage; p != nil && (p.IsNegative() || p.GreaterThan(hundred)) {
			return NewValidationError("lineItems.freeUnitsPercentage", "must be between 0 and 100")
		}
		if p := item.FreeUnitsPercentage; p != nil && !IsCents(*p) {
			return NewValidationError("lineItems.freeUnitsPercentage", "must have at most 2 decimal places")
		}
	}
	return nil
}
