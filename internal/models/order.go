package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderSource - откуда получен заказ.
type OrderSource string

const (
	OfferOrder  OrderSource = "Offer"
	TenderOrder OrderSource = "Tender"
)

// LineKind - вид строки заказа.
type LineKind string

const (
	ProductLine    LineKind = "product"
	FreeUnitsLine  LineKind = "free"       // Бонусные единицы, unitPrice = 0
	AdjustmentLine LineKind = "adjustment" // Разница между ценой предложения и суммой строк
)

// Order - заказ, созданный из предложения или принятого отклика на тендер.
type Order struct {
	ID               string          `json:"id"`
	BuyerID          string          `json:"buyerId"`
	SellerID         string          `json:"sellerId"`
	Source           OrderSource     `json:"source"`
	OfferID          string          `json:"offerId,omitempty"`
	TenderID         string          `json:"tenderId,omitempty"`
	TenderResponseID string          `json:"tenderResponseId,omitempty"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	DeliveryDate     *time.Time      `json:"deliveryDate,omitempty"`
	Lines            []OrderLine     `json:"lines"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// OrderLine - строка заказа. Цена берётся из исходной записи и не пересчитывается.
type OrderLine struct {
	ID         string          `json:"id"`
	OrderID    string          `json:"orderId"`
	ProductID  string          `json:"productId,omitempty"`
	Kind       LineKind        `json:"kind"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	IsPriority bool            `json:"isPriority,omitempty"`
}

// PlaceOrderRequest - выбор покупателя при заказе по предложению.
type PlaceOrderRequest struct {
	SelectedPriorityProductIDs []string `json:"selectedPriorityProductIds"`
	WithoutPriority            bool     `json:"withoutPriority"`
}

// Amount возвращает quantity * unitPrice.
func (l OrderLine) Amount() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// LinesTotal суммирует строки заказа.
func (o Order) LinesTotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range o.Lines {
		total = total.Add(line.Amount())
	}
	return total
}
