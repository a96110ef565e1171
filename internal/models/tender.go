package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TenderStatus - статус тендера.
type TenderStatus string

const (
	OpenTender     TenderStatus = "Open"     // Тендер принимает отклики
	ClosedTender   TenderStatus = "Closed"   // Тендер закрыт покупателем или принятием отклика
	CanceledTender TenderStatus = "Canceled" // Тендер отменён
)

// Tender представляет модель тендера (запроса цен).
type Tender struct {
	ID         string       `json:"id"`
	BuyerID    string       `json:"buyerId"`
	Title      string       `json:"title"`
	Wilaya     string       `json:"wilaya"`
	Deadline   time.Time    `json:"deadline"`
	IsPublic   bool         `json:"isPublic"`
	Status     TenderStatus `json:"status"`
	PublicLink string       `json:"publicLink"`
	Items      []TenderItem `json:"items"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

// TenderItem - строка списка товаров тендера.
type TenderItem struct {
	ID        string `json:"id"`
	TenderID  string `json:"tenderId"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// TenderRequest представляет структуру запроса для создания тендера.
type TenderRequest struct {
	Title    string              `json:"title"`
	Wilaya   string              `json:"wilaya"`
	Deadline time.Time           `json:"deadline"`
	IsPublic bool                `json:"isPublic"`
	Items    []TenderItemRequest `json:"items"`
}

// TenderItemRequest - товар и количество в запросе на создание тендера.
type TenderItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// TenderSnapshot - тендер с производным признаком истечения срока.
type TenderSnapshot struct {
	Tender
	Expired bool `json:"expired"`
}

// TenderMessage - сообщение в переговорах по тендеру.
type TenderMessage struct {
	ID        string    `json:"id"`
	TenderID  string    `json:"tenderId"`
	AuthorID  string    `json:"authorId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// MessageRequest - тело нового сообщения.
type MessageRequest struct {
	Body string `json:"body"`
}

// Item ищет строку тендера по идентификатору.
func (t Tender) Item(itemID string) (TenderItem, bool) {
	for _, item := range t.Items {
		if item.ID == itemID {
			return item, true
		}
	}
	return TenderItem{}, false
}

// TenderResponse - отклик оптовика на тендер. Один на пару (tenderId, sellerId).
type TenderResponse struct {
	ID        string               `json:"id"`
	TenderID  string               `json:"tenderId"`
	SellerID  string               `json:"sellerId"`
	Version   int                  `json:"version"`
	Items     []TenderResponseItem `json:"items"`
	CreatedAt time.Time            `json:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt"`
}

// TenderResponseItem - цена оптовика на одну строку тендера.
type TenderResponseItem struct {
	ID                  string           `json:"id"`
	TenderResponseID    string           `json:"tenderResponseId"`
	TenderItemID        string           `json:"tenderItemId"`
	Price               decimal.Decimal  `json:"price"`
	FreeUnitsPercentage *decimal.Decimal `json:"freeUnitsPercentage,omitempty"`
	DeliveryDate        time.Time        `json:"deliveryDate"`
	ExpiryDate          *time.Time       `json:"expiryDate,omitempty"`
}

// ResponseItemDraft - черновик строки отклика. Пустая цена или дата означает отказ от строки.
type ResponseItemDraft struct {
	TenderItemID        string           `json:"tenderItemId"`
	Price               *decimal.Decimal `json:"price,omitempty"`
	FreeUnitsPercentage *decimal.Decimal `json:"freeUnitsPercentage,omitempty"`
	DeliveryDate        *time.Time       `json:"deliveryDate,omitempty"`
	ExpiryDate          *time.Time       `json:"expiryDate,omitempty"`
}

// ResponseRequest - отправка или обновление отклика.
// ExpectedVersion равен 0 для нового отклика и текущей версии для обновления.
type ResponseRequest struct {
	ExpectedVersion int                 `json:"expectedVersion"`
	Items           []ResponseItemDraft `json:"items"`
}
