package repository

import (
	"context"
	"time"

	"github.com/senyabanana/pharma-marketplace/internal/models"
)

// Transactor выполняет fn в одной транзакции: фиксирует при nil, откатывает при ошибке.
// Репозитории, вызванные с ctx из fn, работают внутри этой транзакции.
type Transactor interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// OfferRepository - интерфейс для работы с промо-предложениями.
type OfferRepository interface {
	CreateOffer(ctx context.Context, offer models.Offer) error
	ReplaceOffer(ctx context.Context, offer models.Offer) error
	GetOffer(ctx context.Context, offerID string) (*models.Offer, error)
	GetActiveOffers(ctx context.Context, now time.Time, limit, offset int) ([]models.Offer, error)
}

// TenderRepository - интерфейс для работы с тендерами и сообщениями.
type TenderRepository interface {
	CreateTender(ctx context.Context, tender models.Tender) error
	GetTender(ctx context.Context, tenderID string) (*models.Tender, error)
	GetPublicTenders(ctx context.Context, wilayas []string, limit, offset int) ([]models.Tender, error)
	GetBuyerTenders(ctx context.Context, buyerID string, limit, offset int) ([]models.Tender, error)
	// TransitionTender меняет статус (и срок), только если текущий статус равен from.
	TransitionTender(ctx context.Context, tenderID string, from, to models.TenderStatus, deadline, updatedAt time.Time) (bool, error)
	CreateMessage(ctx context.Context, message models.TenderMessage) error
	GetMessages(ctx context.Context, tenderID string) ([]models.TenderMessage, error)
}

// ResponseRepository - интерфейс для работы с откликами на тендеры.
type ResponseRepository interface {
	GetResponse(ctx context.Context, responseID string) (*models.TenderResponse, error)
	GetSellerResponse(ctx context.Context, tenderID, sellerID string) (*models.TenderResponse, error)
	GetTenderResponses(ctx context.Context, tenderID string) ([]models.TenderResponse, error)
	// InsertResponse возвращает false, если отклик этого оптовика на тендер уже существует.
	InsertResponse(ctx context.Context, response models.TenderResponse) (bool, error)
	// BumpResponseVersion увеличивает версию, только если она равна expected.
	BumpResponseVersion(ctx context.Context, responseID string, expected int, updatedAt time.Time) (bool, error)
	ReplaceResponseItems(ctx context.Context, responseID string, items []models.TenderResponseItem) error
}

// OrderRepository - интерфейс для работы с заказами.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order models.Order) error
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
	GetUserOrders(ctx context.Context, userID string, limit, offset int) ([]models.Order, error)
	// ResponseOrderExists сообщает, создан ли уже заказ по отклику.
	ResponseOrderExists(ctx context.Context, responseID string) (bool, error)
}
