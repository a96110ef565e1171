package router

import (
	"net/http"

	"github.com/senyabanana/pharma-marketplace/internal/handlers"
)

// Handlers - обработчики, которые регистрирует InitRoutes.
type Handlers struct {
	Offers    *handlers.OfferHandler
	Tenders   *handlers.TenderHandler
	Responses *handlers.ResponseHandler
	Orders    *handlers.OrderHandler
	Metrics   http.Handler
}

func InitRoutes(h Handlers) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/ping", handlers.PingHandler)
	if h.Metrics != nil {
		mux.Handle("GET /metrics", h.Metrics)
	}

	mux.HandleFunc("GET /api/offers", h.Offers.ListOffers)
	mux.HandleFunc("POST /api/offers", h.Offers.CreateOffer)
	mux.HandleFunc("GET /api/offers/{offerId}", h.Offers.GetOffer)
	mux.HandleFunc("PUT /api/offers/{offerId}", h.Offers.ReplaceOffer)
	mux.HandleFunc("POST /api/offers/{offerId}/quote", h.Offers.Quote)
	mux.HandleFunc("POST /api/offers/{offerId}/orders", h.Offers.PlaceOrder)

	mux.HandleFunc("GET /api/tenders", h.Tenders.GetTenders)
	mux.HandleFunc("POST /api/tenders", h.Tenders.CreateTender)
	mux.HandleFunc("GET /api/tenders/my", h.Tenders.GetUserTenders)
	mux.HandleFunc("GET /api/tenders/{tenderId}", h.Tenders.GetTender)
	mux.HandleFunc("POST /api/tenders/{tenderId}/close", h.Tenders.CloseTender)
	mux.HandleFunc("POST /api/tenders/{tenderId}/cancel", h.Tenders.CancelTender)
	mux.HandleFunc("POST /api/tenders/{tenderId}/reopen", h.Tenders.ReopenTender)
	mux.HandleFunc("POST /api/tenders/{tenderId}/clone", h.Tenders.CloneTender)
	mux.HandleFunc("GET /api/tenders/{tenderId}/messages", h.Tenders.GetMessages)
	mux.HandleFunc("POST /api/tenders/{tenderId}/messages", h.Tenders.PostMessage)

	mux.HandleFunc("GET /api/tenders/{tenderId}/responses", h.Responses.GetResponses)
	mux.HandleFunc("PUT /api/tenders/{tenderId}/responses", h.Responses.SubmitResponse)
	mux.HandleFunc("GET /api/tenders/{tenderId}/responses/{responseId}", h.Responses.GetResponse)
	mux.HandleFunc("POST /api/tenders/{tenderId}/responses/{responseId}/accept", h.Responses.AcceptResponse)

	mux.HandleFunc("GET /api/orders", h.Orders.GetOrders)
	mux.HandleFunc("GET /api/orders/{orderId}", h.Orders.GetOrder)

	return mux
}
