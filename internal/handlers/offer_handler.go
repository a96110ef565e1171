package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/senyabanana/pharma-marketplace/internal/models"
	"github.com/senyabanana/pharma-marketplace/internal/services"

	"github.com/rs/zerolog"
)

// OfferHandler - структура для обработки HTTP-запросов к предложениям.
type OfferHandler struct {
	Offers  *services.OfferService
	Orders  *services.OrderService
	Logger  zerolog.Logger
	Timeout time.Duration
}

// NewOfferHandler создаёт новый экземпляр OfferHandler.
func NewOfferHandler(offers *services.OfferService, orders *services.OrderService, logger zerolog.Logger, timeout time.Duration) *OfferHandler {
	return &OfferHandler{
		Offers:  offers,
		Orders:  orders,
		Logger:  logger,
		Timeout: timeout,
	}
}

// CreateOffer обрабатывает запросы для публикации предложения.
func (h *OfferHandler) CreateOffer(w http.ResponseWriter, r *http.Request) {
	user, ok := actingUser(w, r)
	if !ok {
		return
	}
	var req models.OfferRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	offer, err := h.Offers.CreateOffer(ctx, user, req)
	reply(w, h.Logger, http.StatusCreated, offer, err)
}

// ReplaceOffer обрабатывает запросы для редактирования предложения.
func (h *OfferHandler) ReplaceOffer(w http.ResponseWriter, r *http.Request) {
	user, ok := actingUser(w, r)
	if !ok {
		return
	}
	var req models.OfferRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	offer, err := h.Offers.ReplaceOffer(ctx, user, r.PathValue("offerId"), req)
	reply(w, h.Logger, http.StatusOK, offer, err)
}

// GetOffer обрабатывает запросы для получения предложения.
func (h *OfferHandler) GetOffer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	offer, err := h.Offers.GetOffer(ctx, r.PathValue("offerId"))
	reply(w, h.Logger, http.StatusOK, offer, err)
}

// ListOffers обрабатывает запросы для получения действующих предложений.
func (h *OfferHandler) ListOffers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	offers, err := h.Offers.ListActiveOffers(ctx, r.URL.Query().Get("limit"), r.URL.Query().Get("offset"))
	reply(w, h.Logger, http.StatusOK, offers, err)
}

// Quote обрабатывает запросы для расчёта суммы предложения.
func (h *OfferHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req models.PlaceOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	quote, err := h.Offers.Quote(ctx, r.PathValue("offerId"), req)
	reply(w, h.Logger, http.StatusOK, quote, err)
}

// PlaceOrder обрабатывает запросы для заказа по предложению.
func (h *OfferHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := actingUser(w, r)
	if !ok {
		return
	}
	var req models.PlaceOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	order, err := h.Orders.PlaceOfferOrder(ctx, user, r.PathValue("offerId"), req)
	reply(w, h.Logger, http.StatusCreated, order, err)
}
