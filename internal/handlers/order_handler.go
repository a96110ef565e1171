package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/senyabanana/pharma-marketplace/internal/services"

	"github.com/rs/zerolog"
)

// OrderHandler - структура для обработки HTTP-запросов к заказам.
type OrderHandler struct {
	Service *services.OrderService
	Logger  zerolog.Logger
	Timeout time.Duration
}

// NewOrderHandler создаёт новый экземпляр OrderHandler.
func NewOrderHandler(service *services.OrderService, logger zerolog.Logger, timeout time.Duration) *OrderHandler {
	return &OrderHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

// GetOrders обрабатывает запросы для получения заказов пользователя.
func (h *OrderHandler) GetOrders(w http.ResponseWriter, r *http.Request) {
	user, ok := actingUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	orders, err := h.Service.ListOrders(ctx, user, r.URL.Query().Get("limit"), r.URL.Query().Get("offset"))
	reply(w, h.Logger, http.StatusOK, orders, err)
}

// GetOrder обрабатывает запросы для получения заказа.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := actingUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	order, err := h.Service.GetOrder(ctx, user, r.PathValue("orderId"))
	reply(w, h.Logger, http.StatusOK, order, err)
}
