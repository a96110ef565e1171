package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/senyabanana/pharma-marketplace/internal/models"
	"github.com/senyabanana/pharma-marketplace/internal/services"

	"github.com/rs/zerolog"
)

// ResponseHandler - структура для обработки HTTP-запросов к откликам на тендеры.
type ResponseHandler struct {
	Service *services.ResponseService
	Orders  *services.OrderService
	Logger  zerolog.Logger
	Timeout time.Duration
}

// NewResponseHandler создаёт новый экземпляр ResponseHandler.
func NewResponseHandler(service *services.ResponseService, orders *services.OrderService, logger zerolog.Logger, timeout time.Duration) *ResponseHandler {
	return &ResponseHandler{
		Service: service,
		Orders:  orders,
		Logger:  logger,
		Timeout: timeout,
	}
}

// SubmitResponse обрабатывает запросы для отправки или обновления отклика.
func (h *ResponseHandler) SubmitResponse(w http.ResponseWriter, r *http.Request) {
	user, ok := actingUser(w, r)
	if !ok {
		return
	}
	var req models.ResponseRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	resp, err := h.Service.SubmitResponse(ctx, user, r.PathValue("tenderId"), req)
	reply(w, h.Logger, http.StatusOK, resp, err)
}

// GetResponses обрабатывает запросы для получения откликов на тендер.
func (h *ResponseHandler) GetResponses(w http.ResponseWriter, r *http.Request) {
	user, ok := actingUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	responses, err := h.Service.ListResponses(ctx, user, r.PathValue("tenderId"))
	reply(w, h.Logger, http.StatusOK, responses, err)
}

// GetResponse обрабатывает запросы для получения одного отклика.
func (h *ResponseHandler) GetResponse(w http.ResponseWriter, r *http.Request) {
	user, ok := actingUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	resp, err := h.Service.GetResponse(ctx, user, r.PathValue("tenderId"), r.PathValue("responseId"))
	reply(w, h.Logger, http.StatusOK, resp, err)
}

// AcceptResponse обрабатывает запросы для принятия отклика покупателем.
func (h *ResponseHandler) AcceptResponse(w http.ResponseWriter, r *http.Request) {
	user, ok := actingUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	order, err := h.Orders.AcceptTenderResponse(ctx, user, r.PathValue("tenderId"), r.PathValue("responseId"))
	reply(w, h.Logger, http.StatusCreated, order, err)
}
