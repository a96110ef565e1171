package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/senyabanana/pharma-marketplace/internal/models"
	"github.com/senyabanana/pharma-marketplace/internal/services"
	"github.com/senyabanana/pharma-marketplace/internal/utils"

	"github.com/rs/zerolog"
)

// TenderHandler - структура для обработки HTTP-запросов к тендерам.
type TenderHandler struct {
	Service *services.TenderService
	Logger  zerolog.Logger
	Timeout time.Duration
}

// NewTenderHandler создаёт новый экземпляр TenderHandler.
func NewTenderHandler(service *services.TenderService, logger zerolog.Logger, timeout time.Duration) *TenderHandler {
	return &TenderHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

// GetTenders обрабатывает запросы для получения списка публичных тендеров.
func (h *TenderHandler) GetTenders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	query := r.URL.Query()
	wilayas := utils.SplitList(query["wilaya"])

	tenders, err := h.Service.ListPublicTenders(ctx, wilayas, query.Get("limit"), query.Get("offset"))
	reply(w, h.Logger, http.StatusOK, tenders, err)
}

// CreateTender обрабатывает запросы для создания тендера.
func (h *TenderHandler) CreateTender(w http.ResponseWriter, r *http.Request) {
	user, ok := actingUser(w, r)
	if !ok {
		return
	}
	var req models.TenderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	tender, err := h.Service.CreateTender(ctx, user, req)
	reply(w, h.Logger, http.StatusCreated, tender, err)
}

// GetUserTenders обрабатывает запросы для получения тендеров покупателя.
func (h *TenderHandler) GetUserTenders(w http.ResponseWriter, r *http.Request) {
	user, ok := actingUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	tenders, err := h.Service.ListMyTenders(ctx, user, r.URL.Query().Get("limit"), r.URL.Query().Get("offset"))
	reply(w, h.Logger, http.StatusOK, tenders, err)
}

// GetTender обрабатывает запросы для получения тендера.
func (h *TenderHandler) GetTender(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	tender, err := h.Service.GetTender(ctx, r.PathValue("tenderId"))
	reply(w, h.Logger, http.StatusOK, tender, err)
}

// CloseTender обрабатывает запросы для закрытия тендера.
func (h *TenderHandler) CloseTender(w http.ResponseWriter, r *http.Request) {
	h.manage(w, r, h.Service.CloseTender, http.StatusOK)
}

// CancelTender обрабатывает запросы для отмены тендера.
func (h *TenderHandler) CancelTender(w http.ResponseWriter, r *http.Request) {
	h.manage(w, r, h.Service.CancelTender, http.StatusOK)
}

// ReopenTender обрабатывает запросы для повторного открытия тендера.
func (h *TenderHandler) ReopenTender(w http.ResponseWriter, r *http.Request) {
	h.manage(w, r, h.Service.ReopenTender, http.StatusOK)
}

// CloneTender обрабатывает запросы для копирования тендера.
func (h *TenderHandler) CloneTender(w http.ResponseWriter, r *http.Request) {
	h.manage(w, r, h.Service.CloneTender, http.StatusCreated)
}

type tenderAction func(ctx context.Context, user models.ActingUser, tenderID string) (*models.Tender, error)

func (h *TenderHandler) manage(w http.ResponseWriter, r *http.Request, action tenderAction, status int) {
	user, ok := actingUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	tender, err := action(ctx, user, r.PathValue("tenderId"))
	reply(w, h.Logger, status, tender, err)
}

// PostMessage обрабатывает запросы для отправки сообщения по тендеру.
func (h *TenderHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := actingUser(w, r)
	if !ok {
		return
	}
	var req models.MessageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	msg, err := h.Service.PostMessage(ctx, user, r.PathValue("tenderId"), req)
	reply(w, h.Logger, http.StatusCreated, msg, err)
}

// GetMessages обрабатывает запросы для получения переписки по тендеру.
func (h *TenderHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	user, ok := actingUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	messages, err := h.Service.ListMessages(ctx, user, r.PathValue("tenderId"))
	reply(w, h.Logger, http.StatusOK, messages, err)
}
