package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/senyabanana/pharma-marketplace/internal/models"
	"github.com/senyabanana/pharma-marketplace/internal/utils"

	"github.com/rs/zerolog"
)

// statusByKind сопоставляет вид ошибки с HTTP-статусом.
var statusByKind = map[models.Kind]int{
	models.KindValidation:             http.StatusBadRequest,
	models.KindQuotaExceeded:          http.StatusUnprocessableEntity,
	models.KindSelectionRequired:      http.StatusUnprocessableEntity,
	models.KindEmptyResponse:          http.StatusUnprocessableEntity,
	models.KindTenderNotOpen:          http.StatusConflict,
	models.KindTenderAlreadyClosed:    http.StatusConflict,
	models.KindStaleResponse:          http.StatusConflict,
	models.KindNotFound:               http.StatusNotFound,
	models.KindForbidden:              http.StatusForbidden,
	models.KindReconciliationMismatch: http.StatusInternalServerError,
	models.KindPersistence:            http.StatusInternalServerError,
	models.KindInternal:               http.StatusInternalServerError,
}

// sendError отправляет ошибку сервиса. Детали внутренних ошибок остаются в логе.
func sendError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	kind := models.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	message := err.Error()
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("kind", string(kind)).Msg("request failed")
		message = "internal server error"
	} else {
		logger.Debug().Err(err).Str("kind", string(kind)).Msg("request rejected")
	}
	utils.SendErrorResponse(w, status, kind, message)
}

// reply отправляет результат сервиса или его ошибку.
func reply(w http.ResponseWriter, logger zerolog.Logger, status int, body interface{}, err error) {
	if err != nil {
		sendError(w, logger, err)
		return
	}
	utils.SendJSON(w, status, body)
}

// decodeBody разбирает JSON-тело запроса.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, models.KindValidation, "invalid request body")
		return false
	}
	return true
}
