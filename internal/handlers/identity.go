package handlers

import (
	"net/http"
	"strings"

	"github.com/senyabanana/pharma-marketplace/internal/models"
	"github.com/senyabanana/pharma-marketplace/internal/utils"
)

// Заголовки, в которых шлюз аутентификации передаёт пользователя.
const (
	HeaderUserID      = "X-User-Id"
	HeaderUserRole    = "X-User-Role"
	HeaderCompanyName = "X-Company-Name"
	HeaderUserEmail   = "X-User-Email"
)

// actingUser читает пользователя из заголовков. При ошибке ответ 401 уже отправлен.
func actingUser(w http.ResponseWriter, r *http.Request) (models.ActingUser, bool) {
	user := models.ActingUser{
		ID:          strings.TrimSpace(r.Header.Get(HeaderUserID)),
		Role:        models.Role(strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderUserRole)))),
		CompanyName: r.Header.Get(HeaderCompanyName),
		Email:       r.Header.Get(HeaderUserEmail),
	}
	if user.ID == "" || !models.ValidRole(user.Role) {
		utils.SendErrorResponse(w, http.StatusUnauthorized, models.KindUnauthenticated, "missing or invalid user identity")
		return models.ActingUser{}, false
	}
	return user, true
}
