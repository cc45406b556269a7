// internal/app/features/userinfo/handler.go
package userinfo

import (
	"encoding/json"
	"net/http"

	"kpihub/internal/app/system/auth"
)

// Handler serves identity information for the current session.
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// ServeUserInfo returns the current user's authentication status and
// identity. Anonymous requests get a 200 with isAuthenticated false so
// clients can poll without error handling.
func (h *Handler) ServeUserInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	user, ok := auth.CurrentUser(r)
	if !ok {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"isAuthenticated": false,
			"name":            "",
			"email":           "",
			"role":            "",
		})
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]any{
		"isAuthenticated": true,
		"name":            user.Name,
		"email":           user.Email,
		"role":            user.Role,
	})
}
