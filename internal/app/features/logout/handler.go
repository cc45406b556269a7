// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"go.uber.org/zap"

	"kpihub/internal/app/system/auditlog"
	"kpihub/internal/app/system/auth"
)

type Handler struct {
	sessionMgr *auth.SessionManager
	audit      *auditlog.Logger
	log        *zap.Logger
}

func NewHandler(sessionMgr *auth.SessionManager, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{sessionMgr: sessionMgr, audit: audit, log: logger}
}

// ServeLogout handles POST /logout. The session cookie is cleared even if
// it fails to decode.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	userID := ""
	if u, ok := auth.CurrentUser(r); ok {
		userID = u.ID
	}

	if err := h.sessionMgr.SignOut(w, r); err != nil {
		h.log.Warn("sign-out failed", zap.Error(err))
	}

	if userID != "" {
		h.audit.Logout(r.Context(), r, userID)
	}

	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("HX-Redirect", "/")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
