// internal/app/features/notifications/routes.go
package notifications

import (
	"github.com/go-chi/chi/v5"

	"kpihub/internal/app/system/auth"
)

// Routes mounts the notification feed, typically at "/notifications".
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Get("/unread-count", h.ServeUnreadCount)
		pr.Post("/read-all", h.ServeMarkAllRead)
		pr.Post("/{id}/read", h.ServeMarkRead)
	})

	return r
}
