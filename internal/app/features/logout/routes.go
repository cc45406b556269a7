// internal/app/features/logout/routes.go
package logout

import (
	"github.com/go-chi/chi/v5"

	"kpihub/internal/app/system/auth"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Post("/", h.ServeLogout)
		// GET kept for plain link-based logout.
		pr.Get("/", h.ServeLogout)
	})

	return r
}
