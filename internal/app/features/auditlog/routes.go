// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/go-chi/chi/v5"

	"kpihub/internal/app/system/auth"
)

// Routes mounts the audit trail routes, typically at "/audit". The trail
// is visible to admins and superadmins only.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole("admin", "superadmin"))

		pr.Get("/", h.ServeList)
		pr.Get("/event-types", h.ServeEventTypes)
	})

	return r
}
