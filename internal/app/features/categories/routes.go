// internal/app/features/categories/routes.go
package categories

import (
	"github.com/go-chi/chi/v5"

	"kpihub/internal/app/system/auth"
)

// Routes mounts the category tree routes, typically at "/categories".
// The tree is managed by admins and superadmins only.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole("admin", "superadmin"))

		pr.Get("/", h.ServeList)
		pr.Post("/", h.ServeCreate)

		pr.Route("/{id}", func(ir chi.Router) {
			ir.Get("/", h.ServeGet)
			ir.Get("/children", h.ServeChildren)
			ir.Patch("/", h.ServeRename)
			ir.Delete("/", h.ServeDelete)
		})
	})

	return r
}
