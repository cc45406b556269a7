// internal/app/features/indicators/routes.go
package indicators

import (
	"github.com/go-chi/chi/v5"

	"kpihub/internal/app/system/auth"
)

// Routes mounts the indicator API under the path where this router is
// mounted (typically "/indicators" from bootstrap).
//
// Every route requires a signed-in session. Role checks beyond that live
// in the lifecycle engine's policy layer, which knows the per-record rules
// (assignee-only evidence, sealed records, superadmin-only delete), so the
// routes stay open to all roles and the engine answers with authorization
// errors.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Post("/", h.ServeCreate)

		pr.Route("/{id}", func(ir chi.Router) {
			ir.Get("/", h.ServeGet)
			ir.Patch("/", h.ServeUpdate)
			ir.Delete("/", h.ServeDelete)

			ir.Post("/review", h.ServeReview)
			ir.Post("/score", h.ServeScore)
			ir.Put("/progress", h.ServeProgress)

			ir.Post("/evidence", h.ServeSubmitEvidence)
			ir.Delete("/evidence/{evidenceID}", h.ServeRemoveEvidence)
		})
	})

	return r
}
