// internal/app/features/indicators/create.go
package indicators

import (
	"net/http"
)

// ServeCreate creates a new indicator.
// POST /indicators
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var in createRequest
	if !h.decodeJSON(w, r, &in) {
		return
	}

	spec, err := in.toSpec()
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}

	ind, err := h.svc.Create(r.Context(), spec, actor)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ind)
}
