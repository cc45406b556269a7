// internal/app/features/indicators/update.go
package indicators

import (
	"net/http"
)

// ServeUpdate applies a partial edit to an indicator's tracked fields.
// PATCH /indicators/{id}
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var in updateRequest
	if !h.decodeJSON(w, r, &in) {
		return
	}

	patch, err := in.toPatch()
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}

	ind, err := h.svc.Update(r.Context(), id, patch, actor)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ind)
}

// ServeDelete removes an indicator and releases its stored evidence.
// DELETE /indicators/{id}
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id, actor); err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
