// internal/app/features/categories/crud.go
package categories

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"kpihub/internal/app/lifecycle"
	"kpihub/internal/domain/models"
)

type createRequest struct {
	Name     string `json:"name"`
	Level    int    `json:"level"`
	ParentID string `json:"parent_id,omitempty"`
}

type renameRequest struct {
	Name string `json:"name"`
}

// ServeCreate handles POST /categories.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	var in createRequest
	if !h.decodeJSON(w, r, &in) {
		return
	}

	cat := models.Category{Name: in.Name, Level: in.Level}
	if in.ParentID != "" {
		pid, err := primitive.ObjectIDFromHex(in.ParentID)
		if err != nil {
			h.errs.Respond(w, r, lifecycle.Validationf("invalid parent_id"))
			return
		}
		cat.ParentID = &pid
	}

	created, err := h.store.Create(r.Context(), cat)
	if err != nil {
		h.respond(w, r, err)
		return
	}

	if h.audit != nil {
		if actorID, role, ok := h.auditActor(r); ok {
			h.audit.CategoryCreated(r.Context(), r, actorID, created.ID, role, created.Name, levelLabel(created.Level))
		}
	}

	writeJSON(w, http.StatusCreated, created)
}

// ServeGet handles GET /categories/{id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	cat, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		h.respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

// ServeList handles GET /categories. With no query the full level-1 list
// comes back; ?level=N selects another level.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	level := models.CategoryLevelMain
	if raw := query.Get(r, "level"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < models.CategoryLevelMain || parsed > models.CategoryLevelIndicator {
			h.errs.Respond(w, r, lifecycle.Validationf("level must be 1, 2, or 3, got %q", raw))
			return
		}
		level = parsed
	}

	cats, err := h.store.ListByLevel(r.Context(), level)
	if err != nil {
		h.respond(w, r, err)
		return
	}
	if cats == nil {
		cats = []models.Category{}
	}
	writeJSON(w, http.StatusOK, cats)
}

// ServeChildren handles GET /categories/{id}/children.
func (h *Handler) ServeChildren(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if _, err := h.store.GetByID(r.Context(), id); err != nil {
		h.respond(w, r, err)
		return
	}
	children, err := h.store.Children(r.Context(), id)
	if err != nil {
		h.respond(w, r, err)
		return
	}
	if children == nil {
		children = []models.Category{}
	}
	writeJSON(w, http.StatusOK, children)
}

// ServeRename handles PATCH /categories/{id}.
func (h *Handler) ServeRename(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var in renameRequest
	if !h.decodeJSON(w, r, &in) {
		return
	}

	before, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		h.respond(w, r, err)
		return
	}
	if err := h.store.Rename(r.Context(), id, in.Name); err != nil {
		h.respond(w, r, err)
		return
	}
	after, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		h.respond(w, r, err)
		return
	}

	if h.audit != nil {
		if actorID, role, ok := h.auditActor(r); ok {
			h.audit.CategoryRenamed(r.Context(), r, actorID, id, role, before.Name, after.Name)
		}
	}

	writeJSON(w, http.StatusOK, after)
}

// ServeDelete handles DELETE /categories/{id}.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	cat, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		h.respond(w, r, err)
		return
	}
	if err := h.store.Delete(r.Context(), id); err != nil {
		h.respond(w, r, err)
		return
	}

	if h.audit != nil {
		if actorID, role, ok := h.auditActor(r); ok {
			h.audit.CategoryDeleted(r.Context(), r, actorID, id, role, cat.Name)
		}
	}

	h.log.Info("category deleted", zap.String("id", id.Hex()), zap.String("name", cat.Name))
	w.WriteHeader(http.StatusNoContent)
}
