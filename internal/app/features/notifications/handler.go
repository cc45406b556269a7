// internal/app/features/notifications/handler.go
package notifications

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	uierrors "kpihub/internal/app/features/errors"
	"kpihub/internal/app/lifecycle"
	notificationstore "kpihub/internal/app/store/notifications"
	"kpihub/internal/app/system/gates"
	"kpihub/internal/app/system/paging"
	"kpihub/internal/domain/models"
)

// Handler serves a user's own notification feed. Every route operates on
// the signed-in user; there is no cross-user access.
type Handler struct {
	store *notificationstore.Store
	errs  *uierrors.ErrorLogger
	log   *zap.Logger
}

func NewHandler(store *notificationstore.Store, errs *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{store: store, errs: errs, log: logger}
}

func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	res := gates.RequireAuth(w, r, "/login")
	return res.UserID, res.OK
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type listResponse struct {
	Items    []models.Notification `json:"items"`
	Total    int64                 `json:"total"`
	Start    int                   `json:"start"`
	PageSize int                   `json:"page_size"`
}

// ServeList handles GET /notifications. ?unread=1 narrows to unread
// entries; paging follows the shared start parameter convention.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	unreadOnly := query.Get(r, "unread") == "1"
	start := paging.ParseStart(r)

	items, total, err := h.store.ListForUser(r.Context(), userID, unreadOnly,
		int64(start-1), int64(paging.PageSize))
	if err != nil {
		h.errs.ServerError(w, r, err, "list notifications")
		return
	}
	if items == nil {
		items = []models.Notification{}
	}

	writeJSON(w, http.StatusOK, listResponse{
		Items:    items,
		Total:    total,
		Start:    start,
		PageSize: paging.PageSize,
	})
}

// ServeUnreadCount handles GET /notifications/unread-count, the badge
// number polled by the UI.
func (h *Handler) ServeUnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	count, err := h.store.CountUnread(r.Context(), userID)
	if err != nil {
		h.errs.ServerError(w, r, err, "count unread notifications")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"unread": count})
}

// ServeMarkRead handles POST /notifications/{id}/read. Marking another
// user's notification is indistinguishable from a missing one.
func (h *Handler) ServeMarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.errs.Respond(w, r, lifecycle.Validationf("invalid id"))
		return
	}

	marked, err := h.store.MarkRead(r.Context(), userID, id)
	if err != nil {
		h.errs.ServerError(w, r, err, "mark notification read")
		return
	}
	if !marked {
		h.errs.Respond(w, r, lifecycle.NotFoundf("notification %s not found", id.Hex()))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ServeMarkAllRead handles POST /notifications/read-all.
func (h *Handler) ServeMarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	n, err := h.store.MarkAllRead(r.Context(), userID)
	if err != nil {
		h.errs.ServerError(w, r, err, "mark all notifications read")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"marked": n})
}
