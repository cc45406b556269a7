// internal/app/features/categories/handler.go
package categories

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	uierrors "kpihub/internal/app/features/errors"
	"kpihub/internal/app/lifecycle"
	categorystore "kpihub/internal/app/store/categories"
	"kpihub/internal/app/system/auditlog"
	"kpihub/internal/app/system/authz"
	"kpihub/internal/app/system/limits"
)

// Handler serves the category tree API. All routes are admin-only; the
// tree itself is read by the lifecycle engine at indicator creation.
type Handler struct {
	store *categorystore.Store
	audit *auditlog.Logger
	errs  *uierrors.ErrorLogger
	log   *zap.Logger
}

// NewHandler creates a new categories handler. audit may be nil.
func NewHandler(store *categorystore.Store, audit *auditlog.Logger, errs *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{store: store, audit: audit, errs: errs, log: logger}
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.errs.Respond(w, r, lifecycle.Validationf("invalid id"))
		return primitive.NilObjectID, false
	}
	return id, true
}

func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.errs.Respond(w, r, lifecycle.Validationf("malformed JSON body: %v", err))
		return false
	}
	return true
}

// respond translates store sentinel errors into kinded responses before
// falling back to the shared error writer.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, categorystore.ErrDuplicateName):
		h.errs.Respond(w, r, lifecycle.Conflictf("%s", err.Error()))
	case errors.Is(err, categorystore.ErrHasChildren):
		h.errs.Respond(w, r, lifecycle.Conflictf("%s", err.Error()))
	case errors.Is(err, categorystore.ErrInUse):
		h.errs.Respond(w, r, lifecycle.Conflictf("%s", err.Error()))
	default:
		h.errs.Respond(w, r, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) auditActor(r *http.Request) (primitive.ObjectID, string, bool) {
	role, _, userID, ok := authz.UserCtx(r)
	return userID, role, ok
}

func levelLabel(level int) string {
	return strconv.Itoa(level)
}
