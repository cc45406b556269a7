// internal/app/features/indicators/handler.go
package indicators

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	uierrors "kpihub/internal/app/features/errors"
	"kpihub/internal/app/lifecycle"
	indicatorstore "kpihub/internal/app/store/indicators"
	"kpihub/internal/app/system/authz"
	"kpihub/internal/app/system/limits"
)

// Handler serves the indicator API. Every mutation goes through the
// lifecycle service; the store is used directly only for read paths the
// engine does not own (list queries).
type Handler struct {
	svc   *lifecycle.Service
	store *indicatorstore.Store
	errs  *uierrors.ErrorLogger
	log   *zap.Logger
}

// NewHandler creates a new indicators handler.
func NewHandler(svc *lifecycle.Service, store *indicatorstore.Store, errs *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, store: store, errs: errs, log: logger}
}

// actor resolves the session user into a lifecycle actor. Routes are
// behind RequireSignedIn, so a missing user is a server-side surprise.
func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (lifecycle.Actor, bool) {
	actor, ok := authz.Actor(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return lifecycle.Actor{}, false
	}
	return actor, true
}

// pathID parses the {id} URL parameter.
func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, param string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, param))
	if err != nil {
		h.errs.Respond(w, r, lifecycle.Validationf("invalid %s", param))
		return primitive.NilObjectID, false
	}
	return id, true
}

// decodeJSON reads a size-capped JSON body into dst.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.errs.Respond(w, r, lifecycle.Validationf("request body exceeds %d bytes", maxErr.Limit))
			return false
		}
		h.errs.Respond(w, r, lifecycle.Validationf("malformed JSON body: %v", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
