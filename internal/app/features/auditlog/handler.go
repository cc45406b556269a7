// internal/app/features/auditlog/handler.go
package auditlog

import (
	"go.uber.org/zap"

	uierrors "kpihub/internal/app/features/errors"
	"kpihub/internal/app/store/audit"
	userstore "kpihub/internal/app/store/users"
)

// Handler serves the audit trail query API. The trail itself is
// append-only; this surface is read-only.
type Handler struct {
	store *audit.Store
	users *userstore.Store
	errs  *uierrors.ErrorLogger
	log   *zap.Logger
}

func NewHandler(store *audit.Store, users *userstore.Store, errs *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{store: store, users: users, errs: errs, log: logger}
}
