// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"go.uber.org/zap"

	"kpihub/internal/app/system/authz"
)

// Handler serves the standalone error pages that auth middleware redirects
// browser requests to. API clients never land here; they get JSON from the
// Respond helpers instead.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Forbidden renders the "access denied" page.
// GET /forbidden
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	role, name, _, signedIn := authz.UserCtx(r)

	renderPage(w, r, http.StatusForbidden, pageData{
		Title:      "Access denied",
		IsLoggedIn: signedIn,
		Role:       role,
		UserName:   name,
		Message:    "You don't have permission to view this page.",
		BackURL:    "/",
	})
}

// Unauthorized renders the "sign in required" page.
// GET /unauthorized
func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	role, name, _, signedIn := authz.UserCtx(r)

	renderPage(w, r, http.StatusUnauthorized, pageData{
		Title:      "Sign in required",
		IsLoggedIn: signedIn,
		Role:       role,
		UserName:   name,
		Message:    "Please sign in to continue.",
		BackURL:    "/login",
	})
}

// ErrorLogger wraps a zap logger with request-aware error reporting so
// handlers can log a failure and answer the client in one call.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger. A nil logger is replaced with
// a no-op logger so callers never have to nil-check.
func NewErrorLogger(log *zap.Logger) *ErrorLogger {
	if log == nil {
		log = zap.NewNop()
	}
	return &ErrorLogger{log: log}
}

// ServerError logs err with request context and sends a generic 500 to the
// client. The underlying error never reaches the response body.
func (el *ErrorLogger) ServerError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	if msg == "" {
		msg = "Something went wrong. Please try again."
	}
	el.log.Error("handler error",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	RenderServerError(w, r, msg, "")
}

// Respond logs err when it is not a client fault and answers the request
// with the status its kind maps to. It is the single exit path handlers
// use for errors coming back from the lifecycle engine.
func (el *ErrorLogger) Respond(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		el.ServerError(w, r, err, "")
		return
	}
	WriteError(w, r, err)
}
