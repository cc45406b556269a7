// internal/app/features/login/handler.go
package login

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	uierrors "kpihub/internal/app/features/errors"
	userstore "kpihub/internal/app/store/users"
	"kpihub/internal/app/system/auditlog"
	"kpihub/internal/app/system/auth"
	"kpihub/internal/app/system/inputval"
	"kpihub/internal/app/system/ratelimit"
	"kpihub/internal/app/system/timeouts"
	"kpihub/internal/domain/models"
)

// Handler serves the internal email and password sign-in. Google sign-in
// lives in the authgoogle feature; this path is for accounts with
// auth_method "internal".
type Handler struct {
	users         *userstore.Store
	sessionMgr    *auth.SessionManager
	audit         *auditlog.Logger
	limiter       *ratelimit.LoginLimiter
	errs          *uierrors.ErrorLogger
	log           *zap.Logger
	googleEnabled bool
}

func NewHandler(
	users *userstore.Store,
	sessionMgr *auth.SessionManager,
	audit *auditlog.Logger,
	limiter *ratelimit.LoginLimiter,
	errs *uierrors.ErrorLogger,
	googleEnabled bool,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		users:         users,
		sessionMgr:    sessionMgr,
		audit:         audit,
		limiter:       limiter,
		errs:          errs,
		log:           logger,
		googleEnabled: googleEnabled,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// ServeLogin handles GET /login. API clients get the available sign-in
// methods; the route mostly exists as the target of auth redirects.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	methods := []string{"internal"}
	if h.googleEnabled {
		methods = append(methods, "google")
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"methods": methods,
	})
}

// HandleLoginPost handles POST /login. Accepts a JSON body or a classic
// form post with email and password fields.
func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	email, password, ok := h.credentials(w, r)
	if !ok {
		return
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if !inputval.IsValidEmail(email) {
		uierrors.WriteJSONError(w, http.StatusBadRequest, "validation", "a valid email address is required")
		return
	}
	if password == "" {
		uierrors.WriteJSONError(w, http.StatusBadRequest, "validation", "password is required")
		return
	}

	if h.limiter != nil {
		if allowed, reason := h.limiter.Check(r, email); !allowed {
			h.log.Warn("login rate limited",
				zap.String("email", email),
				zap.String("reason", reason))
			uierrors.WriteJSONError(w, http.StatusTooManyRequests, "rate_limited",
				"too many sign-in attempts, try again later")
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.users.GetByEmail(ctx, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.audit.LoginFailedUserNotFound(ctx, r, email)
		h.failAuth(w)
		return
	}
	if err != nil {
		h.errs.ServerError(w, r, err, "load user for login")
		return
	}

	if u.Status == "disabled" {
		h.audit.LoginFailedUserDisabled(ctx, r, u.ID, email)
		uierrors.WriteJSONError(w, http.StatusForbidden, "authorization",
			"this account is disabled, contact an administrator")
		return
	}

	if u.PasswordHash == "" {
		// OAuth-only account; do not reveal which part was wrong.
		h.audit.LoginFailedWrongPassword(ctx, r, u.ID, email)
		h.failAuth(w)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		h.audit.LoginFailedWrongPassword(ctx, r, u.ID, email)
		h.failAuth(w)
		return
	}

	if err := h.sessionMgr.SignIn(w, r, u); err != nil {
		h.errs.ServerError(w, r, err, "save session")
		return
	}
	if h.limiter != nil {
		h.limiter.ResetEmail(email)
	}

	h.audit.LoginSuccess(r.Context(), r, u.ID, "internal", email)
	h.respondSignedIn(w, r, u)
}

// credentials pulls email and password from a JSON or form body.
func (h *Handler) credentials(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		var in loginRequest
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			uierrors.WriteJSONError(w, http.StatusBadRequest, "validation", "malformed JSON body")
			return "", "", false
		}
		return in.Email, in.Password, true
	}
	if err := r.ParseForm(); err != nil {
		uierrors.WriteJSONError(w, http.StatusBadRequest, "validation", "invalid form data")
		return "", "", false
	}
	return r.FormValue("email"), r.FormValue("password"), true
}

// failAuth sends the uniform wrong-credentials response. User-not-found
// and wrong-password are indistinguishable on the wire.
func (h *Handler) failAuth(w http.ResponseWriter) {
	uierrors.WriteJSONError(w, http.StatusUnauthorized, "unauthorized", "invalid email or password")
}

// respondSignedIn completes the login: a redirect for form posts, the user
// payload for API clients.
func (h *Handler) respondSignedIn(w http.ResponseWriter, r *http.Request, u *models.User) {
	if ret := strings.TrimSpace(r.FormValue("return")); ret != "" && strings.HasPrefix(ret, "/") {
		http.Redirect(w, r, ret, http.StatusSeeOther)
		return
	}
	if strings.Contains(r.Header.Get("Accept"), "text/html") {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(loginResponse{
		ID:       u.ID.Hex(),
		FullName: u.FullName,
		Email:    u.Email,
		Role:     u.Role,
	})
}
