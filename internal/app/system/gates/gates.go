// Package gates provides authorization gate functions for HTTP handlers.
// Gates check authentication and authorization, answering the request with
// the appropriate error response when a check fails.
//
// # Three-Tier Authorization Pattern
//
// KPIHub uses a three-tier authorization approach:
//
//  1. Route-Level Middleware (auth.RequireSignedIn, auth.RequireRole)
//     Applied in routes.go files for coarse-grained access control.
//     Example: sm.RequireRole("admin", "superadmin") gates a whole route group.
//     When middleware handles role checking, handlers don't need gates.
//
//  2. Handler-Level Gates (this package)
//     Used in handlers that need role checks WITHOUT route-level middleware,
//     or need different role requirements than the route group.
//     Gates answer the request on failure and return user context on success.
//
//  3. Policy Layer (internal/app/policy/indicatorpolicy)
//     Role capability rules evaluated inside the lifecycle engine.
//     Example: Role.CanReview decides whether an actor may approve or reject.
//     The engine returns kinded errors; handlers map them to responses.
//
// # Avoiding Redundancy
//
// Don't use gates in handlers that are behind role-specific middleware.
// If routes.go has RequireRole("admin", "superadmin"), handlers use
// authz.UserCtx(r) to read user context without re-checking the role.
package gates

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	uierrors "kpihub/internal/app/features/errors"
	"kpihub/internal/app/system/authz"
)

// Result contains the result of an authorization gate check.
type Result struct {
	Role   string
	Name   string
	UserID primitive.ObjectID
	OK     bool
}

// RequireAuth ensures a user is authenticated.
// If not authenticated, it renders an unauthorized error and returns OK=false.
// The loginURL parameter specifies where to redirect for login.
func RequireAuth(w http.ResponseWriter, r *http.Request, loginURL string) Result {
	role, name, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, loginURL)
		return Result{OK: false}
	}
	return Result{Role: role, Name: name, UserID: uid, OK: true}
}

// RequireAdmin ensures the user is authenticated and is an admin or
// super admin. If not authenticated, renders unauthorized; if the role is
// short, renders forbidden with the provided message and fallback URL.
func RequireAdmin(w http.ResponseWriter, r *http.Request, forbiddenMsg, fallbackURL string) Result {
	role, name, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return Result{OK: false}
	}
	if role != "admin" && role != "superadmin" {
		uierrors.RenderForbidden(w, r, forbiddenMsg, fallbackURL)
		return Result{OK: false}
	}
	return Result{Role: role, Name: name, UserID: uid, OK: true}
}

// RequireSuperAdmin ensures the user is authenticated and is a super admin.
// Creation and deletion of indicators and user administration sit behind
// this gate.
func RequireSuperAdmin(w http.ResponseWriter, r *http.Request, forbiddenMsg, fallbackURL string) Result {
	role, name, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return Result{OK: false}
	}
	if role != "superadmin" {
		uierrors.RenderForbidden(w, r, forbiddenMsg, fallbackURL)
		return Result{OK: false}
	}
	return Result{Role: role, Name: name, UserID: uid, OK: true}
}

// RequireAnyRole ensures the user is authenticated and has one of the
// specified roles. If not authenticated, renders unauthorized; if the role
// is not in the allowed list, renders forbidden.
func RequireAnyRole(w http.ResponseWriter, r *http.Request, forbiddenMsg, fallbackURL string, allowedRoles ...string) Result {
	role, name, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return Result{OK: false}
	}

	for _, allowed := range allowedRoles {
		if role == allowed {
			return Result{Role: role, Name: name, UserID: uid, OK: true}
		}
	}

	uierrors.RenderForbidden(w, r, forbiddenMsg, fallbackURL)
	return Result{OK: false}
}
