// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"kpihub/internal/app/lifecycle"
	"kpihub/internal/app/policy/indicatorpolicy"
	"kpihub/internal/app/system/auth"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the user's role (lowercased), name, Mongo ObjectID, and a found flag.
// If no user is present in context or the user ID is malformed, it returns
// "visitor", "", NilObjectID, false. This ensures callers can trust that
// ok=true means a valid, authenticated user with a valid ObjectID.
// The role is normalized to lowercase for consistent comparison.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed user ID in session - fail closed for security.
		// This should not happen in normal operation; indicates session corruption.
		return "visitor", "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.Name, userID, true
}

// Actor maps the request's session user onto the lifecycle engine's actor
// identity. ok is false for anonymous requests and corrupt sessions; the
// returned actor then carries the visitor role and holds no capabilities.
func Actor(r *http.Request) (lifecycle.Actor, bool) {
	role, name, userID, ok := UserCtx(r)
	if !ok {
		return lifecycle.Actor{Role: indicatorpolicy.RoleVisitor}, false
	}
	return lifecycle.Actor{
		ID:   userID,
		Name: name,
		Role: indicatorpolicy.ParseRole(role),
	}, true
}

// IsSuperAdmin reports whether the current request's user is a superadmin.
func IsSuperAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == "superadmin"
}

// IsAdmin reports whether the current request's user is an admin.
// Note: Superadmins are also considered admins for permission purposes.
func IsAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && (role == "admin" || role == "superadmin")
}

// IsAdminOnly reports whether the current request's user is specifically an admin (not superadmin).
func IsAdminOnly(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == "admin"
}

// IsMember reports whether the current request's user is a member.
func IsMember(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == "member"
}

// CanReview reports whether the current user may approve or reject
// submissions. Delegates to the lifecycle policy so the session layer and
// the engine cannot drift apart.
func CanReview(r *http.Request) bool {
	actor, ok := Actor(r)
	return ok && actor.Role.CanReview()
}

// CanManageCategories reports whether the current user can create/rename/delete
// categories. Restricted to admins and superadmins.
func CanManageCategories(r *http.Request) bool {
	return IsAdmin(r)
}

// CanManageUsers reports whether the current user can create/edit/delete user
// accounts. Restricted to superadmins.
func CanManageUsers(r *http.Request) bool {
	return IsSuperAdmin(r)
}
