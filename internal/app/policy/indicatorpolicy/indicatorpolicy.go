// Package indicatorpolicy answers every capability question the indicator
// lifecycle asks about a caller.
//
// Roles form a closed enumeration. Raw role strings from sessions or the
// users collection are normalized exactly once, through ParseRole; nothing
// downstream compares role strings again.
//
// Authorization rules:
//   - Superadmin: creates, finally ratifies, and deletes indicators; may
//     mutate sealed (completed) records.
//   - Admin: reviews, scores, sets progress, edits non-sealed records.
//   - Member: submits evidence for indicators assigned to them and removes
//     evidence they uploaded.
package indicatorpolicy

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"kpihub/internal/domain/models"
)

// Role is the closed set of caller roles.
type Role int

const (
	// RoleVisitor is an unauthenticated or unknown caller. It holds no
	// capabilities; ParseRole falls back to it for unrecognized input.
	RoleVisitor Role = iota
	RoleMember
	RoleAdmin
	RoleSuperAdmin
)

// ParseRole maps a raw role string to a Role. Matching is case-insensitive
// and whitespace-tolerant; anything unrecognized becomes RoleVisitor.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "member":
		return RoleMember
	case "admin":
		return RoleAdmin
	case "superadmin":
		return RoleSuperAdmin
	default:
		return RoleVisitor
	}
}

// String returns the canonical lowercase name for the role.
func (r Role) String() string {
	switch r {
	case RoleMember:
		return "member"
	case RoleAdmin:
		return "admin"
	case RoleSuperAdmin:
		return "superadmin"
	default:
		return "visitor"
	}
}

// CanCreateIndicator reports whether the role may create indicators.
// Creation is restricted to the top authority.
func (r Role) CanCreateIndicator() bool {
	return r == RoleSuperAdmin
}

// CanDeleteIndicator reports whether the role may delete indicators.
func (r Role) CanDeleteIndicator() bool {
	return r == RoleSuperAdmin
}

// CanReview reports whether the role may approve or reject submissions.
func (r Role) CanReview() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// CanScore reports whether the role may submit graded scores.
func (r Role) CanScore() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// CanSetProgress reports whether the role may manually override progress.
func (r Role) CanSetProgress() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// CanEdit reports whether the role may apply a generic update to an
// indicator. Sealed records are edit-locked for everyone below superadmin.
func (r Role) CanEdit(sealed bool) bool {
	if r == RoleSuperAdmin {
		return true
	}
	if sealed {
		return false
	}
	return r == RoleAdmin
}

// CanSubmitEvidence reports whether the given user may attach evidence to
// the indicator. Only the individual assignee or a member of the assigned
// group qualifies, regardless of role.
func CanSubmitEvidence(ind *models.Indicator, userID primitive.ObjectID) bool {
	return ind.IsAssignee(userID)
}

// CanRemoveEvidence reports whether the given user may remove one evidence
// entry. Removal is uploader-only and never allowed on a sealed record.
func CanRemoveEvidence(ind *models.Indicator, ev *models.Evidence, userID primitive.ObjectID) bool {
	if ind.IsSealed() {
		return false
	}
	return ev.UploadedByID == userID
}
