// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"kpihub/internal/app/lifecycle"
	"kpihub/internal/app/store/audit"
)

// listItem is one audit event row with actor and target names resolved.
type listItem struct {
	ID          string            `json:"id"`
	Timestamp   time.Time         `json:"timestamp"`
	Category    string            `json:"category"`
	EventType   string            `json:"event_type"`
	ActorName   string            `json:"actor_name,omitempty"`
	TargetName  string            `json:"target_name,omitempty"`
	IndicatorID string            `json:"indicator_id,omitempty"`
	IP          string            `json:"ip,omitempty"`
	Success     bool              `json:"success"`
	Details     map[string]string `json:"details,omitempty"`
}

type listResponse struct {
	Items    []listItem `json:"items"`
	Total    int64      `json:"total"`
	Start    int        `json:"start"`
	PageSize int        `json:"page_size"`
}

// eventTypesForCategory returns the event types recorded under a
// category, or every known type for the empty string.
func eventTypesForCategory(category string) []string {
	authEvents := []string{
		audit.EventLoginSuccess,
		audit.EventLoginFailedUserNotFound,
		audit.EventLoginFailedWrongPassword,
		audit.EventLoginFailedUserDisabled,
		audit.EventLogout,
		audit.EventPasswordChanged,
	}

	adminEvents := []string{
		audit.EventUserCreated,
		audit.EventUserUpdated,
		audit.EventUserDisabled,
		audit.EventUserEnabled,
		audit.EventUserDeleted,
		audit.EventCategoryCreated,
		audit.EventCategoryRenamed,
		audit.EventCategoryDeleted,
	}

	lifecycleEvents := []string{
		lifecycle.EventIndicatorCreated,
		lifecycle.EventIndicatorUpdated,
		lifecycle.EventIndicatorDeleted,
		lifecycle.EventEvidenceSubmitted,
		lifecycle.EventEvidenceRemoved,
		lifecycle.EventIndicatorApproved,
		lifecycle.EventIndicatorRejected,
		lifecycle.EventScoreSubmitted,
		lifecycle.EventProgressSet,
		lifecycle.EventMarkedOverdue,
	}

	switch category {
	case audit.CategoryAuth:
		return authEvents
	case audit.CategoryAdmin:
		return adminEvents
	case audit.CategoryLifecycle:
		return lifecycleEvents
	case "":
		all := make([]string, 0, len(authEvents)+len(adminEvents)+len(lifecycleEvents))
		all = append(all, authEvents...)
		all = append(all, adminEvents...)
		all = append(all, lifecycleEvents...)
		return all
	default:
		return nil
	}
}
