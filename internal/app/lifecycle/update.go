// internal/app/lifecycle/update.go
package lifecycle

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"kpihub/internal/domain/models"
)

// Patch carries the generic-update fields. Nil pointers mean "leave alone".
// The indicator title is resolved from the category tree at creation and is
// not patchable.
type Patch struct {
	Unit         *string
	StartDate    *time.Time
	DueDate      *time.Time
	NextDeadline *time.Time
	Status       *string

	AssignedTo    *primitive.ObjectID
	AssignedGroup *[]primitive.ObjectID

	// EvidenceDescriptions maps evidence id (hex) to a new description.
	EvidenceDescriptions map[string]string
}

// Update applies the patch to the tracked fields, recording one edit
// history entry per call that aggregates every changed field. Sealed
// records reject the update for everyone below superadmin. Status changes
// through this path are limited to transitions the state machine permits.
func (s *Service) Update(ctx context.Context, id primitive.ObjectID, patch Patch, actor Actor) (*models.Indicator, error) {
	if patch.Status != nil && !models.ValidStatus(*patch.Status) {
		return nil, Validationf("unknown status %q", *patch.Status)
	}

	ind, err := s.mutate(ctx, id, func(ind *models.Indicator) error {
		if !actor.Role.CanEdit(ind.IsSealed()) {
			if ind.IsSealed() {
				return Authorizationf("indicator %s is sealed", id.Hex())
			}
			return Authorizationf("role %s cannot edit indicators", actor.Role)
		}

		changes := map[string]models.FieldChange{}

		if patch.Unit != nil {
			applyString(changes, "unit", &ind.Unit, strings.TrimSpace(*patch.Unit))
		}
		if patch.StartDate != nil {
			applyTime(changes, "start_date", &ind.StartDate, *patch.StartDate)
		}
		if patch.DueDate != nil {
			applyTime(changes, "due_date", &ind.DueDate, *patch.DueDate)
		}
		if !ind.DueDate.After(ind.StartDate) {
			return Validationf("due date must be after start date")
		}
		if patch.NextDeadline != nil {
			old := ""
			if ind.NextDeadline != nil {
				old = ind.NextDeadline.Format(time.RFC3339)
			}
			nw := patch.NextDeadline.Format(time.RFC3339)
			if old != nw {
				changes["next_deadline"] = models.FieldChange{Old: old, New: nw}
				t := *patch.NextDeadline
				ind.NextDeadline = &t
			}
		}
		if patch.AssignedTo != nil {
			old := ""
			if ind.AssignedTo != nil {
				old = ind.AssignedTo.Hex()
			}
			if old != patch.AssignedTo.Hex() {
				changes["assigned_to"] = models.FieldChange{Old: old, New: patch.AssignedTo.Hex()}
				v := *patch.AssignedTo
				ind.AssignedTo = &v
				ind.AssignMode = models.AssignIndividual
			}
		}
		if patch.AssignedGroup != nil {
			old := joinIDs(ind.AssignedGroup)
			nw := joinIDs(*patch.AssignedGroup)
			if old != nw {
				changes["assigned_group"] = models.FieldChange{Old: old, New: nw}
				ind.AssignedGroup = *patch.AssignedGroup
				if ind.AssignedTo == nil {
					ind.AssignMode = models.AssignGroup
				}
			}
		}
		if ind.AssignedTo == nil && len(ind.AssignedGroup) == 0 {
			return Validationf("an indicator needs an individual assignee or a non-empty group")
		}
		if patch.Status != nil && *patch.Status != ind.Status {
			if !canTransition(ind.Status, *patch.Status) {
				return Conflictf("cannot move status from %q to %q", ind.Status, *patch.Status)
			}
			changes["status"] = models.FieldChange{Old: ind.Status, New: *patch.Status}
			ind.Status = *patch.Status
		}

		for hexID, desc := range patch.EvidenceDescriptions {
			evID, err := primitive.ObjectIDFromHex(hexID)
			if err != nil {
				return Validationf("malformed evidence id %q", hexID)
			}
			ev := ind.FindEvidence(evID)
			if ev == nil {
				return NotFoundf("evidence %s not found on indicator %s", hexID, id.Hex())
			}
			desc = strings.TrimSpace(desc)
			if ev.Description != desc {
				changes["evidence."+hexID+".description"] = models.FieldChange{Old: ev.Description, New: desc}
				ev.Description = desc
			}
		}

		if len(changes) > 0 {
			ind.EditHistory = append(ind.EditHistory, models.EditEntry{
				EditorID:  actor.ID,
				CreatedAt: s.now(),
				Changes:   changes,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, AuditEvent{
		EventType:   EventIndicatorUpdated,
		ActorID:     actor.ID,
		IndicatorID: ind.ID,
	})

	return ind, nil
}

// canTransition guards status changes arriving through the generic update
// path. The named operations (review, score, evidence submission, overdue
// sweep) own their transitions; this table only admits the moves those
// operations could have made, so a patch can never invent a state jump.
func canTransition(from, to string) bool {
	switch from {
	case models.StatusPending:
		return to == models.StatusSubmitted || to == models.StatusOverdue
	case models.StatusSubmitted:
		return to == models.StatusApproved || to == models.StatusRejected ||
			to == models.StatusPartiallyCompleted || to == models.StatusOverdue
	case models.StatusOverdue:
		return to == models.StatusSubmitted || to == models.StatusRejected ||
			to == models.StatusApproved
	case models.StatusRejected:
		return to == models.StatusSubmitted
	case models.StatusApproved:
		return to == models.StatusCompleted
	case models.StatusPartiallyCompleted:
		return to == models.StatusSubmitted || to == models.StatusCompleted
	default:
		return false
	}
}

func applyString(changes map[string]models.FieldChange, field string, dst *string, val string) {
	if *dst == val {
		return
	}
	changes[field] = models.FieldChange{Old: *dst, New: val}
	*dst = val
}

func applyTime(changes map[string]models.FieldChange, field string, dst *time.Time, val time.Time) {
	if dst.Equal(val) {
		return
	}
	changes[field] = models.FieldChange{Old: dst.Format(time.RFC3339), New: val.Format(time.RFC3339)}
	*dst = val
}

func joinIDs(ids []primitive.ObjectID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.Hex()
	}
	return strings.Join(parts, ",")
}
