// internal/app/lifecycle/review.go
package lifecycle

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"kpihub/internal/app/policy/indicatorpolicy"
	"kpihub/internal/domain/models"
)

// Review actions.
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// ReviewInput parameterizes one review decision.
type ReviewInput struct {
	Action     string
	Remark     string
	ReportData map[string]string
}

// Review applies an approve or reject decision.
//
// Reject requires a non-empty remark and leaves the record rejected with
// progress 0, result fail, and an incremented rejection count. Approve by
// an admin is the first-stage sign-off (approved, progress 100, pass);
// approve by a superadmin is the final ratification (completed), the only
// approve path that reaches completed. Both actions stamp the reviewer,
// append any supplied remark as a note, and merge supplied report data
// unconditionally.
func (s *Service) Review(ctx context.Context, id primitive.ObjectID, in ReviewInput, actor Actor) (*models.Indicator, error) {
	if !actor.Role.CanReview() {
		return nil, Authorizationf("role %s cannot review indicators", actor.Role)
	}

	remark := strings.TrimSpace(in.Remark)
	switch in.Action {
	case ActionApprove:
		// ok
	case ActionReject:
		if remark == "" {
			return nil, Validationf("a rejection requires a remark")
		}
	default:
		return nil, Validationf("unknown review action %q", in.Action)
	}

	ind, err := s.mutate(ctx, id, func(ind *models.Indicator) error {
		if ind.IsSealed() {
			return Authorizationf("indicator %s is already completed", id.Hex())
		}

		now := s.now()
		switch in.Action {
		case ActionReject:
			ind.Status = models.StatusRejected
			ind.Progress = 0
			ind.Result = models.ResultFail
			ind.RejectionCount++
		case ActionApprove:
			ind.Progress = 100
			ind.Result = models.ResultPass
			if actor.Role == indicatorpolicy.RoleSuperAdmin {
				ind.Status = models.StatusCompleted
			} else {
				ind.Status = models.StatusApproved
			}
		}

		ind.ReviewedByID = &actor.ID
		ind.ReviewedAt = &now
		if remark != "" {
			ind.Notes = append(ind.Notes, models.Note{
				Text:       remark,
				AuthorID:   actor.ID,
				AuthorName: actor.Name,
				CreatedAt:  now,
			})
		}
		mergeReportData(ind, in.ReportData)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if in.Action == ActionReject {
		s.record(ctx, AuditEvent{
			EventType:   EventIndicatorRejected,
			ActorID:     actor.ID,
			IndicatorID: ind.ID,
			Details:     map[string]string{"remark": remark},
		})
		s.notifyAssignees(ctx, ind, models.NotifyRejection,
			"Indicator rejected",
			"Your submission for \""+ind.IndicatorTitle+"\" was rejected: "+remark,
			rejectionMailBuilder(ind, remark))
	} else {
		s.record(ctx, AuditEvent{
			EventType:   EventIndicatorApproved,
			ActorID:     actor.ID,
			IndicatorID: ind.ID,
			Details:     map[string]string{"status": ind.Status},
		})
		s.notifyAssignees(ctx, ind, models.NotifyApproval,
			"Indicator approved",
			"Your submission for \""+ind.IndicatorTitle+"\" was approved.",
			approvalMailBuilder(ind))
	}

	return ind, nil
}

// mergeReportData copies the supplied keys onto the indicator's report
// payload, overwriting on collision.
func mergeReportData(ind *models.Indicator, data map[string]string) {
	if len(data) == 0 {
		return
	}
	if ind.ReportData == nil {
		ind.ReportData = make(map[string]string, len(data))
	}
	for k, v := range data {
		ind.ReportData[k] = v
	}
}

func rejectionMailBuilder(ind *models.Indicator, remark string) func(u *models.User) Mail {
	return func(u *models.User) Mail {
		return Mail{
			Subject: "Indicator rejected: " + ind.IndicatorTitle,
			Text: "Hello " + u.FullName + ",\n\nYour submission for \"" + ind.IndicatorTitle +
				"\" was rejected.\n\nReviewer remark: " + remark + "\n\nPlease revise and resubmit your evidence.\n",
			HTML: "<p>Hello " + u.FullName + ",</p><p>Your submission for <strong>" + ind.IndicatorTitle +
				"</strong> was rejected.</p><p>Reviewer remark: " + remark + "</p><p>Please revise and resubmit your evidence.</p>",
		}
	}
}

func approvalMailBuilder(ind *models.Indicator) func(u *models.User) Mail {
	return func(u *models.User) Mail {
		return Mail{
			Subject: "Indicator approved: " + ind.IndicatorTitle,
			Text: "Hello " + u.FullName + ",\n\nYour submission for \"" + ind.IndicatorTitle +
				"\" has been approved.\n",
			HTML: "<p>Hello " + u.FullName + ",</p><p>Your submission for <strong>" + ind.IndicatorTitle +
				"</strong> has been approved.</p>",
		}
	}
}
