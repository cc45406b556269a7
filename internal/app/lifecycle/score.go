// internal/app/lifecycle/score.go
package lifecycle

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"kpihub/internal/domain/models"
)

// ScoreInput parameterizes one graded score submission.
type ScoreInput struct {
	Score        int
	Note         string
	NextDeadline *time.Time
}

// SubmitScore grades an indicator incrementally instead of approving it
// wholesale. The score becomes the progress; 100 finalizes the record
// exactly like a superadmin approval (completed, pass, reviewer stamp), a
// positive partial score parks it at partially_completed with an optional
// next deadline. A score entry is always appended; an edit history entry is
// appended only when the score actually changed the progress value.
func (s *Service) SubmitScore(ctx context.Context, id primitive.ObjectID, in ScoreInput, actor Actor) (*models.Indicator, error) {
	if !actor.Role.CanScore() {
		return nil, Authorizationf("role %s cannot submit scores", actor.Role)
	}
	if in.Score < 0 || in.Score > 100 {
		return nil, Validationf("score must be between 0 and 100, got %d", in.Score)
	}

	note := strings.TrimSpace(in.Note)

	ind, err := s.mutate(ctx, id, func(ind *models.Indicator) error {
		if ind.IsSealed() && !actor.Role.CanEdit(true) {
			return Authorizationf("indicator %s is sealed", id.Hex())
		}

		now := s.now()
		prev := ind.Progress
		ind.Progress = in.Score

		switch {
		case in.Score == 100:
			// Terminal shape is identical to the approve path: completed,
			// pass, reviewer stamped.
			ind.Status = models.StatusCompleted
			ind.Result = models.ResultPass
			ind.ReviewedByID = &actor.ID
			ind.ReviewedAt = &now
		case in.Score > 0:
			ind.Status = models.StatusPartiallyCompleted
			ind.Result = ""
			if in.NextDeadline != nil {
				t := *in.NextDeadline
				ind.NextDeadline = &t
			}
		}

		ind.ScoreHistory = append(ind.ScoreHistory, models.ScoreEntry{
			Score:         in.Score,
			SubmittedByID: actor.ID,
			CreatedAt:     now,
		})
		if note != "" {
			ind.Notes = append(ind.Notes, models.Note{
				Text:       note,
				AuthorID:   actor.ID,
				AuthorName: actor.Name,
				CreatedAt:  now,
			})
		}
		if prev != in.Score {
			ind.EditHistory = append(ind.EditHistory, models.EditEntry{
				EditorID:  actor.ID,
				CreatedAt: now,
				Changes: map[string]models.FieldChange{
					"progress": {Old: strconv.Itoa(prev), New: strconv.Itoa(in.Score)},
				},
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, AuditEvent{
		EventType:   EventScoreSubmitted,
		ActorID:     actor.ID,
		IndicatorID: ind.ID,
		Details:     map[string]string{"score": strconv.Itoa(in.Score)},
	})

	if ind.Status == models.StatusCompleted {
		s.notifyAssignees(ctx, ind, models.NotifyApproval,
			"Indicator completed",
			"Your indicator \""+ind.IndicatorTitle+"\" was graded 100 and is complete.",
			approvalMailBuilder(ind))
	}

	return ind, nil
}

// UpdateProgress manually overrides the progress value. It changes nothing
// else: no status move, no result, no history entries. A partial score can
// therefore be recorded without prematurely marking work reviewed.
func (s *Service) UpdateProgress(ctx context.Context, id primitive.ObjectID, value int, actor Actor) (*models.Indicator, error) {
	if !actor.Role.CanSetProgress() {
		return nil, Authorizationf("role %s cannot set progress", actor.Role)
	}
	if value < 0 || value > 100 {
		return nil, Validationf("progress must be between 0 and 100, got %d", value)
	}

	ind, err := s.mutate(ctx, id, func(ind *models.Indicator) error {
		if ind.IsSealed() && !actor.Role.CanEdit(true) {
			return Authorizationf("indicator %s is sealed", id.Hex())
		}
		ind.Progress = value
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, AuditEvent{
		EventType:   EventProgressSet,
		ActorID:     actor.ID,
		IndicatorID: ind.ID,
		Details:     map[string]string{"progress": strconv.Itoa(value)},
	})

	return ind, nil
}
