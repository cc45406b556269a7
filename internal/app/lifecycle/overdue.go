// internal/app/lifecycle/overdue.go
package lifecycle

import (
	"context"

	"go.uber.org/zap"

	"kpihub/internal/domain/models"
)

// MarkOverdue stamps every pending or submitted indicator whose due date
// has passed. It is invoked by the sweep worker, never by a timer inside
// the engine. The overdue status is orthogonal: the next real transition
// (resubmission, review) simply overwrites it.
//
// Returns the number of indicators stamped.
func (s *Service) MarkOverdue(ctx context.Context) (int, error) {
	ids, err := s.indicators.DueForOverdue(ctx, s.now())
	if err != nil {
		return 0, err
	}

	stamped := 0
	for _, id := range ids {
		ind, err := s.mutate(ctx, id, func(ind *models.Indicator) error {
			// Re-check under the CAS read; the record may have transitioned
			// between the sweep query and this write.
			if ind.Status != models.StatusPending && ind.Status != models.StatusSubmitted {
				return Conflictf("indicator %s is no longer due", id.Hex())
			}
			if !s.now().After(ind.DueDate) {
				return Conflictf("indicator %s is not past due", id.Hex())
			}
			ind.Status = models.StatusOverdue
			return nil
		})
		if err != nil {
			if IsConflict(err) {
				continue
			}
			s.log.Warn("overdue stamp failed", zap.String("indicator_id", id.Hex()), zap.Error(err))
			continue
		}
		stamped++

		s.record(ctx, AuditEvent{
			EventType:   EventMarkedOverdue,
			IndicatorID: ind.ID,
		})
		s.notifyAssignees(ctx, ind, models.NotifyOverdue,
			"Indicator overdue",
			"The indicator \""+ind.IndicatorTitle+"\" is past its due date.",
			nil)
	}
	return stamped, nil
}
