// internal/app/lifecycle/delete.go
package lifecycle

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Delete removes an indicator and releases every evidence blob through the
// storage collaborator. Blob cleanup is best-effort: an individual release
// failure is logged and deletion proceeds.
func (s *Service) Delete(ctx context.Context, id primitive.ObjectID, actor Actor) error {
	if !actor.Role.CanDeleteIndicator() {
		return Authorizationf("role %s cannot delete indicators", actor.Role)
	}

	ind, err := s.indicators.GetByID(ctx, id)
	if err != nil {
		return err
	}

	for _, ev := range ind.Evidence {
		if ev.PublicID == "" {
			continue
		}
		if err := s.blobs.Release(ctx, ev.PublicID, ev.ResourceKind); err != nil {
			s.log.Warn("blob release failed during delete",
				zap.String("indicator_id", id.Hex()),
				zap.String("public_id", ev.PublicID),
				zap.Error(err))
		}
	}

	if err := s.indicators.Delete(ctx, id); err != nil {
		return err
	}

	s.record(ctx, AuditEvent{
		EventType:   EventIndicatorDeleted,
		ActorID:     actor.ID,
		IndicatorID: id,
		Details:     map[string]string{"title": ind.IndicatorTitle},
	})

	return nil
}
