// internal/app/system/notify/notify.go
package notify

import (
	"context"

	"kpihub/internal/app/store/notifications"
	userstore "kpihub/internal/app/store/users"
	"kpihub/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Sink delivers in-app notifications on behalf of the lifecycle engine.
// Role broadcasts fan out to one stored notification per matching user.
type Sink struct {
	store *notifications.Store
	users *userstore.Store
	log   *zap.Logger
}

// New creates a notification Sink.
func New(store *notifications.Store, userStore *userstore.Store, logger *zap.Logger) *Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{store: store, users: userStore, log: logger}
}

// Notify delivers one notification to one user.
func (s *Sink) Notify(ctx context.Context, userID primitive.ObjectID, title, message, kind string, metadata map[string]string) error {
	_, err := s.store.Create(ctx, models.Notification{
		UserID:   userID,
		Title:    title,
		Message:  message,
		Kind:     kind,
		Metadata: metadata,
	})
	return err
}

// EmitToRole delivers the notification to every user holding the role.
func (s *Sink) EmitToRole(ctx context.Context, role string, title, message, kind string, metadata map[string]string) error {
	recipients, err := s.users.ListByRole(ctx, role)
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		s.log.Debug("role broadcast had no recipients", zap.String("role", role))
		return nil
	}

	batch := make([]models.Notification, 0, len(recipients))
	for _, u := range recipients {
		batch = append(batch, models.Notification{
			UserID:   u.ID,
			Title:    title,
			Message:  message,
			Kind:     kind,
			Metadata: metadata,
		})
	}
	return s.store.CreateMany(ctx, batch)
}
