// internal/app/store/notifications/store.go
package notifications

import (
	"context"
	"time"

	"kpihub/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store manages in-app notifications.
type Store struct {
	c *mongo.Collection
}

// New creates a new notifications Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("notifications")}
}

// Create records a notification for one user.
func (s *Store) Create(ctx context.Context, n models.Notification) (primitive.ObjectID, error) {
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, n); err != nil {
		return primitive.NilObjectID, err
	}
	return n.ID, nil
}

// CreateMany records one notification per user, used for role broadcasts.
func (s *Store) CreateMany(ctx context.Context, ns []models.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	now := time.Now().UTC()
	docs := make([]any, 0, len(ns))
	for _, n := range ns {
		if n.ID.IsZero() {
			n.ID = primitive.NewObjectID()
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = now
		}
		docs = append(docs, n)
	}
	_, err := s.c.InsertMany(ctx, docs)
	return err
}

// ListForUser retrieves a user's notifications, newest first.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID, unreadOnly bool, skip, limit int64) ([]models.Notification, int64, error) {
	filter := bson.M{"user_id": userID}
	if unreadOnly {
		filter["read"] = false
	}

	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var out []models.Notification
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// CountUnread returns the number of unread notifications for a user.
func (s *Store) CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"user_id": userID, "read": false})
}

// MarkRead marks one notification as read. The user filter keeps users from
// marking each other's notifications.
func (s *Store) MarkRead(ctx context.Context, userID, notificationID primitive.ObjectID) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": notificationID, "user_id": userID},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// MarkAllRead marks every unread notification for a user as read and returns
// how many were updated.
func (s *Store) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"user_id": userID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// DeleteOlderThan removes read notifications created before the cutoff.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{
		"read":       true,
		"created_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
