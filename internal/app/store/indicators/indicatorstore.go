// internal/app/store/indicators/indicatorstore.go
package indicatorstore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"kpihub/internal/app/lifecycle"
	"kpihub/internal/domain/models"
)

// Store persists Indicator aggregates in the "indicators" collection. It
// satisfies lifecycle.IndicatorStore: Replace compare-and-swaps on the
// revision field so concurrent writers can never silently overwrite each
// other's embedded history.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("indicators")}
}

// Insert stores a fully built indicator. The lifecycle engine owns field
// initialization; this only writes.
func (s *Store) Insert(ctx context.Context, ind *models.Indicator) error {
	if ind.ID.IsZero() {
		ind.ID = primitive.NewObjectID()
	}
	_, err := s.c.InsertOne(ctx, ind)
	return err
}

// GetByID returns one indicator by its ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Indicator, error) {
	var ind models.Indicator
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&ind)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, lifecycle.NotFoundf("indicator %s not found", id.Hex())
	}
	if err != nil {
		return nil, err
	}
	return &ind, nil
}

// Replace writes the whole aggregate back, matching on the revision the
// caller read. A revision mismatch returns lifecycle.ErrStaleRevision so the
// engine can reload and retry.
func (s *Store) Replace(ctx context.Context, ind *models.Indicator) error {
	next := *ind
	next.Revision = ind.Revision + 1

	res, err := s.c.ReplaceOne(ctx,
		bson.M{"_id": ind.ID, "revision": ind.Revision},
		&next)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		n, err := s.c.CountDocuments(ctx, bson.M{"_id": ind.ID})
		if err != nil {
			return err
		}
		if n == 0 {
			return lifecycle.NotFoundf("indicator %s not found", ind.ID.Hex())
		}
		return lifecycle.ErrStaleRevision
	}
	return nil
}

// Delete removes one indicator.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return lifecycle.NotFoundf("indicator %s not found", id.Hex())
	}
	return nil
}

// DueForOverdue returns the ids of indicators still pending or submitted
// whose due date has passed.
func (s *Store) DueForOverdue(ctx context.Context, now time.Time) ([]primitive.ObjectID, error) {
	filter := bson.M{
		"status":   bson.M{"$in": []string{models.StatusPending, models.StatusSubmitted}},
		"due_date": bson.M{"$lt": now},
	}
	cur, err := s.c.Find(ctx, filter,
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids, nil
}

// Find returns indicators matching the given filter with optional find options.
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Indicator, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Indicator
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of indicators matching the given filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}

// ListFilter narrows List queries. Zero values mean "no constraint".
type ListFilter struct {
	Status     string
	CategoryID primitive.ObjectID
	Level2ID   primitive.ObjectID
	AssigneeID primitive.ObjectID
}

// BSON builds the Mongo filter document. Assignee matches either the
// individual assignee or group membership.
func (f ListFilter) BSON() bson.M {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if !f.CategoryID.IsZero() {
		filter["category_id"] = f.CategoryID
	}
	if !f.Level2ID.IsZero() {
		filter["level2_id"] = f.Level2ID
	}
	if !f.AssigneeID.IsZero() {
		filter["$or"] = []bson.M{
			{"assigned_to": f.AssigneeID},
			{"assigned_group": f.AssigneeID},
		}
	}
	return filter
}

// List returns one page of indicators, newest first, plus the total match
// count for the filter.
func (s *Store) List(ctx context.Context, f ListFilter, skip, limit int64) ([]models.Indicator, int64, error) {
	filter := f.BSON()
	total, err := s.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip)
	if limit > 0 {
		opts.SetLimit(limit)
	}
	out, err := s.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
