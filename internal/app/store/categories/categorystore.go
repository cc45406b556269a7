// internal/app/store/categories/categorystore.go
package categorystore

import (
	"context"
	"errors"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"kpihub/internal/app/lifecycle"
	"kpihub/internal/domain/models"
)

var (
	ErrDuplicateName = errors.New("a category with this name already exists under the same parent")
	ErrHasChildren   = errors.New("category still has child nodes")
	ErrInUse         = errors.New("category is referenced by indicators")
)

// Store persists the three-level category tree. It satisfies
// lifecycle.CategoryDirectory.
type Store struct {
	c          *mongo.Collection
	indicators *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:          db.Collection("categories"),
		indicators: db.Collection("indicators"),
	}
}

// Create inserts a new category node, setting NameCI and timestamps. Level
// and parent must agree: level 1 has no parent, deeper levels need a parent
// exactly one level up.
func (s *Store) Create(ctx context.Context, cat models.Category) (models.Category, error) {
	now := time.Now().UTC()

	cat.ID = primitive.NewObjectID()
	cat.Name = strings.TrimSpace(cat.Name)
	cat.NameCI = text.Fold(cat.Name)
	cat.CreatedAt = now
	cat.UpdatedAt = now

	if cat.Name == "" {
		return models.Category{}, lifecycle.Validationf("category name is required")
	}
	switch cat.Level {
	case models.CategoryLevelMain:
		if cat.ParentID != nil {
			return models.Category{}, lifecycle.Validationf("a main category cannot have a parent")
		}
	case models.CategoryLevelSub, models.CategoryLevelIndicator:
		if cat.ParentID == nil {
			return models.Category{}, lifecycle.Validationf("a level %d category needs a parent", cat.Level)
		}
		parent, err := s.GetByID(ctx, *cat.ParentID)
		if err != nil {
			return models.Category{}, err
		}
		if parent.Level != cat.Level-1 {
			return models.Category{}, lifecycle.Validationf(
				"parent of a level %d category must be level %d", cat.Level, cat.Level-1)
		}
	default:
		return models.Category{}, lifecycle.Validationf("level must be 1, 2, or 3")
	}

	_, err := s.c.InsertOne(ctx, cat)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Category{}, ErrDuplicateName
		}
		return models.Category{}, err
	}
	return cat, nil
}

// GetByID returns one category node.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	var cat models.Category
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&cat)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, lifecycle.NotFoundf("category %s not found", id.Hex())
	}
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// Rename updates a node's name and refreshes UpdatedAt.
func (s *Store) Rename(ctx context.Context, id primitive.ObjectID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return lifecycle.Validationf("category name is required")
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"name":       name,
		"name_ci":    text.Fold(name),
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateName
		}
		return err
	}
	if res.MatchedCount == 0 {
		return lifecycle.NotFoundf("category %s not found", id.Hex())
	}
	return nil
}

// Children returns the direct children of a node, sorted by name.
func (s *Store) Children(ctx context.Context, parentID primitive.ObjectID) ([]models.Category, error) {
	cur, err := s.c.Find(ctx, bson.M{"parent_id": parentID},
		options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Category
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByLevel returns every node at a level, sorted by name.
func (s *Store) ListByLevel(ctx context.Context, level int) ([]models.Category, error) {
	cur, err := s.c.Find(ctx, bson.M{"level": level},
		options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Category
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a node. A node with children, or one referenced by an
// indicator, cannot be deleted.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	children, err := s.c.CountDocuments(ctx, bson.M{"parent_id": id})
	if err != nil {
		return err
	}
	if children > 0 {
		return ErrHasChildren
	}

	refs, err := s.indicators.CountDocuments(ctx, bson.M{"$or": []bson.M{
		{"category_id": id},
		{"level2_id": id},
	}})
	if err != nil {
		return err
	}
	if refs > 0 {
		return ErrInUse
	}

	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return lifecycle.NotFoundf("category %s not found", id.Hex())
	}
	return nil
}
