// internal/domain/models/category.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category hierarchy levels. Indicators hang off a three-level tree:
// a level-1 main category, a level-2 subcategory, and a level-3 leaf whose
// name becomes the indicator title.
const (
	CategoryLevelMain      = 1
	CategoryLevelSub       = 2
	CategoryLevelIndicator = 3
)

// Category is one node in the indicator category tree. ParentID is nil for
// level-1 nodes and required for deeper levels.
type Category struct {
	ID       primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name     string              `bson:"name" json:"name"`
	NameCI   string              `bson:"name_ci" json:"name_ci"` // lowercase, diacritics-stripped
	Level    int                 `bson:"level" json:"level"`
	ParentID *primitive.ObjectID `bson:"parent_id,omitempty" json:"parent_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsChildOf reports whether the category's parent is the given ID.
func (c *Category) IsChildOf(parent primitive.ObjectID) bool {
	return c.ParentID != nil && *c.ParentID == parent
}
