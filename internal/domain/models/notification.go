// internal/domain/models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification kinds used by the lifecycle engine.
const (
	NotifyAssignment = "assignment"
	NotifyRejection  = "rejection"
	NotifyApproval   = "approval"
	NotifyOverdue    = "overdue"
)

// Notification is one delivered in-app message. Role broadcasts fan out to
// one record per matching user.
type Notification struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID primitive.ObjectID `bson:"user_id" json:"user_id"`

	Title   string `bson:"title" json:"title"`
	Message string `bson:"message" json:"message"`
	Kind    string `bson:"kind" json:"kind"`

	// Metadata carries references back to the triggering record,
	// e.g. {"indicator_id": "..."}.
	Metadata map[string]string `bson:"metadata,omitempty" json:"metadata,omitempty"`

	Read      bool      `bson:"read" json:"read"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
