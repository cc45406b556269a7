// internal/domain/models/indicator.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Indicator statuses. Transitions between them are owned by the lifecycle
// engine (internal/app/lifecycle); nothing else writes Status directly.
const (
	StatusPending            = "pending"
	StatusSubmitted          = "submitted"
	StatusApproved           = "approved"
	StatusCompleted          = "completed"
	StatusRejected           = "rejected"
	StatusPartiallyCompleted = "partially_completed"
	StatusOverdue            = "overdue"
)

// Review results.
const (
	ResultPass = "pass"
	ResultFail = "fail"
)

// Assignment modes.
const (
	AssignIndividual = "individual"
	AssignGroup      = "group"
)

// Evidence statuses.
const (
	EvidenceActive   = "active"
	EvidenceArchived = "archived"
	EvidenceRejected = "rejected"
)

// Indicator is the aggregate root for one performance indicator. It
// exclusively owns its embedded Evidence/Note/ScoreHistory/EditHistory
// collections; category and user references are lookup-only.
type Indicator struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	// Category references (weak). IndicatorTitle is resolved from the
	// level-3 leaf category once at creation and never changes.
	CategoryID     primitive.ObjectID `bson:"category_id" json:"category_id"`
	Level2ID       primitive.ObjectID `bson:"level2_id" json:"level2_id"`
	IndicatorTitle string             `bson:"indicator_title" json:"indicator_title"`

	Unit string `bson:"unit,omitempty" json:"unit,omitempty"`

	// Assignment. Exactly one of AssignedTo / AssignedGroup must be set at
	// creation; union semantics apply when both are present.
	AssignMode    string               `bson:"assign_mode" json:"assign_mode"`
	AssignedTo    *primitive.ObjectID  `bson:"assigned_to,omitempty" json:"assigned_to,omitempty"`
	AssignedGroup []primitive.ObjectID `bson:"assigned_group,omitempty" json:"assigned_group,omitempty"`

	StartDate    time.Time  `bson:"start_date" json:"start_date"`
	DueDate      time.Time  `bson:"due_date" json:"due_date"`
	NextDeadline *time.Time `bson:"next_deadline,omitempty" json:"next_deadline,omitempty"`

	Progress int    `bson:"progress" json:"progress"` // 0..100
	Status   string `bson:"status" json:"status"`
	Result   string `bson:"result,omitempty" json:"result,omitempty"` // pass | fail | ""

	RejectionCount int `bson:"rejection_count" json:"rejection_count"`

	ReviewedByID *primitive.ObjectID `bson:"reviewed_by_id,omitempty" json:"reviewed_by_id,omitempty"`
	ReviewedAt   *time.Time          `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`

	// Free-form report payload merged in by reviewers.
	ReportData map[string]string `bson:"report_data,omitempty" json:"report_data,omitempty"`

	Evidence     []Evidence   `bson:"evidence,omitempty" json:"evidence,omitempty"`
	Notes        []Note       `bson:"notes,omitempty" json:"notes,omitempty"`
	ScoreHistory []ScoreEntry `bson:"score_history,omitempty" json:"score_history,omitempty"`
	EditHistory  []EditEntry  `bson:"edit_history,omitempty" json:"edit_history,omitempty"`

	// Revision supports compare-and-swap saves; bumped on every write.
	Revision int64 `bson:"revision" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`

	CreatedByID primitive.ObjectID `bson:"created_by_id" json:"created_by_id"`
}

// Evidence is one uploaded artifact attached to an indicator. Entries are
// never physically removed on resubmission; they are stamped archived.
type Evidence struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	FileName    string             `bson:"file_name" json:"file_name"`
	FileSize    int64              `bson:"file_size" json:"file_size"`
	ContentType string             `bson:"content_type,omitempty" json:"content_type,omitempty"`
	Description string             `bson:"description" json:"description"`

	// Storage reference, filled from the blob storage collaborator.
	PublicID     string `bson:"public_id" json:"public_id"`
	ResourceKind string `bson:"resource_kind,omitempty" json:"resource_kind,omitempty"`
	AccessTier   string `bson:"access_tier,omitempty" json:"access_tier,omitempty"`
	Format       string `bson:"format,omitempty" json:"format,omitempty"`
	SecureURL    string `bson:"secure_url,omitempty" json:"secure_url,omitempty"`

	Status     string     `bson:"status" json:"status"` // active | rejected | archived
	ArchivedAt *time.Time `bson:"archived_at,omitempty" json:"archived_at,omitempty"`

	IsResubmission bool `bson:"is_resubmission" json:"is_resubmission"`
	Attempt        int  `bson:"attempt" json:"attempt"`

	UploadedByID primitive.ObjectID `bson:"uploaded_by_id" json:"uploaded_by_id"`
	UploadedAt   time.Time          `bson:"uploaded_at" json:"uploaded_at"`
}

// Note is an immutable free-text entry. Append-only.
type Note struct {
	Text       string             `bson:"text" json:"text"`
	AuthorID   primitive.ObjectID `bson:"author_id" json:"author_id"`
	AuthorName string             `bson:"author_name,omitempty" json:"author_name,omitempty"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}

// ScoreEntry records one graded score. Append-only.
type ScoreEntry struct {
	Score         int                `bson:"score" json:"score"` // 0..100
	SubmittedByID primitive.ObjectID `bson:"submitted_by_id" json:"submitted_by_id"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
}

// FieldChange is one old/new pair inside an EditEntry.
type FieldChange struct {
	Old string `bson:"old" json:"old"`
	New string `bson:"new" json:"new"`
}

// EditEntry records one generic-update call that changed tracked fields.
// One entry per call, aggregating every changed field. Append-only.
type EditEntry struct {
	EditorID  primitive.ObjectID     `bson:"editor_id" json:"editor_id"`
	CreatedAt time.Time              `bson:"created_at" json:"created_at"`
	Changes   map[string]FieldChange `bson:"changes" json:"changes"`
}

// IsSealed reports whether the record is closed to ordinary mutation.
// Only superadmins may touch a sealed indicator.
func (i *Indicator) IsSealed() bool {
	return i.Status == StatusCompleted
}

// ActiveEvidence returns the evidence entries still marked active.
func (i *Indicator) ActiveEvidence() []Evidence {
	var out []Evidence
	for _, ev := range i.Evidence {
		if ev.Status == EvidenceActive {
			out = append(out, ev)
		}
	}
	return out
}

// FindEvidence returns a pointer into the embedded evidence slice, or nil.
func (i *Indicator) FindEvidence(id primitive.ObjectID) *Evidence {
	for idx := range i.Evidence {
		if i.Evidence[idx].ID == id {
			return &i.Evidence[idx]
		}
	}
	return nil
}

// AssigneeIDs returns the union of the individual assignee and the group,
// deduplicated, preserving first-seen order.
func (i *Indicator) AssigneeIDs() []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(i.AssignedGroup)+1)
	var out []primitive.ObjectID
	add := func(id primitive.ObjectID) {
		if _, dup := seen[id]; dup || id.IsZero() {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if i.AssignedTo != nil {
		add(*i.AssignedTo)
	}
	for _, id := range i.AssignedGroup {
		add(id)
	}
	return out
}

// IsAssignee reports whether the given user is the individual assignee or a
// member of the assigned group.
func (i *Indicator) IsAssignee(userID primitive.ObjectID) bool {
	for _, id := range i.AssigneeIDs() {
		if id == userID {
			return true
		}
	}
	return false
}

// ValidStatus reports whether s is one of the known indicator statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusSubmitted, StatusApproved, StatusCompleted,
		StatusRejected, StatusPartiallyCompleted, StatusOverdue:
		return true
	}
	return false
}
