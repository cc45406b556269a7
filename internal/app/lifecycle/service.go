// Package lifecycle is the indicator lifecycle engine: the status state
// machine, the evidence versioning model, the two-stage review protocol,
// and the append-only audit subsystems that must stay consistent under it.
//
// The engine is the single entry point for creating and mutating an
// Indicator. Routing, authentication, physical file storage, mail delivery,
// and notification transport are collaborators behind the interfaces below;
// the engine validates everything before mutating anything, commits the
// state change, and treats downstream side effects as best-effort.
package lifecycle

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"kpihub/internal/app/policy/indicatorpolicy"
	"kpihub/internal/domain/models"
)

// casRetries bounds compare-and-swap retry loops. Write rates per record are
// human-paced, so contention beyond a couple of rounds means a bug.
const casRetries = 3

// Actor identifies who is performing an operation.
type Actor struct {
	ID   primitive.ObjectID
	Name string
	Role indicatorpolicy.Role
}

// IndicatorStore persists whole Indicator aggregates. Replace must
// compare-and-swap on Indicator.Revision and return ErrStaleRevision when
// the stored revision no longer matches.
type IndicatorStore interface {
	Insert(ctx context.Context, ind *models.Indicator) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Indicator, error)
	Replace(ctx context.Context, ind *models.Indicator) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// DueForOverdue returns ids of indicators still pending or submitted
	// whose due date is before now.
	DueForOverdue(ctx context.Context, now time.Time) ([]primitive.ObjectID, error)
}

// CategoryDirectory resolves category nodes for hierarchy validation and
// indicator title resolution.
type CategoryDirectory interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error)
}

// UserDirectory resolves users for notification and mail fan-out.
type UserDirectory interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// StoredObject is the storage reference returned for one uploaded blob.
type StoredObject struct {
	PublicID     string
	ResourceKind string
	AccessTier   string
	Format       string
	SecureURL    string
}

// BlobStorage stores and releases evidence binaries. Release is best-effort
// from the engine's point of view: failures are logged, never propagated.
type BlobStorage interface {
	Store(ctx context.Context, data []byte, folder, name, contentType string) (StoredObject, error)
	Release(ctx context.Context, publicID, resourceKind string) error
}

// NotificationSink delivers in-app notifications.
type NotificationSink interface {
	Notify(ctx context.Context, userID primitive.ObjectID, title, message, kind string, metadata map[string]string) error
	EmitToRole(ctx context.Context, role string, title, message, kind string, metadata map[string]string) error
}

// Mail is one outbound message handed to the Mailer.
type Mail struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Mailer sends mail. Failures never roll back a committed transition.
type Mailer interface {
	Send(ctx context.Context, m Mail) error
}

// AuditEvent is the engine's record of one state change for the audit log.
type AuditEvent struct {
	EventType   string
	ActorID     primitive.ObjectID
	IndicatorID primitive.ObjectID
	Details     map[string]string
}

// AuditRecorder receives lifecycle audit events. Recording is fire-and-
// forget; a nil recorder is a no-op.
type AuditRecorder interface {
	Record(ctx context.Context, e AuditEvent)
}

// Audit event types emitted by the engine.
const (
	EventIndicatorCreated  = "indicator_created"
	EventIndicatorUpdated  = "indicator_updated"
	EventIndicatorDeleted  = "indicator_deleted"
	EventEvidenceSubmitted = "evidence_submitted"
	EventEvidenceRemoved   = "evidence_removed"
	EventIndicatorApproved = "indicator_approved"
	EventIndicatorRejected = "indicator_rejected"
	EventScoreSubmitted    = "score_submitted"
	EventProgressSet       = "progress_set"
	EventMarkedOverdue     = "marked_overdue"
)

// Service coordinates the indicator lifecycle against its collaborators.
type Service struct {
	indicators IndicatorStore
	categories CategoryDirectory
	users      UserDirectory
	blobs      BlobStorage
	notify     NotificationSink
	mailer     Mailer
	audit      AuditRecorder
	log        *zap.Logger

	now func() time.Time
}

// New constructs a lifecycle Service. notify, mailer, and audit may be nil;
// the engine then skips the corresponding side effects.
func New(indicators IndicatorStore, categories CategoryDirectory, users UserDirectory,
	blobs BlobStorage, notify NotificationSink, mailer Mailer, audit AuditRecorder,
	logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		indicators: indicators,
		categories: categories,
		users:      users,
		blobs:      blobs,
		notify:     notify,
		mailer:     mailer,
		audit:      audit,
		log:        logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Get loads one indicator.
func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*models.Indicator, error) {
	return s.indicators.GetByID(ctx, id)
}

// mutate runs a read-modify-write cycle with compare-and-swap retry. fn
// must do all validation before touching the record; it may be re-invoked
// on a fresh copy when the write loses a race.
func (s *Service) mutate(ctx context.Context, id primitive.ObjectID, fn func(ind *models.Indicator) error) (*models.Indicator, error) {
	var lastErr error
	for attempt := 0; attempt < casRetries; attempt++ {
		ind, err := s.indicators.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := fn(ind); err != nil {
			return nil, err
		}
		ind.UpdatedAt = s.now()
		if err := s.indicators.Replace(ctx, ind); err != nil {
			if errors.Is(err, ErrStaleRevision) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return ind, nil
	}
	return nil, Conflictf("indicator %s is being modified concurrently: %v", id.Hex(), lastErr)
}

func (s *Service) record(ctx context.Context, e AuditEvent) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, e)
}
