// internal/app/lifecycle/create.go
package lifecycle

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"kpihub/internal/domain/models"
)

// CreateSpec carries everything needed to create one indicator.
type CreateSpec struct {
	CategoryID  primitive.ObjectID // level-1 main category
	Level2ID    primitive.ObjectID // level-2 child of the main category
	IndicatorID primitive.ObjectID // level-3 leaf; its name becomes the title

	Unit string

	AssignedTo    *primitive.ObjectID
	AssignedGroup []primitive.ObjectID

	StartDate time.Time
	DueDate   time.Time
}

// Create validates the category hierarchy and assignment, persists a new
// indicator with status pending and progress 0, and fans out one assignment
// notification per distinct target user.
//
// Failure modes: AuthorizationError for non-superadmin callers,
// ValidationError for malformed input, NotFoundError for missing
// categories, ConflictError for hierarchy mismatches.
func (s *Service) Create(ctx context.Context, spec CreateSpec, actor Actor) (*models.Indicator, error) {
	if !actor.Role.CanCreateIndicator() {
		return nil, Authorizationf("role %s cannot create indicators", actor.Role)
	}

	if spec.AssignedTo == nil && len(spec.AssignedGroup) == 0 {
		return nil, Validationf("an indicator needs an individual assignee or a non-empty group")
	}
	if spec.StartDate.IsZero() || spec.DueDate.IsZero() {
		return nil, Validationf("start date and due date are required")
	}
	if !spec.DueDate.After(spec.StartDate) {
		return nil, Validationf("due date must be after start date")
	}

	main, err := s.lookupCategory(ctx, spec.CategoryID)
	if err != nil {
		return nil, err
	}
	if main.Level != models.CategoryLevelMain {
		return nil, Conflictf("category %q is level %d, expected a level-1 main category", main.Name, main.Level)
	}

	level2, err := s.lookupCategory(ctx, spec.Level2ID)
	if err != nil {
		return nil, err
	}
	if level2.Level != models.CategoryLevelSub {
		return nil, Conflictf("category %q is level %d, expected a level-2 subcategory", level2.Name, level2.Level)
	}
	if !level2.IsChildOf(main.ID) {
		return nil, Conflictf("subcategory %q is not a child of %q", level2.Name, main.Name)
	}

	leaf, err := s.lookupCategory(ctx, spec.IndicatorID)
	if err != nil {
		return nil, err
	}
	if leaf.Level != models.CategoryLevelIndicator {
		return nil, Conflictf("category %q is level %d, expected a level-3 indicator", leaf.Name, leaf.Level)
	}
	if !leaf.IsChildOf(level2.ID) {
		return nil, Conflictf("indicator category %q is not a child of %q", leaf.Name, level2.Name)
	}

	mode := models.AssignGroup
	if spec.AssignedTo != nil {
		mode = models.AssignIndividual
	}

	now := s.now()
	ind := &models.Indicator{
		ID:             primitive.NewObjectID(),
		CategoryID:     main.ID,
		Level2ID:       level2.ID,
		IndicatorTitle: leaf.Name,
		Unit:           strings.TrimSpace(spec.Unit),
		AssignMode:     mode,
		AssignedTo:     spec.AssignedTo,
		AssignedGroup:  spec.AssignedGroup,
		StartDate:      spec.StartDate,
		DueDate:        spec.DueDate,
		Progress:       0,
		Status:         models.StatusPending,
		Revision:       1,
		CreatedAt:      now,
		UpdatedAt:      now,
		CreatedByID:    actor.ID,
	}

	if err := s.indicators.Insert(ctx, ind); err != nil {
		return nil, err
	}

	s.record(ctx, AuditEvent{
		EventType:   EventIndicatorCreated,
		ActorID:     actor.ID,
		IndicatorID: ind.ID,
		Details:     map[string]string{"title": ind.IndicatorTitle},
	})

	s.notifyAssignees(ctx, ind, models.NotifyAssignment,
		"New indicator assigned",
		"You have been assigned the indicator \""+ind.IndicatorTitle+"\".",
		assignmentMailBuilder(ind))

	return ind, nil
}

func (s *Service) lookupCategory(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	if id.IsZero() {
		return nil, Validationf("category reference is required")
	}
	cat, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, NotFoundf("category %s not found", id.Hex())
	}
	return cat, nil
}

// notifyAssignees delivers one in-app notification and one mail per
// distinct assignee. Failures are logged and swallowed; the committed
// state transition is the source of truth.
func (s *Service) notifyAssignees(ctx context.Context, ind *models.Indicator, kind, title, message string, buildMail func(u *models.User) Mail) {
	meta := map[string]string{"indicator_id": ind.ID.Hex()}
	for _, userID := range ind.AssigneeIDs() {
		if s.notify != nil {
			if err := s.notify.Notify(ctx, userID, title, message, kind, meta); err != nil {
				s.log.Warn("notification delivery failed",
					zap.String("indicator_id", ind.ID.Hex()),
					zap.String("user_id", userID.Hex()),
					zap.Error(err))
			}
		}
		if s.mailer == nil || buildMail == nil || s.users == nil {
			continue
		}
		user, err := s.users.GetByID(ctx, userID)
		if err != nil || user.Email == "" {
			continue
		}
		m := buildMail(user)
		m.To = user.Email
		if err := s.mailer.Send(ctx, m); err != nil {
			s.log.Warn("mail delivery failed",
				zap.String("indicator_id", ind.ID.Hex()),
				zap.String("to", user.Email),
				zap.Error(err))
		}
	}
}

func assignmentMailBuilder(ind *models.Indicator) func(u *models.User) Mail {
	return func(u *models.User) Mail {
		return Mail{
			Subject: "New indicator: " + ind.IndicatorTitle,
			Text: "Hello " + u.FullName + ",\n\nYou have been assigned the indicator \"" +
				ind.IndicatorTitle + "\". It is due on " + ind.DueDate.Format("Jan 2, 2006") + ".\n",
			HTML: "<p>Hello " + u.FullName + ",</p><p>You have been assigned the indicator <strong>" +
				ind.IndicatorTitle + "</strong>. It is due on " + ind.DueDate.Format("Jan 2, 2006") + ".</p>",
		}
	}
}
