package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"kpihub/internal/domain/models"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a test user with the given role.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      email,
		AuthMethod: "password",
		Role:       role,
		Status:     "active",
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := f.db.Collection("users").InsertOne(ctx, user)
	if err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}

	return user
}

// CreateSuperAdmin creates a test superadmin user.
func (f *Fixtures) CreateSuperAdmin(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, "superadmin")
}

// CreateAdmin creates a test admin user.
func (f *Fixtures) CreateAdmin(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, "admin")
}

// CreateMember creates a test member user.
func (f *Fixtures) CreateMember(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, "member")
}

// CreateCategory creates a single category node.
func (f *Fixtures) CreateCategory(ctx context.Context, name string, level int, parentID *primitive.ObjectID) models.Category {
	f.t.Helper()

	now := time.Now().UTC()
	cat := models.Category{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Level:     level,
		ParentID:  parentID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := f.db.Collection("categories").InsertOne(ctx, cat)
	if err != nil {
		f.t.Fatalf("failed to create test category: %v", err)
	}

	return cat
}

// CreateCategoryChain creates a valid three-level hierarchy and returns the
// main, sub, and leaf nodes.
func (f *Fixtures) CreateCategoryChain(ctx context.Context, main, sub, leaf string) (models.Category, models.Category, models.Category) {
	f.t.Helper()

	l1 := f.CreateCategory(ctx, main, models.CategoryLevelMain, nil)
	l2 := f.CreateCategory(ctx, sub, models.CategoryLevelSub, &l1.ID)
	l3 := f.CreateCategory(ctx, leaf, models.CategoryLevelIndicator, &l2.ID)
	return l1, l2, l3
}

// CreateIndicator inserts a pending indicator assigned to the given user,
// referencing the given category chain.
func (f *Fixtures) CreateIndicator(ctx context.Context, main, sub, leaf models.Category, assignee primitive.ObjectID) models.Indicator {
	f.t.Helper()

	now := time.Now().UTC()
	ind := models.Indicator{
		ID:             primitive.NewObjectID(),
		CategoryID:     main.ID,
		Level2ID:       sub.ID,
		IndicatorTitle: leaf.Name,
		AssignMode:     models.AssignIndividual,
		AssignedTo:     &assignee,
		StartDate:      now.Add(-24 * time.Hour),
		DueDate:        now.Add(7 * 24 * time.Hour),
		Status:         models.StatusPending,
		Revision:       1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	_, err := f.db.Collection("indicators").InsertOne(ctx, ind)
	if err != nil {
		f.t.Fatalf("failed to create test indicator: %v", err)
	}

	return ind
}
