package categorystore_test

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"kpihub/internal/app/lifecycle"
	categorystore "kpihub/internal/app/store/categories"
	"kpihub/internal/domain/models"
	"kpihub/internal/testutil"
)

func TestStore_Create_Levels(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := categorystore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	main, err := store.Create(ctx, models.Category{Name: "Research", Level: models.CategoryLevelMain})
	if err != nil {
		t.Fatalf("create main failed: %v", err)
	}
	if main.NameCI != "research" {
		t.Errorf("NameCI: got %q", main.NameCI)
	}

	sub, err := store.Create(ctx, models.Category{
		Name: "Publications", Level: models.CategoryLevelSub, ParentID: &main.ID,
	})
	if err != nil {
		t.Fatalf("create sub failed: %v", err)
	}

	_, err = store.Create(ctx, models.Category{
		Name: "Peer-reviewed article", Level: models.CategoryLevelIndicator, ParentID: &sub.ID,
	})
	if err != nil {
		t.Fatalf("create leaf failed: %v", err)
	}
}

func TestStore_Create_MainWithParentRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := categorystore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	parent := primitive.NewObjectID()
	_, err := store.Create(ctx, models.Category{
		Name: "Research", Level: models.CategoryLevelMain, ParentID: &parent,
	})
	if !lifecycle.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestStore_Create_ParentLevelMismatch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := categorystore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	main, err := store.Create(ctx, models.Category{Name: "Research", Level: models.CategoryLevelMain})
	if err != nil {
		t.Fatalf("create main failed: %v", err)
	}

	// A leaf directly under a main category skips a level.
	_, err = store.Create(ctx, models.Category{
		Name: "Orphan leaf", Level: models.CategoryLevelIndicator, ParentID: &main.ID,
	})
	if !lifecycle.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestStore_Children(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := categorystore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	main, err := store.Create(ctx, models.Category{Name: "Research", Level: models.CategoryLevelMain})
	if err != nil {
		t.Fatalf("create main failed: %v", err)
	}
	for _, name := range []string{"Publications", "Grants", "Conferences"} {
		if _, err := store.Create(ctx, models.Category{
			Name: name, Level: models.CategoryLevelSub, ParentID: &main.ID,
		}); err != nil {
			t.Fatalf("create sub %q failed: %v", name, err)
		}
	}

	kids, err := store.Children(ctx, main.ID)
	if err != nil {
		t.Fatalf("Children failed: %v", err)
	}
	if len(kids) != 3 {
		t.Fatalf("children: got %d, want 3", len(kids))
	}
	// Sorted by folded name.
	if kids[0].Name != "Conferences" {
		t.Errorf("first child: got %q, want Conferences", kids[0].Name)
	}
}

func TestStore_Delete_BlockedByChildren(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := categorystore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	main, err := store.Create(ctx, models.Category{Name: "Research", Level: models.CategoryLevelMain})
	if err != nil {
		t.Fatalf("create main failed: %v", err)
	}
	if _, err := store.Create(ctx, models.Category{
		Name: "Publications", Level: models.CategoryLevelSub, ParentID: &main.ID,
	}); err != nil {
		t.Fatalf("create sub failed: %v", err)
	}

	if err := store.Delete(ctx, main.ID); err != categorystore.ErrHasChildren {
		t.Errorf("expected ErrHasChildren, got %v", err)
	}
}

func TestStore_Delete_BlockedByIndicatorReference(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := categorystore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	member := fixtures.CreateMember(ctx, "Test Member", "member@test.com")
	main, sub, leaf := fixtures.CreateCategoryChain(ctx, "Research", "Publications", "Peer-reviewed article")
	fixtures.CreateIndicator(ctx, main, sub, leaf, member.ID)

	// Remove the leaf first so the child check on sub passes.
	if err := store.Delete(ctx, leaf.ID); err != nil {
		t.Fatalf("delete leaf failed: %v", err)
	}
	if err := store.Delete(ctx, sub.ID); err != categorystore.ErrInUse {
		t.Errorf("expected ErrInUse, got %v", err)
	}
}

func TestStore_Rename(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := categorystore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	main, err := store.Create(ctx, models.Category{Name: "Research", Level: models.CategoryLevelMain})
	if err != nil {
		t.Fatalf("create main failed: %v", err)
	}

	if err := store.Rename(ctx, main.ID, "Académic Research"); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	found, err := store.GetByID(ctx, main.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if found.Name != "Académic Research" {
		t.Errorf("Name: got %q", found.Name)
	}
	if found.NameCI != "academic research" {
		t.Errorf("NameCI: got %q", found.NameCI)
	}
}
