package categories_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"kpihub/internal/app/features/categories"
	uierrors "kpihub/internal/app/features/errors"
	categorystore "kpihub/internal/app/store/categories"
	"kpihub/internal/app/system/indexes"
	"kpihub/internal/domain/models"
	"kpihub/internal/testutil"
)

func setup(t *testing.T) (*categories.Handler, *testutil.Fixtures, context.Context, context.CancelFunc) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()

	fx := testutil.NewFixtures(t, db)
	h := categories.NewHandler(categorystore.New(db), nil, uierrors.NewErrorLogger(nil), zap.NewNop())
	return h, fx, ctx, cancel
}

func decodeCategory(t *testing.T, rec *testutil.ResponseRecorder) models.Category {
	t.Helper()
	var cat models.Category
	if err := json.NewDecoder(rec.Body).Decode(&cat); err != nil {
		t.Fatalf("decode category: %v", err)
	}
	return cat
}

func TestServeCreate_Main(t *testing.T) {
	h, _, _, cancel := setup(t)
	defer cancel()

	req := testutil.NewJSONRequest(http.MethodPost, "/categories",
		strings.NewReader(`{"name": "Academics", "level": 1}`), testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.ServeCreate(rec, req)

	rec.AssertStatus(t, http.StatusCreated)
	cat := decodeCategory(t, rec)
	if cat.Name != "Academics" || cat.Level != models.CategoryLevelMain {
		t.Errorf("got name %q level %d", cat.Name, cat.Level)
	}
}

func TestServeCreate_SubUnderMain(t *testing.T) {
	h, fx, ctx, cancel := setup(t)
	defer cancel()

	main := fx.CreateCategory(ctx, "Academics", models.CategoryLevelMain, nil)

	body := fmt.Sprintf(`{"name": "Graduation", "level": 2, "parent_id": %q}`, main.ID.Hex())
	req := testutil.NewJSONRequest(http.MethodPost, "/categories", strings.NewReader(body), testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.ServeCreate(rec, req)

	rec.AssertStatus(t, http.StatusCreated)
	cat := decodeCategory(t, rec)
	if cat.ParentID == nil || *cat.ParentID != main.ID {
		t.Error("parent_id not carried through")
	}
}

func TestServeCreate_DuplicateSibling(t *testing.T) {
	h, fx, ctx, cancel := setup(t)
	defer cancel()

	// The unique index on (parent_id, name_ci) enforces sibling names.
	if err := indexes.EnsureAll(ctx, fx.DB()); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}

	main := fx.CreateCategory(ctx, "Academics", models.CategoryLevelMain, nil)
	fx.CreateCategory(ctx, "Graduation", models.CategoryLevelSub, &main.ID)

	body := fmt.Sprintf(`{"name": "graduation", "level": 2, "parent_id": %q}`, main.ID.Hex())
	req := testutil.NewJSONRequest(http.MethodPost, "/categories", strings.NewReader(body), testutil.AdminUser())
	req.Header.Set("Accept", "application/json")
	rec := testutil.NewRecorder()
	h.ServeCreate(rec, req)

	rec.AssertStatus(t, http.StatusConflict)
}

func TestServeCreate_BadParent(t *testing.T) {
	h, _, _, cancel := setup(t)
	defer cancel()

	req := testutil.NewJSONRequest(http.MethodPost, "/categories",
		strings.NewReader(`{"name": "Orphan", "level": 2, "parent_id": "nope"}`), testutil.AdminUser())
	req.Header.Set("Accept", "application/json")
	rec := testutil.NewRecorder()
	h.ServeCreate(rec, req)

	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestServeList_ByLevel(t *testing.T) {
	h, fx, ctx, cancel := setup(t)
	defer cancel()

	main := fx.CreateCategory(ctx, "Academics", models.CategoryLevelMain, nil)
	fx.CreateCategory(ctx, "Research", models.CategoryLevelMain, nil)
	fx.CreateCategory(ctx, "Graduation", models.CategoryLevelSub, &main.ID)

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/categories", testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.ServeList(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	var cats []models.Category
	if err := json.NewDecoder(rec.Body).Decode(&cats); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(cats) != 2 {
		t.Errorf("level 1 categories = %d, want 2", len(cats))
	}

	req = testutil.NewAuthenticatedRequest(http.MethodGet, "/categories?level=2", testutil.AdminUser())
	rec = testutil.NewRecorder()
	h.ServeList(rec, req)
	if err := json.NewDecoder(rec.Body).Decode(&cats); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(cats) != 1 || cats[0].Name != "Graduation" {
		t.Errorf("level 2 categories = %v", cats)
	}
}

func TestServeList_InvalidLevel(t *testing.T) {
	h, _, _, cancel := setup(t)
	defer cancel()

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/categories?level=9", testutil.AdminUser())
	req.Header.Set("Accept", "application/json")
	rec := testutil.NewRecorder()
	h.ServeList(rec, req)

	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestServeChildren(t *testing.T) {
	h, fx, ctx, cancel := setup(t)
	defer cancel()

	main, sub, _ := fx.CreateCategoryChain(ctx, "Academics", "Graduation", "Completion rate")

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/categories/"+main.ID.Hex()+"/children", testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "id", main.ID.Hex())
	rec := testutil.NewRecorder()
	h.ServeChildren(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	var cats []models.Category
	if err := json.NewDecoder(rec.Body).Decode(&cats); err != nil {
		t.Fatalf("decode children: %v", err)
	}
	if len(cats) != 1 || cats[0].ID != sub.ID {
		t.Errorf("children = %v, want just the subcategory", cats)
	}
}

func TestServeChildren_MissingParent(t *testing.T) {
	h, _, _, cancel := setup(t)
	defer cancel()

	missing := primitive.NewObjectID().Hex()
	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/categories/"+missing+"/children", testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "id", missing)
	req.Header.Set("Accept", "application/json")
	rec := testutil.NewRecorder()
	h.ServeChildren(rec, req)

	rec.AssertStatus(t, http.StatusNotFound)
}

func TestServeRename(t *testing.T) {
	h, fx, ctx, cancel := setup(t)
	defer cancel()

	main := fx.CreateCategory(ctx, "Academics", models.CategoryLevelMain, nil)

	req := testutil.NewJSONRequest(http.MethodPatch, "/categories/"+main.ID.Hex(),
		strings.NewReader(`{"name": "Academic Affairs"}`), testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "id", main.ID.Hex())
	rec := testutil.NewRecorder()
	h.ServeRename(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	cat := decodeCategory(t, rec)
	if cat.Name != "Academic Affairs" {
		t.Errorf("name = %q after rename", cat.Name)
	}
}

func TestServeDelete_BlockedByChildren(t *testing.T) {
	h, fx, ctx, cancel := setup(t)
	defer cancel()

	main, _, _ := fx.CreateCategoryChain(ctx, "Academics", "Graduation", "Completion rate")

	req := testutil.NewAuthenticatedRequest(http.MethodDelete, "/categories/"+main.ID.Hex(), testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "id", main.ID.Hex())
	req.Header.Set("Accept", "application/json")
	rec := testutil.NewRecorder()
	h.ServeDelete(rec, req)

	rec.AssertStatus(t, http.StatusConflict)
}

func TestServeDelete_Leaf(t *testing.T) {
	h, fx, ctx, cancel := setup(t)
	defer cancel()

	main := fx.CreateCategory(ctx, "Academics", models.CategoryLevelMain, nil)

	req := testutil.NewAuthenticatedRequest(http.MethodDelete, "/categories/"+main.ID.Hex(), testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "id", main.ID.Hex())
	rec := testutil.NewRecorder()
	h.ServeDelete(rec, req)

	rec.AssertStatus(t, http.StatusNoContent)
}
