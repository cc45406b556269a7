package auditlog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"kpihub/internal/app/features/auditlog"
	uierrors "kpihub/internal/app/features/errors"
	"kpihub/internal/app/store/audit"
	userstore "kpihub/internal/app/store/users"
	"kpihub/internal/testutil"
)

func setup(t *testing.T) (*auditlog.Handler, *audit.Store, *testutil.Fixtures, context.Context, context.CancelFunc) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()

	fx := testutil.NewFixtures(t, db)
	store := audit.New(db)
	h := auditlog.NewHandler(store, userstore.New(db), uierrors.NewErrorLogger(nil), zap.NewNop())
	return h, store, fx, ctx, cancel
}

func logEvent(t *testing.T, ctx context.Context, store *audit.Store, e audit.Event) {
	t.Helper()
	if err := store.Log(ctx, e); err != nil {
		t.Fatalf("log event: %v", err)
	}
}

type listBody struct {
	Items []struct {
		Category   string `json:"category"`
		EventType  string `json:"event_type"`
		ActorName  string `json:"actor_name"`
		TargetName string `json:"target_name"`
	} `json:"items"`
	Total int64 `json:"total"`
}

func decodeList(t *testing.T, rec *testutil.ResponseRecorder) listBody {
	t.Helper()
	var body listBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	return body
}

func TestServeList_CategoryFilter(t *testing.T) {
	h, store, _, ctx, cancel := setup(t)
	defer cancel()

	actorID := primitive.NewObjectID()
	logEvent(t, ctx, store, audit.Event{
		Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess,
		UserID: &actorID, Success: true,
	})
	logEvent(t, ctx, store, audit.Event{
		Category: audit.CategoryLifecycle, EventType: "indicator_created",
		ActorID: &actorID, Success: true,
	})

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/audit?category=lifecycle", testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.ServeList(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	body := decodeList(t, rec)
	if body.Total != 1 || len(body.Items) != 1 {
		t.Fatalf("total = %d items = %d, want 1 and 1", body.Total, len(body.Items))
	}
	if body.Items[0].EventType != "indicator_created" {
		t.Errorf("event_type = %q", body.Items[0].EventType)
	}
}

func TestServeList_ResolvesActorNames(t *testing.T) {
	h, store, fx, ctx, cancel := setup(t)
	defer cancel()

	actor := fx.CreateAdmin(ctx, "Audit Admin", "auditor@test.com")
	logEvent(t, ctx, store, audit.Event{
		Category: audit.CategoryAdmin, EventType: audit.EventUserCreated,
		ActorID: &actor.ID, Success: true,
	})

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/audit", testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.ServeList(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	body := decodeList(t, rec)
	if len(body.Items) != 1 || body.Items[0].ActorName != "Audit Admin" {
		t.Errorf("actor name not resolved: %+v", body.Items)
	}
}

func TestServeList_UnknownActorFallsBackToHex(t *testing.T) {
	h, store, _, ctx, cancel := setup(t)
	defer cancel()

	ghost := primitive.NewObjectID()
	logEvent(t, ctx, store, audit.Event{
		Category: audit.CategoryAdmin, EventType: audit.EventUserDeleted,
		ActorID: &ghost, Success: true,
	})

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/audit", testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.ServeList(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	body := decodeList(t, rec)
	if len(body.Items) != 1 || body.Items[0].ActorName != ghost.Hex() {
		t.Errorf("expected hex fallback, got %+v", body.Items)
	}
}

func TestServeList_DateWindow(t *testing.T) {
	h, store, _, ctx, cancel := setup(t)
	defer cancel()

	old := time.Date(2020, 1, 15, 12, 0, 0, 0, time.UTC)
	logEvent(t, ctx, store, audit.Event{
		Timestamp: old,
		Category:  audit.CategoryAuth, EventType: audit.EventLogout, Success: true,
	})
	logEvent(t, ctx, store, audit.Event{
		Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, Success: true,
	})

	req := testutil.NewAuthenticatedRequest(http.MethodGet,
		"/audit?start_date=2020-01-01&end_date=2020-01-31", testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.ServeList(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	body := decodeList(t, rec)
	if body.Total != 1 || body.Items[0].EventType != audit.EventLogout {
		t.Errorf("date window returned %+v", body)
	}
}

func TestServeList_BadDate(t *testing.T) {
	h, _, _, _, cancel := setup(t)
	defer cancel()

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/audit?start_date=Jan-1", testutil.AdminUser())
	req.Header.Set("Accept", "application/json")
	rec := testutil.NewRecorder()
	h.ServeList(rec, req)

	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestServeList_BadActorID(t *testing.T) {
	h, _, _, _, cancel := setup(t)
	defer cancel()

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/audit?actor_id=nope", testutil.AdminUser())
	req.Header.Set("Accept", "application/json")
	rec := testutil.NewRecorder()
	h.ServeList(rec, req)

	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestServeEventTypes(t *testing.T) {
	h, _, _, _, cancel := setup(t)
	defer cancel()

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/audit/event-types?category=lifecycle", testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.ServeEventTypes(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	var body map[string][]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode event types: %v", err)
	}
	types := body["event_types"]
	if len(types) == 0 {
		t.Fatal("no lifecycle event types returned")
	}
	found := false
	for _, et := range types {
		if et == "score_submitted" {
			found = true
		}
	}
	if !found {
		t.Error("score_submitted missing from lifecycle event types")
	}
}
