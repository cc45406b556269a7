package login_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	uierrors "kpihub/internal/app/features/errors"
	"kpihub/internal/app/features/login"
	userstore "kpihub/internal/app/store/users"
	"kpihub/internal/app/system/auth"
	"kpihub/internal/app/system/ratelimit"
	"kpihub/internal/domain/models"
	"kpihub/internal/testutil"
)

const sessionKey = "0123456789abcdef0123456789abcdef"

func newHandler(t *testing.T, users *userstore.Store, limiter *ratelimit.LoginLimiter) *login.Handler {
	t.Helper()
	sm, err := auth.NewSessionManager(sessionKey, "kpihub_session", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	return login.NewHandler(users, sm, nil, limiter, uierrors.NewErrorLogger(nil), false, zap.NewNop())
}

func setup(t *testing.T) (*login.Handler, *userstore.Store, context.Context, context.CancelFunc) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	users := userstore.New(db)
	return newHandler(t, users, nil), users, ctx, cancel
}

func createAccount(t *testing.T, ctx context.Context, users *userstore.Store, email, password string) models.User {
	t.Helper()
	u, err := users.Create(ctx, models.User{
		FullName:   "Member One",
		Email:      email,
		Role:       "member",
		AuthMethod: "internal",
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := users.SetPassword(ctx, u.ID, password); err != nil {
		t.Fatalf("set password: %v", err)
	}
	return u
}

func postLogin(h *login.Handler, body string) *testutil.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := testutil.NewRecorder()
	h.HandleLoginPost(rec, req)
	return rec
}

func TestHandleLoginPost_Success(t *testing.T) {
	h, users, ctx, cancel := setup(t)
	defer cancel()

	u := createAccount(t, ctx, users, "m1@test.com", "s3cretpass")

	rec := postLogin(h, `{"email": "m1@test.com", "password": "s3cretpass"}`)
	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		ID   string `json:"id"`
		Role string `json:"role"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != u.ID.Hex() || resp.Role != "member" {
		t.Errorf("response = %+v", resp)
	}

	cookies := rec.Result().Cookies()
	found := false
	for _, c := range cookies {
		if c.Name == "kpihub_session" && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Error("no session cookie set on successful login")
	}
}

func TestHandleLoginPost_EmailCaseInsensitive(t *testing.T) {
	h, users, ctx, cancel := setup(t)
	defer cancel()

	createAccount(t, ctx, users, "m1@test.com", "s3cretpass")

	rec := postLogin(h, `{"email": "M1@Test.Com", "password": "s3cretpass"}`)
	rec.AssertStatus(t, http.StatusOK)
}

func TestHandleLoginPost_WrongPassword(t *testing.T) {
	h, users, ctx, cancel := setup(t)
	defer cancel()

	createAccount(t, ctx, users, "m1@test.com", "s3cretpass")

	rec := postLogin(h, `{"email": "m1@test.com", "password": "wrong"}`)
	rec.AssertStatus(t, http.StatusUnauthorized)
	rec.AssertContains(t, "invalid email or password")
}

func TestHandleLoginPost_UnknownUserSameError(t *testing.T) {
	h, _, _, cancel := setup(t)
	defer cancel()

	rec := postLogin(h, `{"email": "ghost@test.com", "password": "whatever"}`)
	rec.AssertStatus(t, http.StatusUnauthorized)
	rec.AssertContains(t, "invalid email or password")
}

func TestHandleLoginPost_DisabledAccount(t *testing.T) {
	h, users, ctx, cancel := setup(t)
	defer cancel()

	u := createAccount(t, ctx, users, "m1@test.com", "s3cretpass")
	if err := users.Update(ctx, u.ID, userstore.Update{Status: "disabled"}); err != nil {
		t.Fatalf("disable user: %v", err)
	}

	rec := postLogin(h, `{"email": "m1@test.com", "password": "s3cretpass"}`)
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestHandleLoginPost_BadEmail(t *testing.T) {
	h, _, _, cancel := setup(t)
	defer cancel()

	rec := postLogin(h, `{"email": "not-an-email", "password": "x"}`)
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestHandleLoginPost_RateLimited(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	users := userstore.New(db)
	limiter := ratelimit.NewLoginLimiterWithConfig(100, time.Minute, 2, time.Minute)
	h := newHandler(t, users, limiter)

	createAccount(t, ctx, users, "m1@test.com", "s3cretpass")

	for i := 0; i < 2; i++ {
		rec := postLogin(h, `{"email": "m1@test.com", "password": "wrong"}`)
		rec.AssertStatus(t, http.StatusUnauthorized)
	}
	rec := postLogin(h, `{"email": "m1@test.com", "password": "s3cretpass"}`)
	rec.AssertStatus(t, http.StatusTooManyRequests)
}

func TestHandleLoginPost_FormPostRedirects(t *testing.T) {
	h, users, ctx, cancel := setup(t)
	defer cancel()

	createAccount(t, ctx, users, "m1@test.com", "s3cretpass")

	form := "email=m1%40test.com&password=s3cretpass&return=%2Findicators"
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := testutil.NewRecorder()
	h.HandleLoginPost(rec, req)

	rec.AssertStatus(t, http.StatusSeeOther)
	if loc := rec.Header().Get("Location"); loc != "/indicators" {
		t.Errorf("redirect location = %q, want /indicators", loc)
	}
}

func TestServeLogin_ListsMethods(t *testing.T) {
	h, _, _, cancel := setup(t)
	defer cancel()

	req := testutil.NewRequest(http.MethodGet, "/login")
	rec := testutil.NewRecorder()
	h.ServeLogin(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	var resp struct {
		Methods []string `json:"methods"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode methods: %v", err)
	}
	if len(resp.Methods) != 1 || resp.Methods[0] != "internal" {
		t.Errorf("methods = %v, want [internal]", resp.Methods)
	}
}
