package logout_test

import (
	"net/http"
	"testing"
	"time"

	"go.uber.org/zap"

	"kpihub/internal/app/features/logout"
	"kpihub/internal/app/system/auth"
	"kpihub/internal/testutil"
)

func newHandler(t *testing.T) *logout.Handler {
	t.Helper()
	sm, err := auth.NewSessionManager("0123456789abcdef0123456789abcdef", "kpihub_session", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	return logout.NewHandler(sm, nil, zap.NewNop())
}

func TestServeLogout_RedirectsHome(t *testing.T) {
	h := newHandler(t)

	req := testutil.NewAuthenticatedRequest(http.MethodPost, "/logout", testutil.MemberUser())
	rec := testutil.NewRecorder()
	h.ServeLogout(rec, req)

	rec.AssertStatus(t, http.StatusSeeOther)
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("redirect location = %q, want /", loc)
	}
}

func TestServeLogout_ClearsSessionCookie(t *testing.T) {
	h := newHandler(t)

	req := testutil.NewAuthenticatedRequest(http.MethodPost, "/logout", testutil.MemberUser())
	rec := testutil.NewRecorder()
	h.ServeLogout(rec, req)

	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "kpihub_session" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("session cookie was not expired on logout")
	}
}

func TestServeLogout_HTMXRedirect(t *testing.T) {
	h := newHandler(t)

	req := testutil.NewAuthenticatedRequest(http.MethodPost, "/logout", testutil.MemberUser())
	req.Header.Set("HX-Request", "true")
	rec := testutil.NewRecorder()
	h.ServeLogout(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	if rec.Header().Get("HX-Redirect") != "/" {
		t.Errorf("HX-Redirect = %q, want /", rec.Header().Get("HX-Redirect"))
	}
}
