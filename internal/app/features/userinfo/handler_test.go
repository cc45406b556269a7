package userinfo_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"kpihub/internal/app/features/userinfo"
	"kpihub/internal/testutil"
)

func TestServeUserInfo_SignedIn(t *testing.T) {
	h := userinfo.NewHandler()

	user := testutil.AdminUser()
	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/api/user", user)
	rec := testutil.NewRecorder()
	h.ServeUserInfo(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["isAuthenticated"] != true {
		t.Error("isAuthenticated should be true")
	}
	if resp["name"] != user.Name || resp["role"] != "admin" {
		t.Errorf("identity = %v", resp)
	}
}

func TestServeUserInfo_Anonymous(t *testing.T) {
	h := userinfo.NewHandler()

	req := testutil.NewRequest(http.MethodGet, "/api/user")
	rec := testutil.NewRecorder()
	h.ServeUserInfo(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["isAuthenticated"] != false {
		t.Error("isAuthenticated should be false for anonymous requests")
	}
}
