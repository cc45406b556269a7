package bootstrap

import (
	"testing"
	"time"

	userstore "kpihub/internal/app/store/users"
	"kpihub/internal/domain/models"
	"kpihub/internal/testutil"

	"go.uber.org/zap"
)

func validAppConfig() AppConfig {
	return AppConfig{
		MongoURI:             "mongodb://localhost:27017",
		MongoDatabase:        "kpihub",
		SessionKey:           "0123456789abcdef0123456789abcdef",
		SessionName:          "kpihub_session",
		SessionTTL:           time.Hour,
		OverdueSweepInterval: 15 * time.Minute,
	}
}

func TestValidateConfig_OK(t *testing.T) {
	if err := ValidateConfig(nil, validAppConfig(), zap.NewNop()); err != nil {
		t.Fatalf("ValidateConfig: %v", err)
	}
}

func TestValidateConfig_BadMongoURI(t *testing.T) {
	cfg := validAppConfig()
	cfg.MongoURI = "not-a-uri"
	if err := ValidateConfig(nil, cfg, zap.NewNop()); err == nil {
		t.Fatal("expected error for invalid Mongo URI")
	}
}

func TestValidateConfig_ShortSessionKey(t *testing.T) {
	cfg := validAppConfig()
	cfg.SessionKey = "too-short"
	if err := ValidateConfig(nil, cfg, zap.NewNop()); err == nil {
		t.Fatal("expected error for short session key")
	}
}

func TestValidateConfig_HalfGoogleCredentials(t *testing.T) {
	cfg := validAppConfig()
	cfg.GoogleClientID = "client-id-without-secret"
	if err := ValidateConfig(nil, cfg, zap.NewNop()); err == nil {
		t.Fatal("expected error when only one Google credential is set")
	}
}

func TestValidateConfig_NonPositiveSweepInterval(t *testing.T) {
	cfg := validAppConfig()
	cfg.OverdueSweepInterval = 0
	if err := ValidateConfig(nil, cfg, zap.NewNop()); err == nil {
		t.Fatal("expected error for zero sweep interval")
	}
}

func TestEnsureSuperAdmin_CreatesAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cfg := validAppConfig()
	cfg.SuperAdminEmail = "root@example.com"
	cfg.SuperAdminName = "Root Admin"
	cfg.SuperAdminPassword = "initial-password-123"

	if err := ensureSuperAdmin(ctx, cfg, DBDeps{MongoDatabase: db}, zap.NewNop()); err != nil {
		t.Fatalf("ensureSuperAdmin: %v", err)
	}

	users := userstore.New(db)
	u, err := users.GetByEmail(ctx, "root@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if u.Role != "superadmin" {
		t.Errorf("role = %q, want superadmin", u.Role)
	}
	if u.AuthMethod != "internal" {
		t.Errorf("auth method = %q, want internal", u.AuthMethod)
	}
	if u.PasswordHash == "" {
		t.Error("expected a password hash to be set")
	}
}

func TestEnsureSuperAdmin_PromotesExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	users := userstore.New(db)
	existing, err := users.Create(ctx, models.User{
		FullName:   "Pat Member",
		Email:      "pat@example.com",
		AuthMethod: "google",
		Role:       "member",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	cfg := validAppConfig()
	cfg.SuperAdminEmail = "pat@example.com"

	if err := ensureSuperAdmin(ctx, cfg, DBDeps{MongoDatabase: db}, zap.NewNop()); err != nil {
		t.Fatalf("ensureSuperAdmin: %v", err)
	}

	u, err := users.GetByID(ctx, existing.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if u.Role != "superadmin" {
		t.Errorf("role = %q, want superadmin", u.Role)
	}
	if u.FullName != "Pat Member" {
		t.Errorf("full name changed to %q", u.FullName)
	}
}

func TestEnsureSuperAdmin_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cfg := validAppConfig()
	cfg.SuperAdminEmail = "root@example.com"
	cfg.SuperAdminName = "Root Admin"

	for i := 0; i < 2; i++ {
		if err := ensureSuperAdmin(ctx, cfg, DBDeps{MongoDatabase: db}, zap.NewNop()); err != nil {
			t.Fatalf("ensureSuperAdmin run %d: %v", i+1, err)
		}
	}

	users := userstore.New(db)
	u, err := users.GetByEmail(ctx, "root@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if u.Role != "superadmin" {
		t.Errorf("role = %q, want superadmin", u.Role)
	}
}
