// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"

	userstore "kpihub/internal/app/store/users"
	"kpihub/internal/domain/models"

	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. KPIHub
// uses it to guarantee a superadmin account exists when one is configured.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.SuperAdminEmail == "" {
		return nil
	}
	return ensureSuperAdmin(ctx, appCfg, deps, logger)
}

// ensureSuperAdmin creates the configured superadmin account, or promotes
// an existing account with that email. Existing superadmins are untouched.
func ensureSuperAdmin(ctx context.Context, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	users := userstore.New(deps.MongoDatabase)

	u, err := users.GetByEmail(ctx, appCfg.SuperAdminEmail)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return err
		}

		authMethod := "google"
		if appCfg.SuperAdminPassword != "" {
			authMethod = "internal"
		}
		created, err := users.Create(ctx, models.User{
			FullName:   appCfg.SuperAdminName,
			Email:      appCfg.SuperAdminEmail,
			AuthMethod: authMethod,
			Role:       "superadmin",
			Status:     "active",
		})
		if err != nil {
			return err
		}
		if appCfg.SuperAdminPassword != "" {
			if err := users.SetPassword(ctx, created.ID, appCfg.SuperAdminPassword); err != nil {
				return err
			}
		}
		logger.Info("created superadmin account",
			zap.String("email", appCfg.SuperAdminEmail),
			zap.String("user_id", created.ID.Hex()))
		return nil
	}

	if u.Role == "superadmin" {
		return nil
	}

	if err := users.Update(ctx, u.ID, userstore.Update{Role: "superadmin", Status: "active"}); err != nil {
		return err
	}
	logger.Info("promoted existing account to superadmin",
		zap.String("email", appCfg.SuperAdminEmail),
		zap.String("user_id", u.ID.Hex()),
		zap.String("previous_role", u.Role))
	return nil
}
