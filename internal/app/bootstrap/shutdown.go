// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"kpihub/internal/app/system/workers"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Background workers started in BuildHandler, stopped here.
var (
	overdueSweep *workers.OverdueSweep
	retention    *workers.Retention
)

// Shutdown cleanly tears down background workers and DB connections.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if overdueSweep != nil {
		overdueSweep.Stop()
	}
	if retention != nil {
		retention.Stop()
	}

	if deps.MongoClient != nil {
		logger.Info("disconnecting MongoDB client")
		if err := deps.MongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
