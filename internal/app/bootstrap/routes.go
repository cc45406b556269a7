// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	auditlogfeature "kpihub/internal/app/features/auditlog"
	authgooglefeature "kpihub/internal/app/features/authgoogle"
	categoriesfeature "kpihub/internal/app/features/categories"
	errorsfeature "kpihub/internal/app/features/errors"
	healthfeature "kpihub/internal/app/features/health"
	heartbeatfeature "kpihub/internal/app/features/heartbeat"
	indicatorsfeature "kpihub/internal/app/features/indicators"
	loginfeature "kpihub/internal/app/features/login"
	logoutfeature "kpihub/internal/app/features/logout"
	notificationsfeature "kpihub/internal/app/features/notifications"
	userinfofeature "kpihub/internal/app/features/userinfo"
	"kpihub/internal/app/lifecycle"
	auditstore "kpihub/internal/app/store/audit"
	categorystore "kpihub/internal/app/store/categories"
	indicatorstore "kpihub/internal/app/store/indicators"
	notificationstore "kpihub/internal/app/store/notifications"
	"kpihub/internal/app/store/oauthstate"
	userstore "kpihub/internal/app/store/users"
	"kpihub/internal/app/system/auditlog"
	"kpihub/internal/app/system/auth"
	"kpihub/internal/app/system/blobstore"
	"kpihub/internal/app/system/mailer"
	"kpihub/internal/app/system/notify"
	"kpihub/internal/app/system/ratelimit"
	"kpihub/internal/app/system/workers"

	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. KPIHub wires the lifecycle engine and
// its collaborators (evidence storage, notifications, mail, audit) here,
// then mounts the feature routers around it.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	// Session manager; secure cookies in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName,
		appCfg.SessionDomain, appCfg.SessionTTL, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Fresh user data on each request, so role changes and disabled
	// accounts take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db))

	// Stores shared across features.
	users := userstore.New(db)
	indicators := indicatorstore.New(db)
	categories := categorystore.New(db)
	notifications := notificationstore.New(db)
	audits := auditstore.New(db)
	oauthStates := oauthstate.New(db)

	auditLogger := auditlog.New(audits, logger, auditlog.Config{
		Auth:      appCfg.AuditLogAuth,
		Admin:     appCfg.AuditLogAdmin,
		Lifecycle: appCfg.AuditLogLifecycle,
	})

	// Lifecycle engine collaborators.
	localStore, err := storage.NewLocal(storage.LocalConfig{
		BasePath: appCfg.StorageLocalPath,
		BaseURL:  appCfg.StorageLocalURL,
	})
	if err != nil {
		logger.Error("evidence storage init failed", zap.Error(err))
		return nil, err
	}
	blobs := blobstore.New(localStore, appCfg.StorageLocalURL, logger)

	from := appCfg.MailFrom
	if appCfg.MailFromName != "" {
		from = appCfg.MailFromName + " <" + appCfg.MailFrom + ">"
	}
	mail := mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		Username: appCfg.MailSMTPUser,
		Password: appCfg.MailSMTPPass,
		From:     from,
	}, logger)

	sink := notify.New(notifications, users, logger)

	svc := lifecycle.New(indicators, categories, users, blobs, sink, mail, auditLogger, logger)

	// Background workers; stopped in Shutdown.
	overdueSweep = workers.NewOverdueSweep(svc, logger, appCfg.OverdueSweepInterval)
	overdueSweep.Start()
	retention = workers.NewRetention(notifications, oauthStates, logger, appCfg.RetentionInterval, appCfg.NotificationKeep)
	retention.Start()

	errLog := errorsfeature.NewErrorLogger(logger)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Liveness and readiness endpoints for load balancers and orchestrators.
	r.Mount("/health", healthfeature.Routes(healthfeature.NewHandler(deps.MongoClient, logger)))
	r.Mount("/heartbeat", heartbeatfeature.Routes(heartbeatfeature.NewHandler()))

	// Locally stored evidence files.
	if appCfg.StorageLocalURL != "" {
		r.Handle(appCfg.StorageLocalURL+"/*", fileserver.Handler(appCfg.StorageLocalURL, appCfg.StorageLocalPath))
	}

	// Authentication.
	googleEnabled := appCfg.GoogleClientID != "" && appCfg.GoogleClientSecret != ""
	limiter := ratelimit.NewLoginLimiter()

	loginHandler := loginfeature.NewHandler(users, sessionMgr, auditLogger, limiter, errLog, googleEnabled, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, auditLogger, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	if googleEnabled {
		googleHandler := authgooglefeature.NewHandler(users, oauthStates, sessionMgr, auditLogger,
			appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)
		r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))
	}

	r.Mount("/api/user", userinfofeature.Routes(userinfofeature.NewHandler()))

	// Error pages.
	errorsHandler := errorsfeature.NewHandler()
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)

	// Indicator lifecycle API.
	indicatorsHandler := indicatorsfeature.NewHandler(svc, indicators, errLog, logger)
	r.Mount("/indicators", indicatorsfeature.Routes(indicatorsHandler, sessionMgr))

	categoriesHandler := categoriesfeature.NewHandler(categories, auditLogger, errLog, logger)
	r.Mount("/categories", categoriesfeature.Routes(categoriesHandler, sessionMgr))

	notificationsHandler := notificationsfeature.NewHandler(notifications, errLog, logger)
	r.Mount("/notifications", notificationsfeature.Routes(notificationsHandler, sessionMgr))

	auditHandler := auditlogfeature.NewHandler(audits, users, errLog, logger)
	r.Mount("/audit", auditlogfeature.Routes(auditHandler, sessionMgr))

	return r, nil
}
