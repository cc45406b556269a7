// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration: WAFFLE's CoreConfig handles
// framework-level settings like HTTP ports, TLS, logging level, and CORS.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: kpihub_session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionTTL    time.Duration // How long a signed-in session stays valid

	// Evidence file storage configuration
	StorageLocalPath string // Local storage path (e.g., "./uploads/evidence")
	StorageLocalURL  string // URL prefix for serving local files (e.g., "/files/evidence")

	// Email/SMTP configuration
	MailSMTPHost string // SMTP server host (e.g., localhost for Mailpit, email-smtp.us-east-1.amazonaws.com for SES)
	MailSMTPPort int    // SMTP server port (e.g., 1025 for Mailpit, 587 for SES)
	MailSMTPUser string // SMTP username (empty for Mailpit)
	MailSMTPPass string // SMTP password
	MailFrom     string // From email address (e.g., noreply@kpihub.example.org)
	MailFromName string // From display name (e.g., KPIHub)

	// Base URL for OAuth callbacks and email links
	BaseURL string // e.g., "https://kpihub.example.org" or "http://localhost:3000"

	// Audit logging destinations per event category
	AuditLogAuth      string // "all" (db+log), "db", "log", or "off"
	AuditLogAdmin     string
	AuditLogLifecycle string

	// Google OAuth configuration
	GoogleClientID     string
	GoogleClientSecret string

	// SuperAdmin bootstrap (created/promoted on startup when set)
	SuperAdminEmail    string
	SuperAdminName     string
	SuperAdminPassword string

	// Background worker cadence
	OverdueSweepInterval time.Duration // How often assignments past their deadline are stamped overdue
	RetentionInterval    time.Duration // How often read notifications and stale OAuth states are pruned
	NotificationKeep     time.Duration // How long read notifications are retained
}
