package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Storage  StorageConfig  `mapstructure:"storage" validate:"required"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
	Export   ExportConfig   `mapstructure:"export" validate:"required"`
	Sync     SyncConfig     `mapstructure:"sync"`
}

// ServerConfig contains all HTTP-server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains authentication settings for both the HTTP API
// (bearer tokens issued by the external login service) and the realtime
// channel handshake.
type AuthConfig struct {
	// JWTSecret verifies bearer tokens on the HTTP API.
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`

	// RealtimeSecret is the shared secret behind the realtime handshake
	// HMAC. Distinct from the JWT secret so the two can be rotated
	// independently.
	RealtimeSecret string `mapstructure:"realtime_secret" validate:"required,min=32"`

	// HandshakeWindow bounds how stale a handshake timestamp may be,
	// in either direction. Zero means the default of 30 seconds.
	HandshakeWindow time.Duration `mapstructure:"handshake_window"`
}

// StorageConfig locates the object store holding uploaded resumes.
type StorageConfig struct {
	Root string `mapstructure:"root" validate:"required"`
}

// JobsConfig tunes the background job engine.
type JobsConfig struct {
	// PollInterval is how often the scheduler looks for due jobs.
	// Zero means the engine default.
	PollInterval time.Duration `mapstructure:"poll_interval"`

	// LockTTL is the lease length written to locked_until when a job
	// starts or touches liveness. Observability only; nothing enforces it.
	LockTTL time.Duration `mapstructure:"lock_ttl"`
}

// ExportConfig controls bulk export artifacts.
type ExportConfig struct {
	// ArtifactDir is where finished export artifacts wait for their
	// single download.
	ArtifactDir string `mapstructure:"artifact_dir" validate:"required"`
}

// SyncConfig controls the periodic registration re-sync.
type SyncConfig struct {
	// Schedule is a cron expression; empty disables the recurring sync.
	Schedule string `mapstructure:"schedule"`

	// SourceURL is the bulk-fetch endpoint of the external registration
	// system.
	SourceURL string `mapstructure:"source_url"`
}
