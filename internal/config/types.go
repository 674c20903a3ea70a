// Package config provides configuration loading, validation, and management
// for the relay bot. It reads from a YAML file with BOT_* environment
// variable overrides and validates the result before startup proceeds.
package config

import (
	"fmt"
	"time"
)

// ForwardMode selects how inbound user messages reach operators.
const (
	ForwardModeSingleGroup = "single-group"
	ForwardModeFanout      = "multi-admin-fanout"
)

// Config defines the application configuration parameters for all components.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Messages  MessagesConfig  `mapstructure:"messages"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Broadcast BroadcastConfig `mapstructure:"broadcast"`
	Health    HealthConfig    `mapstructure:"health"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// LogConfig controls log level, output format, and optional file rotation.
type LogConfig struct {
	Level  string `mapstructure:"level"  validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`

	// File enables logging to a rotated file in addition to stdout when set.
	File     string            `mapstructure:"file"`
	Rotation LogRotationConfig `mapstructure:"rotation"`
}

// LogRotationConfig holds lumberjack rotation settings for file output.
type LogRotationConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	Compress   bool `mapstructure:"compress"`
}

// TelegramConfig holds transport credentials and routing destinations.
type TelegramConfig struct {
	Token string `mapstructure:"token" validate:"required"`

	// OperatorIDs is the authorized operator identity set. Commands and
	// replies from anyone outside this set are rejected.
	OperatorIDs []int64 `mapstructure:"operator_ids" validate:"min=1"`

	// OverrideID may release any assignment regardless of owner. Zero means
	// no override identity is configured.
	OverrideID int64 `mapstructure:"override_id"`

	// ForwardMode is "single-group" (copy into AdminGroupID) or
	// "multi-admin-fanout" (copy to every operator individually).
	ForwardMode  string `mapstructure:"forward_mode" validate:"oneof=single-group multi-admin-fanout"`
	AdminGroupID int64  `mapstructure:"admin_group_id"`

	SendTimeout time.Duration `mapstructure:"send_timeout" validate:"min=1s,max=5m"`
}

// MessagesConfig holds user- and operator-facing message templates.
type MessagesConfig struct {
	Welcome         string `mapstructure:"welcome"`
	Received        string `mapstructure:"received"`
	NotAuthorized   string `mapstructure:"not_authorized"`
	GeneralError    string `mapstructure:"general_error"`
	BroadcastPrompt string `mapstructure:"broadcast_prompt"`
	ReplyPrefix     string `mapstructure:"reply_prefix"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// BroadcastConfig bounds broadcast fan-out concurrency.
type BroadcastConfig struct {
	MaxInFlight int `mapstructure:"max_in_flight" validate:"min=1,max=100"`
}

// HealthConfig holds the liveness/status HTTP listener address.
type HealthConfig struct {
	ListenAddr string `mapstructure:"listen_addr" validate:"required"`
}

// SchedulerConfig configures background tasks by name.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`

	// CorrelationMaxAge is the retention horizon for correlation entries;
	// the prune task removes entries older than this.
	CorrelationMaxAge time.Duration `mapstructure:"correlation_max_age" validate:"min=1h"`
}

// TaskConfig enables a named scheduled task with a cron expression.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	if c.Telegram.ForwardMode == ForwardModeSingleGroup && c.Telegram.AdminGroupID == 0 {
		return fmt.Errorf("telegram.admin_group_id is required in %s mode", ForwardModeSingleGroup)
	}
	for _, id := range c.Telegram.OperatorIDs {
		if id <= 0 {
			return fmt.Errorf("telegram.operator_ids contains invalid id %d", id)
		}
	}
	return nil
}

// IsOperator reports whether id belongs to the configured operator set.
func (c *TelegramConfig) IsOperator(id int64) bool {
	for _, op := range c.OperatorIDs {
		if op == id {
			return true
		}
	}
	return false
}
