package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load loads and validates configuration from:
// 1. Default values
// 2. The YAML file at configPath (optional)
// 3. BOT_* environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults plus env cover it.
		if !os.IsNotExist(err) {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if len(cfg.Scheduler.Tasks) == 0 {
		cfg.Scheduler.Tasks = DefaultTasks
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
	v.SetDefault("log.rotation.max_size_mb", DefaultLogRotationMaxSizeMB)
	v.SetDefault("log.rotation.max_backups", DefaultLogRotationMaxBackups)
	v.SetDefault("log.rotation.max_age_days", DefaultLogRotationMaxAgeDays)
	v.SetDefault("log.rotation.compress", true)

	v.SetDefault("telegram.forward_mode", DefaultForwardMode)
	v.SetDefault("telegram.send_timeout", DefaultSendTimeout)

	v.SetDefault("messages.welcome", DefaultMessages.Welcome)
	v.SetDefault("messages.received", DefaultMessages.Received)
	v.SetDefault("messages.not_authorized", DefaultMessages.NotAuthorized)
	v.SetDefault("messages.general_error", DefaultMessages.GeneralError)
	v.SetDefault("messages.broadcast_prompt", DefaultMessages.BroadcastPrompt)
	v.SetDefault("messages.reply_prefix", DefaultMessages.ReplyPrefix)

	v.SetDefault("database.path", DefaultDBPath)

	v.SetDefault("broadcast.max_in_flight", DefaultBroadcastMaxInFlight)

	v.SetDefault("health.listen_addr", DefaultHealthListenAddr)

	v.SetDefault("scheduler.correlation_max_age", DefaultCorrelationMaxAge)
}
