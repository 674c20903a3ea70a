package config

import "time"

// Default values for optional configuration parameters.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"

	DefaultLogRotationMaxSizeMB  = 10
	DefaultLogRotationMaxBackups = 5
	DefaultLogRotationMaxAgeDays = 30

	DefaultForwardMode = ForwardModeSingleGroup
	DefaultSendTimeout = 30 * time.Second

	DefaultDBPath = "relay.db"

	DefaultBroadcastMaxInFlight = 8

	DefaultHealthListenAddr = ":8080"

	DefaultCorrelationMaxAge = 30 * 24 * time.Hour
)

// DefaultMessages holds the default message templates.
var DefaultMessages = MessagesConfig{
	Welcome:         "Hi! Send your message here and the support team will get back to you shortly.",
	Received:        "Your message has been received. We will reply as soon as possible.",
	NotAuthorized:   "You are not authorized to use this command.",
	GeneralError:    "An error occurred. Please try again later.",
	BroadcastPrompt: "Broadcast mode armed. The next message you send here will be delivered to all users.",
	ReplyPrefix:     "Reply from the support team:",
}

// DefaultTasks holds the default scheduled task configuration.
var DefaultTasks = map[string]TaskConfig{
	"prune_correlations": {Enabled: true, Schedule: "0 4 * * *"},
	"sql_maintenance":    {Enabled: false, Schedule: "0 5 * * 0"},
}
