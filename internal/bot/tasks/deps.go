// Package tasks implements scheduled background tasks for the relay bot:
// correlation retention pruning and database maintenance.
package tasks

import (
	"log/slog"

	"support-relay/internal/config"
	"support-relay/internal/database"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
	Config *config.Config
}
