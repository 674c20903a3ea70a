package tasks

import (
	"context"
	"fmt"
	"time"
)

// newPruneCorrelationsTask creates the scheduled task that removes
// correlation entries older than the configured retention horizon.
// Replies to a pruned forward surface as unknown correlations, which is
// the intended retention behavior.
func newPruneCorrelationsTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "prune_correlations")

	return func(ctx context.Context) error {
		maxAge := deps.Config.Scheduler.CorrelationMaxAge
		horizon := time.Now().UTC().Add(-maxAge)

		log.InfoContext(ctx, "Starting correlation pruning", "max_age", maxAge, "horizon", horizon)
		startTime := time.Now()

		pruned, err := deps.Store.PruneCorrelations(ctx, horizon)
		duration := time.Since(startTime)
		if err != nil {
			log.ErrorContext(ctx, "Correlation pruning failed", "error", err, "duration", duration)
			return fmt.Errorf("correlation pruning failed: %w", err)
		}

		log.InfoContext(ctx, "Correlation pruning completed", "pruned", pruned, "duration", duration)
		return nil
	}
}
