package relay

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"support-relay/internal/database"
)

// Broadcaster fans a single message out to every known, non-banned user.
// Targets are snapshotted at invocation; per-recipient failures are
// isolated and recorded, never aborting the remaining sends.
type Broadcaster struct {
	store       database.Store
	transport   Transport
	maxInFlight int
	logger      *slog.Logger

	inProgress atomic.Bool
}

// NewBroadcaster creates a broadcast engine with the given in-flight send
// bound.
func NewBroadcaster(store database.Store, transport Transport, maxInFlight int, logger *slog.Logger) *Broadcaster {
	if maxInFlight < 1 {
		maxInFlight = 1
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Broadcaster{
		store:       store,
		transport:   transport,
		maxInFlight: maxInFlight,
		logger:      logger.With("component", "broadcast_engine"),
	}
}

// InProgress reports whether a broadcast is currently running in this
// process.
func (b *Broadcaster) InProgress() bool {
	return b.inProgress.Load()
}

// Broadcast snapshots the non-banned user set, delivers the content to
// each recipient with at most maxInFlight sends in flight, and records
// per-recipient outcomes. Cancelling ctx stops issuing new sends;
// in-flight sends complete and their outcomes are still recorded.
func (b *Broadcaster) Broadcast(ctx context.Context, content Content, operatorID int64) (*BroadcastReport, error) {
	if !b.inProgress.CompareAndSwap(false, true) {
		return nil, ErrBroadcastInProgress
	}
	defer b.inProgress.Store(false)

	targets, err := b.store.ListBroadcastTargets(ctx)
	if err != nil {
		return nil, persistence("list_broadcast_targets", err)
	}
	banned, err := b.store.ListBannedUsers(ctx)
	if err != nil {
		return nil, persistence("list_banned", err)
	}

	report := &BroadcastReport{
		JobID:     uuid.NewString(),
		Targets:   len(targets),
		Skipped:   len(banned),
		StartedAt: time.Now().UTC(),
	}

	job := &database.Broadcast{
		ID:          report.JobID,
		OperatorID:  operatorID,
		Kind:        content.Kind,
		Content:     content.Text,
		FileID:      content.FileID,
		TargetCount: len(targets),
		Skipped:     report.Skipped,
		StartedAt:   report.StartedAt,
	}
	if err := b.store.CreateBroadcast(ctx, job); err != nil {
		return nil, persistence("create_broadcast", err)
	}

	b.logger.InfoContext(ctx, "Broadcast started",
		"broadcast_id", report.JobID, "operator_id", operatorID, "targets", len(targets), "max_in_flight", b.maxInFlight)

	// Banned users are excluded from the snapshot but still accounted for,
	// one skipped_banned outcome each.
	for _, u := range banned {
		record := &database.BroadcastOutcome{
			BroadcastID: report.JobID,
			UserID:      u.UserID,
			Outcome:     database.OutcomeSkippedBanned,
		}
		if err := b.store.SaveBroadcastOutcome(ctx, record); err != nil {
			b.logger.ErrorContext(ctx, "Failed to persist broadcast outcome",
				"broadcast_id", report.JobID, "user_id", u.UserID, "error", err)
		}
		report.Recipients = append(report.Recipients, RecipientOutcome{UserID: u.UserID, Outcome: OutcomeSkippedBanned})
	}

	// In-flight sends and outcome writes must survive cancellation of the
	// issuing loop, so they run on a detached context.
	sendCtx := context.WithoutCancel(ctx)

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(b.maxInFlight)

	for _, userID := range targets {
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}

		g.Go(func() error {
			outcome := RecipientOutcome{UserID: userID, Outcome: OutcomeDelivered}
			if _, err := b.transport.Send(sendCtx, userID, content); err != nil {
				outcome.Outcome = OutcomeFailed
				outcome.Detail = err.Error()
				b.logger.WarnContext(ctx, "Broadcast delivery failed",
					"broadcast_id", report.JobID, "user_id", userID, "error", err)
			}

			record := &database.BroadcastOutcome{
				BroadcastID: report.JobID,
				UserID:      userID,
				Outcome:     database.OutcomeDelivered,
				Detail:      outcome.Detail,
			}
			if outcome.Outcome == OutcomeFailed {
				record.Outcome = database.OutcomeFailed
			}
			if err := b.store.SaveBroadcastOutcome(sendCtx, record); err != nil {
				b.logger.ErrorContext(ctx, "Failed to persist broadcast outcome",
					"broadcast_id", report.JobID, "user_id", userID, "error", err)
			}

			mu.Lock()
			report.Recipients = append(report.Recipients, outcome)
			if outcome.Outcome == OutcomeDelivered {
				report.Delivered++
			} else {
				report.Failed++
			}
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait() // per-recipient failures are recorded, not returned

	report.FinishedAt = time.Now().UTC()
	if err := b.store.FinishBroadcast(sendCtx, report.JobID, report.Delivered, report.Failed, report.Skipped, report.FinishedAt); err != nil {
		return report, persistence("finish_broadcast", err)
	}

	b.logger.InfoContext(ctx, "Broadcast finished",
		"broadcast_id", report.JobID, "delivered", report.Delivered, "failed", report.Failed,
		"skipped", report.Skipped, "cancelled", report.Cancelled)
	return report, nil
}
