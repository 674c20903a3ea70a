package relay

import (
	"context"
	"io"
	"log/slog"

	"support-relay/internal/database"
)

// Gate enforces ban state. It is consulted synchronously before any
// inbound message is forwarded and before broadcast targets are counted.
type Gate struct {
	store  database.Store
	logger *slog.Logger
}

// NewGate creates a moderation gate backed by the store.
func NewGate(store database.Store, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Gate{store: store, logger: logger.With("component", "moderation_gate")}
}

// IsBanned reports whether the user is currently banned.
func (g *Gate) IsBanned(ctx context.Context, userID int64) (bool, error) {
	banned, err := g.store.IsBanned(ctx, userID)
	if err != nil {
		return false, persistence("is_banned", err)
	}
	return banned, nil
}

// Ban flags a user as banned and records the audit event. Returns
// ErrAlreadyBanned when the user is already banned; no state changes.
func (g *Gate) Ban(ctx context.Context, userID int64, reason string, operatorID int64) error {
	changed, err := g.store.BanUser(ctx, userID, reason, operatorID)
	if err != nil {
		return persistence("ban", err)
	}
	if !changed {
		return ErrAlreadyBanned
	}
	g.logger.InfoContext(ctx, "Ban issued", "user_id", userID, "operator_id", operatorID, "reason", reason)
	return nil
}

// Unban clears a user's ban and records the audit event. Returns
// ErrNotBanned when the user is not banned; no state changes.
func (g *Gate) Unban(ctx context.Context, userID int64, operatorID int64) error {
	changed, err := g.store.UnbanUser(ctx, userID, operatorID)
	if err != nil {
		return persistence("unban", err)
	}
	if !changed {
		return ErrNotBanned
	}
	g.logger.InfoContext(ctx, "Ban lifted", "user_id", userID, "operator_id", operatorID)
	return nil
}

// Banned lists all currently banned users.
func (g *Gate) Banned(ctx context.Context) ([]database.User, error) {
	users, err := g.store.ListBannedUsers(ctx)
	if err != nil {
		return nil, persistence("list_banned", err)
	}
	return users, nil
}
