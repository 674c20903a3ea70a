package relay

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"time"

	"support-relay/internal/database"
)

// ReplyRouter routes operator replies back to the originating user and
// drives the handler-assignment state machine (claim on first successful
// reply, explicit release).
type ReplyRouter struct {
	store       database.Store
	transport   Transport
	replyPrefix string
	logger      *slog.Logger
}

// NewReplyRouter creates a reply router. replyPrefix is prepended to text
// replies delivered to users.
func NewReplyRouter(store database.Store, transport Transport, replyPrefix string, logger *slog.Logger) *ReplyRouter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ReplyRouter{
		store:       store,
		transport:   transport,
		replyPrefix: replyPrefix,
		logger:      logger.With("component", "reply_router"),
	}
}

// RouteReply resolves the forwarded-message correlation, delivers the
// reply to the originating user, and claims the handler assignment when
// the user is unassigned. Ownership is advisory: a reply from a
// non-assigned operator is still delivered, the existing assignment is
// unchanged, and the result carries the owner for the caller to surface.
//
// Returns ErrUnknownCorrelation when the forwarded message is untracked
// (no state mutation) and ErrTransport when delivery to the user fails
// (the reply record is persisted as undelivered).
func (r *ReplyRouter) RouteReply(ctx context.Context, operatorChatID int64, forwardedMessageID int, content Content, operatorID int64) (ReplyResult, error) {
	var result ReplyResult

	corr, err := r.store.GetCorrelation(ctx, operatorChatID, forwardedMessageID)
	if err != nil {
		return result, persistence("get_correlation", err)
	}
	if corr == nil {
		return result, fmt.Errorf("%w: forwarded message %d in chat %d", ErrUnknownCorrelation, forwardedMessageID, operatorChatID)
	}
	result.UserID = corr.UserID

	record := &database.Reply{
		UserID:     corr.UserID,
		OperatorID: operatorID,
		Kind:       content.Kind,
		Content:    content.Text,
		FileID:     content.FileID,
	}

	delivered := content
	if delivered.Kind == KindText && r.replyPrefix != "" {
		delivered.Text = r.replyPrefix + "\n\n" + delivered.Text
	}

	sentID, sendErr := r.transport.Send(ctx, corr.UserID, delivered)
	if sendErr != nil {
		if err := r.store.SaveReply(ctx, record); err != nil {
			return result, persistence("save_reply", err)
		}
		return result, fmt.Errorf("%w: reply to user %d: %v", ErrTransport, corr.UserID, sendErr)
	}

	record.Delivered = true
	record.TGMessageID = sql.NullInt64{Int64: int64(sentID), Valid: true}
	result.DeliveredMessageID = sentID

	// Claim on first successful reply. The store claim is a per-user
	// compare-and-swap, so concurrent first replies resolve to exactly
	// one winner.
	won, current, err := r.store.ClaimAssignment(ctx, corr.UserID, operatorID, time.Now().UTC())
	if err != nil {
		return result, persistence("claim_assignment", err)
	}
	result.Claimed = won
	if !won && current != operatorID {
		result.AdvisoryOwner = current
	}
	if won {
		r.logger.InfoContext(ctx, "Handler assignment claimed", "user_id", corr.UserID, "operator_id", operatorID)
	}

	if err := r.store.SaveReply(ctx, record); err != nil {
		return result, persistence("save_reply", err)
	}
	if err := r.store.TouchUserActivity(ctx, corr.UserID, time.Now().UTC()); err != nil {
		return result, persistence("touch_user_activity", err)
	}

	return result, nil
}

// Release clears the handler assignment for a user. Only the assigned
// operator may release; isOverride permits the administrative override
// identity to release regardless of owner. Returns ErrNotAssigned when
// the user has no assignment and ErrForbidden when the caller is neither
// the owner nor the override.
func (r *ReplyRouter) Release(ctx context.Context, userID, operatorID int64, isOverride bool) error {
	released, current, err := r.store.ReleaseAssignment(ctx, userID, operatorID, isOverride)
	if err != nil {
		return persistence("release_assignment", err)
	}
	if released {
		r.logger.InfoContext(ctx, "Handler assignment released", "user_id", userID, "operator_id", operatorID, "override", isOverride)
		return nil
	}
	if current == 0 {
		return fmt.Errorf("%w: user %d", ErrNotAssigned, userID)
	}
	return fmt.Errorf("%w: user %d is assigned to operator %d", ErrForbidden, userID, current)
}
