package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the interface for database operations. All mutations are
// durable before the call returns; methods accept context.Context for
// cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// --- users ---

	// GetUser retrieves a user by ID. Returns nil, nil if not found.
	GetUser(ctx context.Context, userID int64) (*User, error)

	// RecordUserActivity creates the user on first contact and bumps the
	// activity timestamp and message counter on every inbound message.
	RecordUserActivity(ctx context.Context, userID int64, displayName, username string, at time.Time) error

	// TouchUserActivity updates last_activity only (used on reply delivery).
	TouchUserActivity(ctx context.Context, userID int64, at time.Time) error

	// ListUsers retrieves all users, oldest first.
	ListUsers(ctx context.Context) ([]User, error)

	// ListBroadcastTargets retrieves the IDs of all non-banned users.
	ListBroadcastTargets(ctx context.Context) ([]int64, error)

	CountUsers(ctx context.Context) (int64, error)
	CountBannedUsers(ctx context.Context) (int64, error)
	CountMessages(ctx context.Context) (int64, error)

	// --- moderation ---

	// IsBanned reports whether the user is currently banned. Unknown users
	// are not banned.
	IsBanned(ctx context.Context, userID int64) (bool, error)

	// BanUser flags the user as banned and appends an audit record in one
	// transaction. Returns changed=false when the user was already banned.
	// The user row is created if the ban precedes any message.
	BanUser(ctx context.Context, userID int64, reason string, operatorID int64) (changed bool, err error)

	// UnbanUser clears the ban flag and appends an audit record in one
	// transaction. Returns changed=false when the user was not banned.
	UnbanUser(ctx context.Context, userID int64, operatorID int64) (changed bool, err error)

	// ListBannedUsers retrieves all currently banned users.
	ListBannedUsers(ctx context.Context) ([]User, error)

	// ListBanEvents retrieves the full moderation audit trail, oldest first.
	ListBanEvents(ctx context.Context) ([]BanEvent, error)

	// --- messages and replies ---

	// SaveMessage inserts a new message record and sets message.ID.
	SaveMessage(ctx context.Context, message *Message) error

	// UpdateMessageDelivery updates the delivery status of a message.
	UpdateMessageDelivery(ctx context.Context, messageRowID int64, delivery string) error

	// ListMessages retrieves all message records, oldest first.
	ListMessages(ctx context.Context) ([]Message, error)

	// SaveReply inserts a new reply record and sets reply.ID.
	SaveReply(ctx context.Context, reply *Reply) error

	// ListReplies retrieves all reply records, oldest first.
	ListReplies(ctx context.Context) ([]Reply, error)

	// --- correlations ---

	// SaveCorrelation inserts a correlation entry for a forwarded copy.
	SaveCorrelation(ctx context.Context, corr *Correlation) error

	// GetCorrelation resolves a forwarded copy back to its origin.
	// Returns nil, nil if the entry is untracked.
	GetCorrelation(ctx context.Context, operatorChatID int64, forwardedMessageID int) (*Correlation, error)

	// PruneCorrelations deletes entries created before the given time and
	// returns the number removed.
	PruneCorrelations(ctx context.Context, before time.Time) (int64, error)

	// --- handler assignment ---

	// GetAssignment returns the operator currently assigned to the user,
	// or assigned=false when the conversation is open.
	GetAssignment(ctx context.Context, userID int64) (operatorID int64, assigned bool, err error)

	// ClaimAssignment atomically assigns the user to the operator if and
	// only if the user is unassigned. Exactly one concurrent caller wins;
	// losers get won=false and the winning operator's ID.
	ClaimAssignment(ctx context.Context, userID, operatorID int64, at time.Time) (won bool, current int64, err error)

	// ReleaseAssignment clears the assignment when held by operatorID, or
	// unconditionally when force is set. Returns released=false with the
	// current holder when the caller does not hold the assignment, and
	// released=false, current=0 when the user is unassigned.
	ReleaseAssignment(ctx context.Context, userID, operatorID int64, force bool) (released bool, current int64, err error)

	// --- broadcasts ---

	// CreateBroadcast inserts a new broadcast job row.
	CreateBroadcast(ctx context.Context, b *Broadcast) error

	// SaveBroadcastOutcome records the result for one recipient.
	SaveBroadcastOutcome(ctx context.Context, o *BroadcastOutcome) error

	// FinishBroadcast records aggregate counts and the completion time.
	FinishBroadcast(ctx context.Context, id string, delivered, failed, skipped int, at time.Time) error

	// BroadcastInProgress reports whether any broadcast job is unfinished.
	BroadcastInProgress(ctx context.Context) (bool, error)

	// --- maintenance ---

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- users ---

func (s *sqlxStore) GetUser(ctx context.Context, userID int64) (*User, error) {
	var user User
	query := `SELECT * FROM users WHERE user_id = ?`

	err := s.db.GetContext(ctx, &user, query, userID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting user", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	return &user, nil
}

func (s *sqlxStore) RecordUserActivity(ctx context.Context, userID int64, displayName, username string, at time.Time) error {
	now := time.Now().UTC()
	query := `
        INSERT INTO users (user_id, display_name, username, first_seen, last_activity, message_count, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, 1, ?, ?)
        ON CONFLICT(user_id) DO UPDATE SET
            display_name  = excluded.display_name,
            username      = excluded.username,
            last_activity = excluded.last_activity,
            message_count = users.message_count + 1,
            updated_at    = excluded.updated_at;
    `
	if _, err := s.db.ExecContext(ctx, query, userID, displayName, username, at, at, now, now); err != nil {
		s.logger.ErrorContext(ctx, "Error recording user activity", "user_id", userID, "error", err)
		return fmt.Errorf("failed to record activity for user %d: %w", userID, err)
	}
	return nil
}

func (s *sqlxStore) TouchUserActivity(ctx context.Context, userID int64, at time.Time) error {
	query := `UPDATE users SET last_activity = ?, updated_at = ? WHERE user_id = ?`
	if _, err := s.db.ExecContext(ctx, query, at, time.Now().UTC(), userID); err != nil {
		s.logger.ErrorContext(ctx, "Error touching user activity", "user_id", userID, "error", err)
		return fmt.Errorf("failed to touch activity for user %d: %w", userID, err)
	}
	return nil
}

func (s *sqlxStore) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	query := `SELECT * FROM users ORDER BY first_seen ASC`
	if err := s.db.SelectContext(ctx, &users, query); err != nil {
		s.logger.ErrorContext(ctx, "Error listing users", "error", err)
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *sqlxStore) ListBroadcastTargets(ctx context.Context) ([]int64, error) {
	var ids []int64
	query := `SELECT user_id FROM users WHERE is_banned = 0 ORDER BY user_id ASC`
	if err := s.db.SelectContext(ctx, &ids, query); err != nil {
		s.logger.ErrorContext(ctx, "Error listing broadcast targets", "error", err)
		return nil, fmt.Errorf("failed to list broadcast targets: %w", err)
	}
	return ids, nil
}

func (s *sqlxStore) CountUsers(ctx context.Context) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM users`)
}

func (s *sqlxStore) CountBannedUsers(ctx context.Context) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM users WHERE is_banned = 1`)
}

func (s *sqlxStore) CountMessages(ctx context.Context) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM messages`)
}

func (s *sqlxStore) count(ctx context.Context, query string) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, query); err != nil {
		s.logger.ErrorContext(ctx, "Error running count query", "query", query, "error", err)
		return 0, fmt.Errorf("count query failed: %w", err)
	}
	return n, nil
}

// --- moderation ---

func (s *sqlxStore) IsBanned(ctx context.Context, userID int64) (bool, error) {
	var banned bool
	query := `SELECT is_banned FROM users WHERE user_id = ?`

	err := s.db.GetContext(ctx, &banned, query, userID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error checking ban status", "user_id", userID, "error", err)
		return false, fmt.Errorf("failed to check ban status for user %d: %w", userID, err)
	}
	return banned, nil
}

func (s *sqlxStore) BanUser(ctx context.Context, userID int64, reason string, operatorID int64) (bool, error) {
	now := time.Now().UTC()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx, s.logger)

	// A ban may precede the user's first message.
	ensure := `
        INSERT INTO users (user_id, first_seen, last_activity, message_count, created_at, updated_at)
        VALUES (?, ?, ?, 0, ?, ?)
        ON CONFLICT(user_id) DO NOTHING;
    `
	if _, err := tx.ExecContext(ctx, ensure, userID, now, now, now, now); err != nil {
		return false, fmt.Errorf("failed to ensure user %d exists: %w", userID, err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE users SET is_banned = 1, ban_reason = ?, banned_at = ?, updated_at = ? WHERE user_id = ? AND is_banned = 0`,
		reason, now, now, userID)
	if err != nil {
		return false, fmt.Errorf("failed to ban user %d: %w", userID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		// Already banned; nothing to audit.
		return false, nil
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO bans (user_id, action, reason, operator_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		userID, BanActionBan, reason, operatorID, now); err != nil {
		return false, fmt.Errorf("failed to append ban audit for user %d: %w", userID, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit ban transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "User banned", "user_id", userID, "operator_id", operatorID, "reason", reason)
	return true, nil
}

func (s *sqlxStore) UnbanUser(ctx context.Context, userID int64, operatorID int64) (bool, error) {
	now := time.Now().UTC()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx, s.logger)

	res, err := tx.ExecContext(ctx,
		`UPDATE users SET is_banned = 0, ban_reason = '', banned_at = NULL, updated_at = ? WHERE user_id = ? AND is_banned = 1`,
		now, userID)
	if err != nil {
		return false, fmt.Errorf("failed to unban user %d: %w", userID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO bans (user_id, action, operator_id, created_at) VALUES (?, ?, ?, ?)`,
		userID, BanActionUnban, operatorID, now); err != nil {
		return false, fmt.Errorf("failed to append unban audit for user %d: %w", userID, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit unban transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "User unbanned", "user_id", userID, "operator_id", operatorID)
	return true, nil
}

func (s *sqlxStore) ListBannedUsers(ctx context.Context) ([]User, error) {
	var users []User
	query := `SELECT * FROM users WHERE is_banned = 1 ORDER BY banned_at ASC`
	if err := s.db.SelectContext(ctx, &users, query); err != nil {
		s.logger.ErrorContext(ctx, "Error listing banned users", "error", err)
		return nil, fmt.Errorf("failed to list banned users: %w", err)
	}
	return users, nil
}

func (s *sqlxStore) ListBanEvents(ctx context.Context) ([]BanEvent, error) {
	var events []BanEvent
	query := `SELECT * FROM bans ORDER BY id ASC`
	if err := s.db.SelectContext(ctx, &events, query); err != nil {
		s.logger.ErrorContext(ctx, "Error listing ban events", "error", err)
		return nil, fmt.Errorf("failed to list ban events: %w", err)
	}
	return events, nil
}

// --- messages and replies ---

func (s *sqlxStore) SaveMessage(ctx context.Context, message *Message) error {
	if message == nil {
		return fmt.Errorf("cannot save nil message")
	}
	if message.UserID == 0 {
		return fmt.Errorf("message must have a non-zero user_id")
	}
	message.CreatedAt = time.Now().UTC()

	query := `
        INSERT INTO messages (user_id, tg_message_id, kind, content, file_id, delivery, timestamp, created_at)
        VALUES (:user_id, :tg_message_id, :kind, :content, :file_id, :delivery, :timestamp, :created_at);
    `
	res, err := s.db.NamedExecContext(ctx, query, message)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving message", "user_id", message.UserID, "error", err)
		return fmt.Errorf("failed to save message for user %d: %w", message.UserID, err)
	}
	if id, err := res.LastInsertId(); err == nil {
		message.ID = id
	}
	return nil
}

func (s *sqlxStore) UpdateMessageDelivery(ctx context.Context, messageRowID int64, delivery string) error {
	query := `UPDATE messages SET delivery = ? WHERE id = ?`
	if _, err := s.db.ExecContext(ctx, query, delivery, messageRowID); err != nil {
		s.logger.ErrorContext(ctx, "Error updating message delivery", "message_row_id", messageRowID, "error", err)
		return fmt.Errorf("failed to update delivery for message %d: %w", messageRowID, err)
	}
	return nil
}

func (s *sqlxStore) ListMessages(ctx context.Context) ([]Message, error) {
	var messages []Message
	query := `SELECT * FROM messages ORDER BY id ASC`
	if err := s.db.SelectContext(ctx, &messages, query); err != nil {
		s.logger.ErrorContext(ctx, "Error listing messages", "error", err)
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

func (s *sqlxStore) SaveReply(ctx context.Context, reply *Reply) error {
	if reply == nil {
		return fmt.Errorf("cannot save nil reply")
	}
	reply.CreatedAt = time.Now().UTC()

	query := `
        INSERT INTO replies (user_id, operator_id, tg_message_id, kind, content, file_id, delivered, created_at)
        VALUES (:user_id, :operator_id, :tg_message_id, :kind, :content, :file_id, :delivered, :created_at);
    `
	res, err := s.db.NamedExecContext(ctx, query, reply)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving reply", "user_id", reply.UserID, "operator_id", reply.OperatorID, "error", err)
		return fmt.Errorf("failed to save reply for user %d: %w", reply.UserID, err)
	}
	if id, err := res.LastInsertId(); err == nil {
		reply.ID = id
	}
	return nil
}

func (s *sqlxStore) ListReplies(ctx context.Context) ([]Reply, error) {
	var replies []Reply
	query := `SELECT * FROM replies ORDER BY id ASC`
	if err := s.db.SelectContext(ctx, &replies, query); err != nil {
		s.logger.ErrorContext(ctx, "Error listing replies", "error", err)
		return nil, fmt.Errorf("failed to list replies: %w", err)
	}
	return replies, nil
}

// --- correlations ---

func (s *sqlxStore) SaveCorrelation(ctx context.Context, corr *Correlation) error {
	if corr == nil {
		return fmt.Errorf("cannot save nil correlation")
	}
	corr.CreatedAt = time.Now().UTC()

	query := `
        INSERT INTO correlations (operator_chat_id, forwarded_message_id, user_id, user_message_id, message_row_id, created_at)
        VALUES (:operator_chat_id, :forwarded_message_id, :user_id, :user_message_id, :message_row_id, :created_at);
    `
	if _, err := s.db.NamedExecContext(ctx, query, corr); err != nil {
		s.logger.ErrorContext(ctx, "Error saving correlation",
			"operator_chat_id", corr.OperatorChatID, "forwarded_message_id", corr.ForwardedMessageID, "error", err)
		return fmt.Errorf("failed to save correlation for forwarded message %d: %w", corr.ForwardedMessageID, err)
	}
	return nil
}

func (s *sqlxStore) GetCorrelation(ctx context.Context, operatorChatID int64, forwardedMessageID int) (*Correlation, error) {
	var corr Correlation
	query := `SELECT * FROM correlations WHERE operator_chat_id = ? AND forwarded_message_id = ?`

	err := s.db.GetContext(ctx, &corr, query, operatorChatID, forwardedMessageID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting correlation",
			"operator_chat_id", operatorChatID, "forwarded_message_id", forwardedMessageID, "error", err)
		return nil, fmt.Errorf("failed to get correlation for forwarded message %d: %w", forwardedMessageID, err)
	}
	return &corr, nil
}

func (s *sqlxStore) PruneCorrelations(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM correlations WHERE created_at < ?`, before)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error pruning correlations", "before", before, "error", err)
		return 0, fmt.Errorf("failed to prune correlations: %w", err)
	}
	pruned, _ := res.RowsAffected()
	return pruned, nil
}

// --- handler assignment ---

func (s *sqlxStore) GetAssignment(ctx context.Context, userID int64) (int64, bool, error) {
	var assigned sql.NullInt64
	query := `SELECT assigned_operator_id FROM users WHERE user_id = ?`

	err := s.db.GetContext(ctx, &assigned, query, userID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, false, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting assignment", "user_id", userID, "error", err)
		return 0, false, fmt.Errorf("failed to get assignment for user %d: %w", userID, err)
	}
	if !assigned.Valid {
		return 0, false, nil
	}
	return assigned.Int64, true, nil
}

func (s *sqlxStore) ClaimAssignment(ctx context.Context, userID, operatorID int64, at time.Time) (bool, int64, error) {
	// Compare-and-swap on the NULL assignment; SQLite serializes writers so
	// exactly one concurrent claim succeeds.
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET assigned_operator_id = ?, assigned_at = ?, updated_at = ? WHERE user_id = ? AND assigned_operator_id IS NULL`,
		operatorID, at, time.Now().UTC(), userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error claiming assignment", "user_id", userID, "operator_id", operatorID, "error", err)
		return false, 0, fmt.Errorf("failed to claim assignment for user %d: %w", userID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 1 {
		return true, operatorID, nil
	}

	current, _, err := s.GetAssignment(ctx, userID)
	if err != nil {
		return false, 0, err
	}
	return false, current, nil
}

func (s *sqlxStore) ReleaseAssignment(ctx context.Context, userID, operatorID int64, force bool) (bool, int64, error) {
	query := `UPDATE users SET assigned_operator_id = NULL, assigned_at = NULL, updated_at = ? WHERE user_id = ? AND assigned_operator_id = ?`
	args := []any{time.Now().UTC(), userID, operatorID}
	if force {
		query = `UPDATE users SET assigned_operator_id = NULL, assigned_at = NULL, updated_at = ? WHERE user_id = ? AND assigned_operator_id IS NOT NULL`
		args = []any{time.Now().UTC(), userID}
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error releasing assignment", "user_id", userID, "operator_id", operatorID, "error", err)
		return false, 0, fmt.Errorf("failed to release assignment for user %d: %w", userID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 1 {
		return true, 0, nil
	}

	current, assigned, err := s.GetAssignment(ctx, userID)
	if err != nil {
		return false, 0, err
	}
	if !assigned {
		return false, 0, nil
	}
	return false, current, nil
}

// --- broadcasts ---

func (s *sqlxStore) CreateBroadcast(ctx context.Context, b *Broadcast) error {
	if b == nil {
		return fmt.Errorf("cannot create nil broadcast")
	}
	query := `
        INSERT INTO broadcasts (id, operator_id, kind, content, file_id, target_count, skipped, started_at)
        VALUES (:id, :operator_id, :kind, :content, :file_id, :target_count, :skipped, :started_at);
    `
	if _, err := s.db.NamedExecContext(ctx, query, b); err != nil {
		s.logger.ErrorContext(ctx, "Error creating broadcast", "broadcast_id", b.ID, "error", err)
		return fmt.Errorf("failed to create broadcast %s: %w", b.ID, err)
	}
	return nil
}

func (s *sqlxStore) SaveBroadcastOutcome(ctx context.Context, o *BroadcastOutcome) error {
	if o == nil {
		return fmt.Errorf("cannot save nil broadcast outcome")
	}
	o.CreatedAt = time.Now().UTC()

	query := `
        INSERT INTO broadcast_outcomes (broadcast_id, user_id, outcome, detail, created_at)
        VALUES (:broadcast_id, :user_id, :outcome, :detail, :created_at);
    `
	if _, err := s.db.NamedExecContext(ctx, query, o); err != nil {
		s.logger.ErrorContext(ctx, "Error saving broadcast outcome",
			"broadcast_id", o.BroadcastID, "user_id", o.UserID, "error", err)
		return fmt.Errorf("failed to save outcome for broadcast %s: %w", o.BroadcastID, err)
	}
	return nil
}

func (s *sqlxStore) FinishBroadcast(ctx context.Context, id string, delivered, failed, skipped int, at time.Time) error {
	query := `UPDATE broadcasts SET delivered = ?, failed = ?, skipped = ?, finished_at = ? WHERE id = ?`
	if _, err := s.db.ExecContext(ctx, query, delivered, failed, skipped, at, id); err != nil {
		s.logger.ErrorContext(ctx, "Error finishing broadcast", "broadcast_id", id, "error", err)
		return fmt.Errorf("failed to finish broadcast %s: %w", id, err)
	}
	return nil
}

func (s *sqlxStore) BroadcastInProgress(ctx context.Context) (bool, error) {
	var n int64
	query := `SELECT COUNT(*) FROM broadcasts WHERE finished_at IS NULL`
	if err := s.db.GetContext(ctx, &n, query); err != nil {
		s.logger.ErrorContext(ctx, "Error checking broadcast progress", "error", err)
		return false, fmt.Errorf("failed to check broadcast progress: %w", err)
	}
	return n > 0, nil
}

// --- maintenance ---

func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction in SQLite.
	if _, err := s.db.ExecContext(ctx, "VACUUM;"); err != nil {
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed")
	return nil
}

// rollback rolls a transaction back, tolerating an already-committed tx.
func rollback(tx *sqlx.Tx, logger *slog.Logger) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		logger.Warn("Error rolling back transaction", "error", err)
	}
}
