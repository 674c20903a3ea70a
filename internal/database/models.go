package database

import (
	"database/sql"
	"time"
)

// User represents an end-user known to the relay. The row carries both the
// moderation flag and the current handler assignment; users are never
// deleted, a ban is a status change.
type User struct {
	UserID      int64     `db:"user_id"      json:"user_id"`
	DisplayName string    `db:"display_name" json:"display_name"`
	Username    string    `db:"username"     json:"username"`

	FirstSeen    time.Time `db:"first_seen"    json:"first_seen"`
	LastActivity time.Time `db:"last_activity" json:"last_activity"`
	MessageCount int64     `db:"message_count" json:"message_count"`

	IsBanned  bool         `db:"is_banned"  json:"is_banned"`
	BanReason string       `db:"ban_reason" json:"ban_reason,omitempty"`
	BannedAt  sql.NullTime `db:"banned_at"  json:"banned_at,omitempty"`

	AssignedOperatorID sql.NullInt64 `db:"assigned_operator_id" json:"assigned_operator_id,omitempty"`
	AssignedAt         sql.NullTime  `db:"assigned_at"          json:"assigned_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Message delivery states.
const (
	DeliveryDelivered   = "delivered"
	DeliveryUndelivered = "undelivered"
	DeliverySuppressed  = "suppressed"
)

// Message represents one inbound user message. The payload is a transport
// file handle, never raw bytes.
type Message struct {
	ID          int64     `db:"id"            json:"id"`
	UserID      int64     `db:"user_id"       json:"user_id"`
	TGMessageID int       `db:"tg_message_id" json:"tg_message_id"`
	Kind        string    `db:"kind"          json:"kind"`
	Content     string    `db:"content"       json:"content,omitempty"`
	FileID      string    `db:"file_id"       json:"file_id,omitempty"`
	Delivery    string    `db:"delivery"      json:"delivery"`
	Timestamp   time.Time `db:"timestamp"     json:"timestamp"`
	CreatedAt   time.Time `db:"created_at"    json:"created_at"`
}

// Reply represents one operator reply routed back to a user.
type Reply struct {
	ID          int64         `db:"id"            json:"id"`
	UserID      int64         `db:"user_id"       json:"user_id"`
	OperatorID  int64         `db:"operator_id"   json:"operator_id"`
	TGMessageID sql.NullInt64 `db:"tg_message_id" json:"tg_message_id,omitempty"`
	Kind        string        `db:"kind"          json:"kind"`
	Content     string        `db:"content"       json:"content,omitempty"`
	FileID      string        `db:"file_id"       json:"file_id,omitempty"`
	Delivered   bool          `db:"delivered"     json:"delivered"`
	CreatedAt   time.Time     `db:"created_at"    json:"created_at"`
}

// Ban audit actions.
const (
	BanActionBan   = "ban"
	BanActionUnban = "unban"
)

// BanEvent is one append-only moderation audit record.
type BanEvent struct {
	ID         int64     `db:"id"          json:"id"`
	UserID     int64     `db:"user_id"     json:"user_id"`
	Action     string    `db:"action"      json:"action"`
	Reason     string    `db:"reason"      json:"reason,omitempty"`
	OperatorID int64     `db:"operator_id" json:"operator_id"`
	CreatedAt  time.Time `db:"created_at"  json:"created_at"`
}

// Correlation maps a forwarded copy in an operator chat back to the
// originating user and message. Entries are immutable and pruned only by
// the retention task.
type Correlation struct {
	OperatorChatID     int64     `db:"operator_chat_id"`
	ForwardedMessageID int       `db:"forwarded_message_id"`
	UserID             int64     `db:"user_id"`
	UserMessageID      int       `db:"user_message_id"`
	MessageRowID       int64     `db:"message_row_id"`
	CreatedAt          time.Time `db:"created_at"`
}

// Broadcast outcome states.
const (
	OutcomeDelivered     = "delivered"
	OutcomeFailed        = "failed"
	OutcomeSkippedBanned = "skipped_banned"
)

// Broadcast represents one fan-out job and its aggregate result.
type Broadcast struct {
	ID          string       `db:"id"`
	OperatorID  int64        `db:"operator_id"`
	Kind        string       `db:"kind"`
	Content     string       `db:"content"`
	FileID      string       `db:"file_id"`
	TargetCount int          `db:"target_count"`
	Delivered   int          `db:"delivered"`
	Failed      int          `db:"failed"`
	Skipped     int          `db:"skipped"`
	StartedAt   time.Time    `db:"started_at"`
	FinishedAt  sql.NullTime `db:"finished_at"`
}

// BroadcastOutcome records the delivery result for one broadcast recipient.
type BroadcastOutcome struct {
	ID          int64     `db:"id"`
	BroadcastID string    `db:"broadcast_id"`
	UserID      int64     `db:"user_id"`
	Outcome     string    `db:"outcome"`
	Detail      string    `db:"detail"`
	CreatedAt   time.Time `db:"created_at"`
}
