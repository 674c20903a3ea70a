// Package relay implements the routing and conversation-state engine:
// the moderation gate, inbound and reply routers, handler assignment,
// broadcast fan-out, and the stats/export façade. It consumes the store
// and transport as injected dependencies and never talks to the Telegram
// SDK directly.
package relay

import "time"

// Content kinds covered by the relay. The payload reference is a transport
// file handle, never raw bytes.
const (
	KindText     = "text"
	KindPhoto    = "photo"
	KindDocument = "document"
	KindVoice    = "voice"
	KindVideo    = "video"
	KindSticker  = "sticker"
	KindOther    = "other"
)

// Content is a transport-agnostic message payload: text, or a media file
// handle with an optional caption in Text.
type Content struct {
	Kind   string
	Text   string
	FileID string
}

// InboundMessage is one user message as received from the transport.
type InboundMessage struct {
	UserID      int64
	DisplayName string
	Username    string
	MessageID   int
	Content     Content
	ReceivedAt  time.Time
}

// ForwardResult reports the outcome of routing one inbound message.
type ForwardResult struct {
	// Suppressed is set when the sender is banned; the message was
	// persisted for audit but not forwarded.
	Suppressed bool

	// Forwarded lists the operator destinations that received a copy.
	Forwarded []ForwardedCopy

	// MessageRowID is the persisted message record's row ID.
	MessageRowID int64
}

// ForwardedCopy identifies one copy placed in an operator chat.
type ForwardedCopy struct {
	OperatorChatID     int64
	ForwardedMessageID int
}

// ReplyResult reports the outcome of routing one operator reply.
type ReplyResult struct {
	UserID int64

	// Claimed is set when this reply won the handler assignment.
	Claimed bool

	// AdvisoryOwner names the assigned operator when it is someone other
	// than the replying operator. Zero when the reply came from the owner
	// or won the claim. Delivery is never blocked by ownership.
	AdvisoryOwner int64

	// DeliveredMessageID is the transport id of the reply as delivered
	// to the user.
	DeliveredMessageID int
}

// BroadcastOutcome states mirror the persisted outcome records.
const (
	OutcomeDelivered     = "delivered"
	OutcomeFailed        = "failed"
	OutcomeSkippedBanned = "skipped_banned"
)

// RecipientOutcome is the per-recipient detail of a broadcast.
type RecipientOutcome struct {
	UserID  int64
	Outcome string
	Detail  string
}

// BroadcastReport aggregates one broadcast job's results.
type BroadcastReport struct {
	JobID     string
	Targets   int
	Delivered int
	Failed    int

	// Skipped counts banned users excluded from the target snapshot.
	// Each one also appears in Recipients with a skipped_banned outcome.
	Skipped    int
	Recipients []RecipientOutcome
	StartedAt  time.Time
	FinishedAt time.Time

	// Cancelled is set when the broadcast stopped issuing new sends due
	// to context cancellation; recorded outcomes cover the sends issued.
	Cancelled bool
}

// Stats is the aggregate counter set exposed to the status endpoint and
// the /stats command.
type Stats struct {
	Users               int64 `json:"users"`
	Messages            int64 `json:"messages"`
	Banned              int64 `json:"banned"`
	BroadcastInProgress bool  `json:"broadcast_in_progress"`
}
