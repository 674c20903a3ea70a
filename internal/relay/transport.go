package relay

import "context"

// Transport is the outbound messaging contract the engine consumes. The
// implementation owns retries, rate limiting, and send timeouts; the
// engine only requires stable message identities from successful sends.
type Transport interface {
	// Send delivers content to a chat and returns the delivered message id.
	Send(ctx context.Context, chatID int64, content Content) (int, error)

	// Copy places a copy of an existing message into another chat and
	// returns the copy's message id in the destination chat.
	Copy(ctx context.Context, toChatID, fromChatID int64, messageID int) (int, error)

	// SendDocumentUpload uploads a document (used for export snapshots).
	SendDocumentUpload(ctx context.Context, chatID int64, filename string, data []byte, caption string) (int, error)
}
