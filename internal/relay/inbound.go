package relay

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"support-relay/internal/database"
)

// InboundRouter routes user messages to the operator destination set.
// The destination list is enumerated at construction from the deployment
// mode (single admin group or per-operator fan-out); the routing logic is
// identical either way.
type InboundRouter struct {
	store        database.Store
	transport    Transport
	gate         *Gate
	destinations []int64
	logger       *slog.Logger
}

// NewInboundRouter creates an inbound router forwarding to the given
// operator destinations.
func NewInboundRouter(store database.Store, transport Transport, gate *Gate, destinations []int64, logger *slog.Logger) *InboundRouter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &InboundRouter{
		store:        store,
		transport:    transport,
		gate:         gate,
		destinations: destinations,
		logger:       logger.With("component", "inbound_router"),
	}
}

// Route processes one inbound user message: consults the moderation gate,
// persists the message record, forwards a copy to each operator
// destination, and records a correlation entry per successful copy.
//
// Messages from banned users are persisted for audit with a suppressed
// delivery status and never forwarded. Transport failures are reported as
// ErrTransport with the message left undelivered; the router never retries.
func (r *InboundRouter) Route(ctx context.Context, msg InboundMessage) (ForwardResult, error) {
	var result ForwardResult

	banned, err := r.gate.IsBanned(ctx, msg.UserID)
	if err != nil {
		return result, err
	}

	if err := r.store.RecordUserActivity(ctx, msg.UserID, msg.DisplayName, msg.Username, msg.ReceivedAt); err != nil {
		return result, persistence("record_user_activity", err)
	}

	record := &database.Message{
		UserID:      msg.UserID,
		TGMessageID: msg.MessageID,
		Kind:        msg.Content.Kind,
		Content:     msg.Content.Text,
		FileID:      msg.Content.FileID,
		Delivery:    database.DeliveryUndelivered,
		Timestamp:   msg.ReceivedAt,
	}
	if banned {
		record.Delivery = database.DeliverySuppressed
	}
	if err := r.store.SaveMessage(ctx, record); err != nil {
		return result, persistence("save_message", err)
	}
	result.MessageRowID = record.ID

	if banned {
		r.logger.InfoContext(ctx, "Suppressed message from banned user", "user_id", msg.UserID, "message_id", msg.MessageID)
		result.Suppressed = true
		return result, nil
	}

	header := forwardHeader(msg)
	for _, dest := range r.destinations {
		if _, err := r.transport.Send(ctx, dest, Content{Kind: KindText, Text: header}); err != nil {
			r.logger.WarnContext(ctx, "Failed to send forward header", "destination", dest, "user_id", msg.UserID, "error", err)
			continue
		}

		copyID, err := r.transport.Copy(ctx, dest, msg.UserID, msg.MessageID)
		if err != nil {
			r.logger.WarnContext(ctx, "Failed to copy message to destination", "destination", dest, "user_id", msg.UserID, "error", err)
			continue
		}

		corr := &database.Correlation{
			OperatorChatID:     dest,
			ForwardedMessageID: copyID,
			UserID:             msg.UserID,
			UserMessageID:      msg.MessageID,
			MessageRowID:       record.ID,
		}
		if err := r.store.SaveCorrelation(ctx, corr); err != nil {
			return result, persistence("save_correlation", err)
		}
		result.Forwarded = append(result.Forwarded, ForwardedCopy{OperatorChatID: dest, ForwardedMessageID: copyID})
	}

	if len(result.Forwarded) == 0 {
		return result, fmt.Errorf("%w: no operator destination reached for user %d", ErrTransport, msg.UserID)
	}

	if err := r.store.UpdateMessageDelivery(ctx, record.ID, database.DeliveryDelivered); err != nil {
		return result, persistence("update_message_delivery", err)
	}
	return result, nil
}

// forwardHeader builds the sender-identification line preceding each
// forwarded copy so operators can tell who wrote it.
func forwardHeader(msg InboundMessage) string {
	name := msg.DisplayName
	if name == "" {
		name = "Unknown"
	}
	username := msg.Username
	if username == "" {
		username = "no username"
	}
	return fmt.Sprintf("Message from %s (@%s)\nUser ID: %d", name, username, msg.UserID)
}
