package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"support-relay/internal/relay"
)

// NewRelayHandler returns the default (catch-all) message handler. It
// dispatches non-command traffic: user messages go through the inbound
// router, operator replies through the reply router, and armed broadcast
// content into the broadcast engine.
func NewRelayHandler(deps HandlerDeps) bot.HandlerFunc {
	return relayHandler{deps}.Handle
}

type relayHandler struct {
	deps HandlerDeps
}

func (h relayHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.From.IsBot {
		return
	}

	if isAuthorized(h.deps, msg.From.ID) {
		h.handleOperator(ctx, b, msg)
		return
	}

	// Non-operator traffic is only meaningful in the user's private chat
	// with the bot.
	if msg.Chat.Type != models.ChatTypePrivate {
		return
	}
	h.handleUser(ctx, b, msg)
}

// handleUser routes one end-user message to the operator side.
func (h relayHandler) handleUser(ctx context.Context, b *bot.Bot, msg *models.Message) {
	log := h.deps.Logger.With("handler", "relay_user")

	inbound := relay.InboundMessage{
		UserID:      msg.From.ID,
		DisplayName: displayName(msg.From),
		Username:    msg.From.Username,
		MessageID:   msg.ID,
		Content:     messageContent(msg),
		ReceivedAt:  time.Unix(int64(msg.Date), 0).UTC(),
	}

	result, err := h.deps.Inbound.Route(ctx, inbound)
	if err != nil {
		log.ErrorContext(ctx, "Failed to route inbound message", "user_id", msg.From.ID, "error", err)
		respond(ctx, b, log, msg.Chat.ID, h.deps.Config.Messages.GeneralError)
		return
	}

	// Banned users get no feedback; the message was recorded and dropped.
	if result.Suppressed {
		return
	}

	if ack := h.deps.Config.Messages.Received; ack != "" {
		respond(ctx, b, log, msg.Chat.ID, ack)
	}
}

// handleOperator dispatches an operator's non-command message: a reply to
// a forwarded message answers that user, otherwise armed broadcast content
// is consumed. Anything else in the private chat gets a usage hint.
func (h relayHandler) handleOperator(ctx context.Context, b *bot.Bot, msg *models.Message) {
	if msg.ReplyToMessage != nil {
		h.routeOperatorReply(ctx, b, msg)
		return
	}

	if h.deps.Pending.Consume(msg.From.ID) {
		h.runBroadcast(ctx, b, msg)
		return
	}

	if msg.Chat.Type == models.ChatTypePrivate {
		log := h.deps.Logger.With("handler", "relay_operator")
		respond(ctx, b, log, msg.Chat.ID, "Reply to a forwarded message to answer a user, or see /help.")
	}
}

func (h relayHandler) routeOperatorReply(ctx context.Context, b *bot.Bot, msg *models.Message) {
	log := h.deps.Logger.With("handler", "relay_reply")
	chatID := msg.Chat.ID

	content := messageContent(msg)
	if content.Kind == relay.KindOther {
		respond(ctx, b, log, chatID, "That message type cannot be relayed to the user.")
		return
	}

	result, err := h.deps.Reply.RouteReply(ctx, chatID, msg.ReplyToMessage.ID, content, msg.From.ID)
	switch {
	case errors.Is(err, relay.ErrUnknownCorrelation):
		respond(ctx, b, log, chatID, "That message is not a tracked forward; I cannot tell which user it belongs to.")
	case errors.Is(err, relay.ErrTransport):
		respond(ctx, b, log, chatID, fmt.Sprintf("Could not deliver to user %d; they may have blocked the bot.", result.UserID))
	case err != nil:
		log.ErrorContext(ctx, "Failed to route reply", "error", err)
		respond(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
	case result.Claimed:
		respond(ctx, b, log, chatID, fmt.Sprintf("Delivered. Conversation with user %d is now assigned to you.", result.UserID))
	case result.AdvisoryOwner != 0:
		respond(ctx, b, log, chatID, fmt.Sprintf("Delivered. Note: user %d is assigned to operator %d.", result.UserID, result.AdvisoryOwner))
	}
}

func (h relayHandler) runBroadcast(ctx context.Context, b *bot.Bot, msg *models.Message) {
	log := h.deps.Logger.With("handler", "relay_broadcast")
	chatID := msg.Chat.ID

	content := messageContent(msg)
	if content.Kind == relay.KindOther {
		respond(ctx, b, log, chatID, "That message type cannot be broadcast. Run /broadcast again with text or media.")
		return
	}

	respond(ctx, b, log, chatID, "Broadcast started.")

	report, err := h.deps.Broadcaster.Broadcast(ctx, content, msg.From.ID)
	switch {
	case errors.Is(err, relay.ErrBroadcastInProgress):
		respond(ctx, b, log, chatID, "Another broadcast is already running; yours was not started.")
		return
	case err != nil:
		log.ErrorContext(ctx, "Broadcast failed", "error", err)
		respond(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	summary := fmt.Sprintf("Broadcast finished: %d delivered, %d failed, %d skipped (of %d targets).",
		report.Delivered, report.Failed, report.Skipped, report.Targets)
	if report.Cancelled {
		summary += " Stopped early by shutdown."
	}
	respond(ctx, b, log, chatID, summary)
}
