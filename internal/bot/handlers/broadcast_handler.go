package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewBroadcastHandler returns a handler for the /broadcast command. The
// command arms the operator's pending state; the content to broadcast is
// the operator's next non-command message, consumed by the relay handler.
// "/broadcast cancel" disarms without sending anything.
func NewBroadcastHandler(deps HandlerDeps) bot.HandlerFunc {
	return broadcastHandler{deps}.Handle
}

type broadcastHandler struct {
	deps HandlerDeps
}

func (h broadcastHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "broadcast")

	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	chatID := msg.Chat.ID

	if args := commandArgs(msg); len(args) > 0 && args[0] == "cancel" {
		h.deps.Pending.Disarm(msg.From.ID)
		log.InfoContext(ctx, "Broadcast disarmed", "operator_id", msg.From.ID)
		respond(ctx, b, log, chatID, "Broadcast cancelled; nothing was sent.")
		return
	}

	if h.deps.Broadcaster.InProgress() {
		respond(ctx, b, log, chatID, "A broadcast is already running. Try again once it finishes.")
		return
	}

	h.deps.Pending.Arm(msg.From.ID)
	log.InfoContext(ctx, "Broadcast armed", "operator_id", msg.From.ID)
	respond(ctx, b, log, chatID, h.deps.Config.Messages.BroadcastPrompt)
}
