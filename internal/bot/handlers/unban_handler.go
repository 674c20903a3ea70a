package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"support-relay/internal/relay"
)

// NewUnbanHandler returns a handler for the /unban command.
func NewUnbanHandler(deps HandlerDeps) bot.HandlerFunc {
	return unbanHandler{deps}.Handle
}

type unbanHandler struct {
	deps HandlerDeps
}

func (h unbanHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "unban")

	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	chatID := msg.Chat.ID

	targetID, err := resolveTargetUser(ctx, h.deps, msg, commandArgs(msg))
	if err != nil {
		respond(ctx, b, log, chatID, "Usage: /unban <user_id>, or reply to a forwarded message with /unban")
		return
	}

	err = h.deps.Gate.Unban(ctx, targetID, msg.From.ID)
	switch {
	case errors.Is(err, relay.ErrNotBanned):
		respond(ctx, b, log, chatID, fmt.Sprintf("User %d is not banned.", targetID))
	case err != nil:
		log.ErrorContext(ctx, "Unban failed", "target_id", targetID, "error", err)
		respond(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
	default:
		respond(ctx, b, log, chatID, fmt.Sprintf("User %d unbanned.", targetID))
	}
}
