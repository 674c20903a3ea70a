package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"support-relay/internal/relay"
)

// NewReleaseHandler returns a handler for the /release command.
func NewReleaseHandler(deps HandlerDeps) bot.HandlerFunc {
	return releaseHandler{deps}.Handle
}

type releaseHandler struct {
	deps HandlerDeps
}

func (h releaseHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "release")

	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	chatID := msg.Chat.ID

	targetID, err := resolveTargetUser(ctx, h.deps, msg, commandArgs(msg))
	if err != nil {
		respond(ctx, b, log, chatID, "Usage: /release <user_id>, or reply to a forwarded message with /release")
		return
	}

	operatorID := msg.From.ID
	isOverride := h.deps.Config.Telegram.OverrideID != 0 && operatorID == h.deps.Config.Telegram.OverrideID

	err = h.deps.Reply.Release(ctx, targetID, operatorID, isOverride)
	switch {
	case errors.Is(err, relay.ErrNotAssigned):
		respond(ctx, b, log, chatID, fmt.Sprintf("User %d has no assignment.", targetID))
	case errors.Is(err, relay.ErrForbidden):
		respond(ctx, b, log, chatID, fmt.Sprintf("User %d is assigned to another operator; only they or the override can release.", targetID))
	case err != nil:
		log.ErrorContext(ctx, "Release failed", "target_id", targetID, "error", err)
		respond(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
	default:
		respond(ctx, b, log, chatID, fmt.Sprintf("Assignment for user %d released.", targetID))
	}
}
