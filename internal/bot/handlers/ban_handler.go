package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"support-relay/internal/relay"
)

// NewBanHandler returns a handler for the /ban command.
func NewBanHandler(deps HandlerDeps) bot.HandlerFunc {
	return banHandler{deps}.Handle
}

type banHandler struct {
	deps HandlerDeps
}

func (h banHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "ban")

	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	chatID := msg.Chat.ID

	targetID, reason, err := h.parseTarget(ctx, msg)
	if err != nil {
		respond(ctx, b, log, chatID, "Usage: /ban <user_id> [reason], or reply to a forwarded message with /ban [reason]")
		return
	}

	if isAuthorized(h.deps, targetID) {
		respond(ctx, b, log, chatID, "Operators cannot be banned.")
		return
	}

	err = h.deps.Gate.Ban(ctx, targetID, reason, msg.From.ID)
	switch {
	case errors.Is(err, relay.ErrAlreadyBanned):
		respond(ctx, b, log, chatID, fmt.Sprintf("User %d is already banned.", targetID))
	case err != nil:
		log.ErrorContext(ctx, "Ban failed", "target_id", targetID, "error", err)
		respond(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
	default:
		respond(ctx, b, log, chatID, fmt.Sprintf("User %d banned.", targetID))
	}
}

// parseTarget resolves the ban target and reason. Replying to a forwarded
// message bans its sender and treats every argument as the reason;
// otherwise the first argument is the user id and the rest the reason.
func (h banHandler) parseTarget(ctx context.Context, msg *models.Message) (int64, string, error) {
	args := commandArgs(msg)

	if msg.ReplyToMessage != nil {
		corr, err := h.deps.Store.GetCorrelation(ctx, msg.Chat.ID, msg.ReplyToMessage.ID)
		if err != nil {
			return 0, "", err
		}
		if corr != nil {
			return corr.UserID, strings.Join(args, " "), nil
		}
	}

	if len(args) == 0 {
		return 0, "", fmt.Errorf("no target user")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, "", fmt.Errorf("invalid user id %q", args[0])
	}
	return id, strings.Join(args[1:], " "), nil
}
