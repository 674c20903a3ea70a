package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewBannedHandler returns a handler for the /banned command.
func NewBannedHandler(deps HandlerDeps) bot.HandlerFunc {
	return bannedHandler{deps}.Handle
}

type bannedHandler struct {
	deps HandlerDeps
}

func (h bannedHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "banned")

	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	chatID := msg.Chat.ID

	banned, err := h.deps.Gate.Banned(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to list banned users", "error", err)
		respond(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	if len(banned) == 0 {
		respond(ctx, b, log, chatID, "No banned users.")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Banned users (%d):\n", len(banned))
	for _, u := range banned {
		fmt.Fprintf(&sb, "\n%d", u.UserID)
		if u.DisplayName != "" {
			fmt.Fprintf(&sb, " (%s)", u.DisplayName)
		}
		if u.BanReason != "" {
			fmt.Fprintf(&sb, " - %s", u.BanReason)
		}
		if u.BannedAt.Valid {
			fmt.Fprintf(&sb, " [since %s]", u.BannedAt.Time.Format("2006-01-02"))
		}
	}

	respond(ctx, b, log, chatID, sb.String())
}
