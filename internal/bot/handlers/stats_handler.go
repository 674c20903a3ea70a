package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewStatsHandler returns a handler for the /stats command.
func NewStatsHandler(deps HandlerDeps) bot.HandlerFunc {
	return statsHandler{deps}.Handle
}

type statsHandler struct {
	deps HandlerDeps
}

func (h statsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "stats")

	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	chatID := msg.Chat.ID

	stats, err := h.deps.Stats.Stats(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to collect stats", "error", err)
		respond(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	broadcast := "idle"
	if stats.BroadcastInProgress {
		broadcast = "running"
	}
	respond(ctx, b, log, chatID, fmt.Sprintf(
		"Users: %d\nMessages: %d\nBanned: %d\nBroadcast: %s",
		stats.Users, stats.Messages, stats.Banned, broadcast))
}
