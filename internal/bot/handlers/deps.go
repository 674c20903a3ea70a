package handlers

import (
	"log/slog"

	"support-relay/internal/config"
	"support-relay/internal/database"
	"support-relay/internal/relay"
)

// HandlerDeps provides dependencies for Telegram command and message
// handlers.
type HandlerDeps struct {
	Logger      *slog.Logger
	Config      *config.Config
	Store       database.Store
	Gate        *relay.Gate
	Inbound     *relay.InboundRouter
	Reply       *relay.ReplyRouter
	Broadcaster *relay.Broadcaster
	Stats       *relay.StatsService
	Transport   relay.Transport

	// Pending tracks operators who armed /broadcast and owe the bot the
	// broadcast content as their next message.
	Pending *PendingBroadcasts
}
