package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewExportHandler returns a handler for the /export command. The snapshot
// is delivered as a JSON document attachment in the requesting chat.
func NewExportHandler(deps HandlerDeps) bot.HandlerFunc {
	return exportHandler{deps}.Handle
}

type exportHandler struct {
	deps HandlerDeps
}

func (h exportHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "export")

	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	chatID := msg.Chat.ID

	data, err := h.deps.Stats.Export(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to render export", "error", err)
		respond(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	filename := fmt.Sprintf("relay-export-%s.json", time.Now().UTC().Format("20060102-150405"))
	if _, err := h.deps.Transport.SendDocumentUpload(ctx, chatID, filename, data, "Relay data export"); err != nil {
		log.ErrorContext(ctx, "Failed to upload export document", "error", err, "chat_id", chatID)
		respond(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	log.InfoContext(ctx, "Export delivered", "operator_id", msg.From.ID, "bytes", len(data))
}
