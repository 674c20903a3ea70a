package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// respond sends a plain text message and logs delivery failures. Command
// feedback is best effort; a lost confirmation never fails the command.
func respond(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send response", "error", err, "chat_id", chatID)
	}
}

// commandArgs splits the message text into the arguments after the command
// itself.
func commandArgs(msg *models.Message) []string {
	fields := strings.Fields(msg.Text)
	if len(fields) <= 1 {
		return nil
	}
	return fields[1:]
}

// resolveTargetUser determines which user a moderation or release command
// targets. An explicit numeric argument wins; otherwise a command issued as
// a reply to a forwarded message resolves through the correlation table.
func resolveTargetUser(ctx context.Context, deps HandlerDeps, msg *models.Message, args []string) (int64, error) {
	if len(args) > 0 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			return 0, fmt.Errorf("invalid user id %q", args[0])
		}
		return id, nil
	}

	if msg.ReplyToMessage != nil {
		corr, err := deps.Store.GetCorrelation(ctx, msg.Chat.ID, msg.ReplyToMessage.ID)
		if err != nil {
			return 0, fmt.Errorf("failed to resolve replied-to message: %w", err)
		}
		if corr != nil {
			return corr.UserID, nil
		}
	}

	return 0, fmt.Errorf("no target user: pass a user id or reply to a forwarded message")
}
