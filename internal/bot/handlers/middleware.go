// Package handlers contains Telegram bot command and message handlers,
// along with their registration logic and middleware.
package handlers

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// OperatorOnly creates a middleware that checks the message sender against
// the configured operator set. Unauthorized senders get a rejection message
// and processing stops.
func OperatorOnly(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			if update.Message == nil || update.Message.From == nil {
				next(ctx, bot, update)
				return
			}

			userID := update.Message.From.ID
			if !isAuthorized(deps, userID) {
				chatID := update.Message.Chat.ID
				log := deps.Logger.With("middleware", "OperatorOnly")
				log.WarnContext(ctx, "Unauthorized command attempt", "user_id", userID, "chat_id", chatID)

				_, err := bot.SendMessage(ctx, &tgbot.SendMessageParams{
					ChatID: chatID,
					Text:   deps.Config.Messages.NotAuthorized,
				})
				if err != nil {
					log.ErrorContext(ctx, "Failed to send unauthorized message", "error", err, "chat_id", chatID)
				}
				return
			}

			next(ctx, bot, update)
		}
	}
}

// isAuthorized reports whether id may use the operator command surface.
// The override identity is always authorized.
func isAuthorized(deps HandlerDeps, id int64) bool {
	if deps.Config.Telegram.OverrideID != 0 && id == deps.Config.Telegram.OverrideID {
		return true
	}
	return deps.Config.Telegram.IsOperator(id)
}
