package telegram

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"support-relay/internal/relay"
)

// Transport adapts the go-telegram/bot client to the relay.Transport
// contract. Every call is bounded by the configured send timeout.
type Transport struct {
	bot         *bot.Bot
	sendTimeout time.Duration
	logger      *slog.Logger
}

// NewTransport wraps a bot instance as a relay transport.
func NewTransport(b *bot.Bot, sendTimeout time.Duration, logger *slog.Logger) *Transport {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transport{
		bot:         b,
		sendTimeout: sendTimeout,
		logger:      logger.With("component", "telegram_transport"),
	}
}

// Send delivers content to a chat and returns the sent message id. Media
// kinds are re-sent by file id; Telegram serves the stored payload.
func (t *Transport) Send(ctx context.Context, chatID int64, content relay.Content) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, t.sendTimeout)
	defer cancel()

	var (
		msg *models.Message
		err error
	)

	switch content.Kind {
	case relay.KindText:
		msg, err = t.bot.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   content.Text,
		})
	case relay.KindPhoto:
		msg, err = t.bot.SendPhoto(ctx, &bot.SendPhotoParams{
			ChatID:  chatID,
			Photo:   &models.InputFileString{Data: content.FileID},
			Caption: content.Text,
		})
	case relay.KindDocument:
		msg, err = t.bot.SendDocument(ctx, &bot.SendDocumentParams{
			ChatID:   chatID,
			Document: &models.InputFileString{Data: content.FileID},
			Caption:  content.Text,
		})
	case relay.KindVoice:
		msg, err = t.bot.SendVoice(ctx, &bot.SendVoiceParams{
			ChatID:  chatID,
			Voice:   &models.InputFileString{Data: content.FileID},
			Caption: content.Text,
		})
	case relay.KindVideo:
		msg, err = t.bot.SendVideo(ctx, &bot.SendVideoParams{
			ChatID:  chatID,
			Video:   &models.InputFileString{Data: content.FileID},
			Caption: content.Text,
		})
	case relay.KindSticker:
		msg, err = t.bot.SendSticker(ctx, &bot.SendStickerParams{
			ChatID:  chatID,
			Sticker: &models.InputFileString{Data: content.FileID},
		})
	default:
		return 0, fmt.Errorf("unsupported content kind %q", content.Kind)
	}

	if err != nil {
		return 0, fmt.Errorf("send %s to chat %d: %w", content.Kind, chatID, err)
	}
	return msg.ID, nil
}

// Copy places a verbatim copy of an existing message into another chat and
// returns the copy's message id in the destination.
func (t *Transport) Copy(ctx context.Context, toChatID, fromChatID int64, messageID int) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, t.sendTimeout)
	defer cancel()

	id, err := t.bot.CopyMessage(ctx, &bot.CopyMessageParams{
		ChatID:     toChatID,
		FromChatID: fromChatID,
		MessageID:  messageID,
	})
	if err != nil {
		return 0, fmt.Errorf("copy message %d from chat %d to chat %d: %w", messageID, fromChatID, toChatID, err)
	}
	return id.ID, nil
}

// SendDocumentUpload uploads raw bytes as a document attachment.
func (t *Transport) SendDocumentUpload(ctx context.Context, chatID int64, filename string, data []byte, caption string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, t.sendTimeout)
	defer cancel()

	msg, err := t.bot.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID: chatID,
		Document: &models.InputFileUpload{
			Filename: filename,
			Data:     bytes.NewReader(data),
		},
		Caption: caption,
	})
	if err != nil {
		return 0, fmt.Errorf("upload document %s to chat %d: %w", filename, chatID, err)
	}
	return msg.ID, nil
}
