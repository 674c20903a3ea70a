package handlers

import (
	"github.com/go-telegram/bot/models"

	"support-relay/internal/relay"
)

// messageContent converts a Telegram message into the relay's
// transport-agnostic content form. Media payloads travel as file ids with
// the caption in Text; unsupported attachment types come back as KindOther
// so callers can persist or reject them explicitly.
func messageContent(msg *models.Message) relay.Content {
	switch {
	case msg.Text != "":
		return relay.Content{Kind: relay.KindText, Text: msg.Text}
	case len(msg.Photo) > 0:
		// Telegram lists photo sizes smallest first; forward the largest.
		return relay.Content{
			Kind:   relay.KindPhoto,
			Text:   msg.Caption,
			FileID: msg.Photo[len(msg.Photo)-1].FileID,
		}
	case msg.Document != nil:
		return relay.Content{Kind: relay.KindDocument, Text: msg.Caption, FileID: msg.Document.FileID}
	case msg.Voice != nil:
		return relay.Content{Kind: relay.KindVoice, Text: msg.Caption, FileID: msg.Voice.FileID}
	case msg.Video != nil:
		return relay.Content{Kind: relay.KindVideo, Text: msg.Caption, FileID: msg.Video.FileID}
	case msg.Sticker != nil:
		return relay.Content{Kind: relay.KindSticker, FileID: msg.Sticker.FileID}
	default:
		return relay.Content{Kind: relay.KindOther, Text: msg.Caption}
	}
}

// displayName builds a human-readable name from the Telegram user record.
func displayName(u *models.User) string {
	if u == nil {
		return ""
	}
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	return name
}
