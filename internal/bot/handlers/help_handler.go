package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewHelpHandler returns a handler for the /help command. Operators get
// the full command surface; users get the conversational basics.
func NewHelpHandler(deps HandlerDeps) bot.HandlerFunc {
	return helpHandler{deps}.Handle
}

type helpHandler struct {
	deps HandlerDeps
}

const userHelp = `Send me a message and the support team will get back to you here.

/start - introduction
/help - this message`

const operatorHelp = `Reply to a forwarded message to answer the user. Your first reply assigns the conversation to you.

/ban <user_id> [reason] - ban a user (or reply to a forwarded message)
/unban <user_id> - lift a ban
/banned - list banned users
/broadcast - send your next message to every non-banned user (cancel: /broadcast cancel)
/stats - usage counters
/export - JSON snapshot of users, messages, replies, and bans
/release <user_id> - release a conversation assignment`

func (h helpHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "help")

	if update.Message == nil || update.Message.From == nil {
		return
	}

	var sections []string
	sections = append(sections, userHelp)
	if isAuthorized(h.deps, update.Message.From.ID) {
		sections = append(sections, operatorHelp)
	}

	respond(ctx, b, log, update.Message.Chat.ID, strings.Join(sections, "\n\n"))
}
