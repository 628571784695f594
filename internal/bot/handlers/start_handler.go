package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewStartHandler returns a handler for the /start command.
func NewStartHandler(deps HandlerDeps) bot.HandlerFunc {
	return startHandler{deps}.Handle
}

// startHandler activates a chat, creating its record on first contact.
type startHandler struct {
	deps HandlerDeps
}

func (h startHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "start")

	if update.Message == nil {
		log.WarnContext(ctx, "Start handler received update with nil message", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	msgs := h.deps.Config.Messages
	log.InfoContext(ctx, "Handling /start command", "chat_id", chatID)

	active, err := h.deps.Store.IsActive(ctx, chatID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to check chat state", "error", err, "chat_id", chatID)
		reply(ctx, h.deps, chatID, msgs.ActivationFailed)
		return
	}
	if active {
		reply(ctx, h.deps, chatID, msgs.AlreadyActive)
		return
	}

	chat, err := h.deps.Store.UpsertChat(ctx, chatID, string(update.Message.Chat.Type), h.deps.Config.Report.DefaultCity)
	if err != nil {
		log.ErrorContext(ctx, "Failed to activate chat", "error", err, "chat_id", chatID)
		reply(ctx, h.deps, chatID, msgs.SaveFailed)
		return
	}

	reply(ctx, h.deps, chatID, fmt.Sprintf(msgs.Welcome, chat.City))
}
