package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewStopHandler returns a handler for the /stop command.
func NewStopHandler(deps HandlerDeps) bot.HandlerFunc {
	return stopHandler{deps}.Handle
}

type stopHandler struct {
	deps HandlerDeps
}

func (h stopHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "stop")

	if update.Message == nil {
		log.WarnContext(ctx, "Stop handler received update with nil message", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	log.InfoContext(ctx, "Handling /stop command", "chat_id", chatID)

	if err := h.deps.Store.DeactivateChat(ctx, chatID); err != nil {
		log.WarnContext(ctx, "Failed to deactivate chat", "error", err, "chat_id", chatID)
		reply(ctx, h.deps, chatID, h.deps.Config.Messages.StopFailed)
		return
	}
	reply(ctx, h.deps, chatID, h.deps.Config.Messages.Stopped)
}
