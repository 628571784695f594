package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewBroadcastNowHandler returns a handler for the operator-only /broadcast_now command.
func NewBroadcastNowHandler(deps HandlerDeps) bot.HandlerFunc {
	return broadcastNowHandler{deps}.Handle
}

type broadcastNowHandler struct {
	deps HandlerDeps
}

func (h broadcastNowHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "broadcast_now")

	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID
	log.InfoContext(ctx, "Manual broadcast requested", "chat_id", chatID)

	summary, err := h.deps.RunBroadcast(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Manual broadcast failed", "error", err)
		reply(ctx, h.deps, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	reply(ctx, h.deps, chatID, fmt.Sprintf(h.deps.Config.Messages.BroadcastDone,
		summary.Total, summary.Sent, summary.Failed, summary.Skipped, summary.Deactivated))
}
