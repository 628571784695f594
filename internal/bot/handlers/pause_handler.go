package handlers

import (
	"context"
	"errors"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/morningbot/internal/database"
)

// NewPauseHandler returns a handler for the /pause command.
func NewPauseHandler(deps HandlerDeps) bot.HandlerFunc {
	return reportsToggleHandler{deps: deps, enabled: false}.Handle
}

// NewResumeHandler returns a handler for the /resume command.
func NewResumeHandler(deps HandlerDeps) bot.HandlerFunc {
	return reportsToggleHandler{deps: deps, enabled: true}.Handle
}

// reportsToggleHandler switches daily reports on or off for an active chat.
// Repeating the same command is harmless.
type reportsToggleHandler struct {
	deps    HandlerDeps
	enabled bool
}

func (h reportsToggleHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	name := "pause"
	done := h.deps.Config.Messages.Paused
	if h.enabled {
		name = "resume"
		done = h.deps.Config.Messages.Resumed
	}
	log := h.deps.Logger.With("handler", name)

	if update.Message == nil {
		log.WarnContext(ctx, "Handler received update with nil message", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	log.InfoContext(ctx, "Handling /"+name+" command", "chat_id", chatID)

	err := h.deps.Store.SetReportsEnabled(ctx, chatID, h.enabled)
	switch {
	case errors.Is(err, database.ErrChatNotFound), errors.Is(err, database.ErrChatInactive):
		reply(ctx, h.deps, chatID, h.deps.Config.Messages.NotActivated)
	case err != nil:
		log.ErrorContext(ctx, "Failed to toggle reports", "error", err, "chat_id", chatID)
		reply(ctx, h.deps, chatID, h.deps.Config.Messages.SaveFailed)
	default:
		reply(ctx, h.deps, chatID, done)
	}
}
