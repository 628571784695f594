package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/morningbot/internal/database"
)

// NewSetCityHandler returns a handler for the /set_city command.
func NewSetCityHandler(deps HandlerDeps) bot.HandlerFunc {
	return setCityHandler{deps}.Handle
}

// setCityHandler validates a city with the weather provider before storing it.
type setCityHandler struct {
	deps HandlerDeps
}

func (h setCityHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "set_city")

	if update.Message == nil {
		log.WarnContext(ctx, "Set city handler received update with nil message", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	msgs := h.deps.Config.Messages

	if !hasArgs(update.Message.Text) {
		reply(ctx, h.deps, chatID, msgs.CityUsage)
		return
	}
	city := commandArgs(update.Message.Text)
	if city == "" {
		reply(ctx, h.deps, chatID, msgs.CityEmpty)
		return
	}

	log.InfoContext(ctx, "Handling /set_city command", "chat_id", chatID, "city", city)
	reply(ctx, h.deps, chatID, fmt.Sprintf(msgs.CityLookup, city))

	if !h.deps.Cities.Exists(ctx, city) {
		reply(ctx, h.deps, chatID, fmt.Sprintf(msgs.CityNotFound, city))
		return
	}

	err := h.deps.Store.SetCity(ctx, chatID, city)
	switch {
	case errors.Is(err, database.ErrChatNotFound):
		reply(ctx, h.deps, chatID, msgs.NotActivated)
	case err != nil:
		log.ErrorContext(ctx, "Failed to update city", "error", err, "chat_id", chatID)
		reply(ctx, h.deps, chatID, msgs.CityCheckFailed)
	default:
		reply(ctx, h.deps, chatID, fmt.Sprintf(msgs.CityUpdated, city))
	}
}
