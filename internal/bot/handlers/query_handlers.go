package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/morningbot/internal/database"
	"github.com/edgard/morningbot/internal/report"
)

// NewWeatherHandler returns a handler for the /weather command.
func NewWeatherHandler(deps HandlerDeps) bot.HandlerFunc {
	return queryHandler{deps: deps, name: "weather", answer: weatherAnswer}.Handle
}

// NewTrafficHandler returns a handler for the /traffic command.
func NewTrafficHandler(deps HandlerDeps) bot.HandlerFunc {
	return queryHandler{deps: deps, name: "traffic", answer: trafficAnswer}.Handle
}

// queryHandler answers an on-demand question about the chat's city.
// answer returns ok=false when the provider has nothing usable.
type queryHandler struct {
	deps   HandlerDeps
	name   string
	answer func(ctx context.Context, r Reporter, city string) (string, bool)
}

func (h queryHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", h.name)

	if update.Message == nil {
		log.WarnContext(ctx, "Handler received update with nil message", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	msgs := h.deps.Config.Messages
	log.InfoContext(ctx, "Handling /"+h.name+" command", "chat_id", chatID)

	chat, err := h.deps.Store.GetChat(ctx, chatID)
	switch {
	case errors.Is(err, database.ErrChatNotFound):
		reply(ctx, h.deps, chatID, msgs.NotActivated)
		return
	case err != nil:
		log.ErrorContext(ctx, "Failed to load chat", "error", err, "chat_id", chatID)
		reply(ctx, h.deps, chatID, msgs.GeneralError)
		return
	case !chat.IsActive:
		reply(ctx, h.deps, chatID, msgs.NotActivated)
		return
	}

	text, ok := h.answer(ctx, h.deps.Reports, chat.City)
	if !ok {
		reply(ctx, h.deps, chatID, msgs.TryLater)
		return
	}
	reply(ctx, h.deps, chatID, text)
}

func weatherAnswer(ctx context.Context, r Reporter, city string) (string, bool) {
	current, err := r.Weather(ctx, city)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("🌡 Weather in %s: %s", city, report.FormatWeather(current)), true
}

func trafficAnswer(ctx context.Context, r Reporter, city string) (string, bool) {
	result := r.Traffic(ctx, city)
	if result.Status != http.StatusOK {
		return "", false
	}
	return fmt.Sprintf("🚗 Traffic in %s: %s", city, report.FormatTraffic(result)), true
}
