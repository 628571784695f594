package handlers

import (
	tgbot "github.com/go-telegram/bot"
)

// RegisteredHandler represents a command handler with its description and middleware.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Description string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
}

// CommandOrder lists the user-facing commands in menu order.
var CommandOrder = []string{"/start", "/set_city", "/weather", "/traffic", "/pause", "/resume", "/stop", "/help"}

// RegisterAllCommands initializes and returns a map of all available bot commands.
// Every handler is wrapped in Recover.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)

	command := func(pattern, description string, handler tgbot.HandlerFunc, mw ...tgbot.Middleware) {
		handlers["/"+pattern] = RegisteredHandler{
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     pattern,
			Description: description,
			Handler:     handler,
			Middleware:  append([]tgbot.Middleware{Recover(deps)}, mw...),
			MatchType:   tgbot.MatchTypeCommandStartOnly,
		}
	}

	command("start", "Activate the bot", NewStartHandler(deps))
	command("set_city", "Change the report city", NewSetCityHandler(deps))
	command("weather", "Current weather", NewWeatherHandler(deps))
	command("traffic", "Current traffic", NewTrafficHandler(deps))
	command("pause", "Pause daily reports", NewPauseHandler(deps))
	command("resume", "Resume daily reports", NewResumeHandler(deps))
	command("stop", "Deactivate the bot", NewStopHandler(deps))
	command("help", "List commands", NewHelpHandler(deps))

	if deps.RunBroadcast != nil && deps.Config.Telegram.AdminUserID != 0 {
		command("broadcast_now", "", NewBroadcastNowHandler(deps), AdminOnly(deps))
	}

	return handlers
}
