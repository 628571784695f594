// Package handlers contains Telegram bot command handlers, along with their
// registration logic and middleware.
package handlers

import (
	"context"
	"fmt"
	"runtime/debug"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// AdminOnly creates a middleware that checks if the message sender is the configured admin user.
// If not, it sends a "Not Authorized" message and stops processing by returning early.
func AdminOnly(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			if update.Message == nil || update.Message.From == nil {
				return
			}

			userID := update.Message.From.ID
			if userID != deps.Config.Telegram.AdminUserID {
				chatID := update.Message.Chat.ID
				deps.Logger.WarnContext(ctx, "Unauthorized access attempt", "middleware", "AdminOnly", "user_id", userID, "chat_id", chatID)
				reply(ctx, deps, chatID, deps.Config.Messages.NotAuthorized)
				return
			}

			next(ctx, bot, update)
		}
	}
}

// Recover stops a panicking handler from taking the listener down. The panic
// is logged, recorded to the error sink and answered with a generic apology.
func Recover(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				err := fmt.Errorf("panic in handler: %v", r)
				deps.Logger.ErrorContext(ctx, "Recovered from handler panic", "error", err, "update_id", update.ID, "stack", string(debug.Stack()))
				if deps.ErrorSink != nil {
					deps.ErrorSink.Record(err)
				}
				if update.Message != nil {
					reply(ctx, deps, update.Message.Chat.ID, deps.Config.Messages.GeneralError)
				}
			}()
			next(ctx, bot, update)
		}
	}
}
