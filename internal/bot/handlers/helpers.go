package handlers

import (
	"context"
	"strings"
)

// reply sends text to chatID, logging delivery failures.
func reply(ctx context.Context, deps HandlerDeps, chatID int64, text string) {
	if err := deps.Sender.Send(ctx, chatID, text); err != nil {
		deps.Logger.ErrorContext(ctx, "Failed to send reply", "error", err, "chat_id", chatID)
	}
}

// commandArgs returns the trimmed text after the command word.
func commandArgs(text string) string {
	_, args, _ := strings.Cut(strings.TrimSpace(text), " ")
	return strings.TrimSpace(args)
}

// hasArgs reports whether anything at all follows the command word.
func hasArgs(text string) bool {
	_, _, found := strings.Cut(strings.TrimSpace(text), " ")
	return found
}
