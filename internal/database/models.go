package database

import "time"

// Chat is the subscription record of one Telegram chat.
//
// IsActive means the chat was onboarded with /start and not stopped since.
// ReportsEnabled means the chat wants the daily broadcast; it only matters
// while IsActive is true.
type Chat struct {
	ChatID         int64     `db:"chat_id"`
	ChatType       string    `db:"chat_type"`
	City           string    `db:"city"`
	IsActive       bool      `db:"is_active"`
	ReportsEnabled bool      `db:"reports_enabled"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}
