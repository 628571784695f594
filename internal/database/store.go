package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/edgard/morningbot/internal/errlog"
)

var (
	// ErrChatNotFound is returned when no record exists for a chat.
	ErrChatNotFound = errors.New("chat not found")
	// ErrChatInactive is returned when an operation requires an active chat.
	ErrChatInactive = errors.New("chat is not active")
)

// Store defines the chat registry operations. Every mutation touches a single
// record atomically; storage failures are recorded to the error sink and
// returned wrapped.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// UpsertChat creates the chat record if absent. An existing record keeps its
	// type and city, becomes active, and is re-subscribed if it was inactive.
	UpsertChat(ctx context.Context, chatID int64, chatType, defaultCity string) (*Chat, error)

	// SetCity changes the report city. Returns ErrChatNotFound for unknown chats.
	SetCity(ctx context.Context, chatID int64, city string) error

	// DeactivateChat marks the chat inactive. Returns ErrChatNotFound for unknown chats.
	DeactivateChat(ctx context.Context, chatID int64) error

	// SetReportsEnabled pauses or resumes the daily report.
	// Returns ErrChatNotFound or ErrChatInactive when the chat is not active.
	SetReportsEnabled(ctx context.Context, chatID int64, enabled bool) error

	// IsActive reports whether the chat exists and is active.
	IsActive(ctx context.Context, chatID int64) (bool, error)

	// GetCity returns the chat's city. Returns ErrChatNotFound for unknown chats.
	GetCity(ctx context.Context, chatID int64) (string, error)

	// GetChat returns the full record. Returns ErrChatNotFound for unknown chats.
	GetChat(ctx context.Context, chatID int64) (*Chat, error)

	// ListBroadcastTargets returns every active chat with reports enabled.
	ListBroadcastTargets(ctx context.Context) ([]Chat, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
	sink   errlog.Sink
	now    func() time.Time
}

// NewStore creates a new Store backed by db. Storage failures are recorded to sink.
func NewStore(db *sqlx.DB, logger *slog.Logger, sink errlog.Sink) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if sink == nil {
		sink = errlog.Nop()
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
		sink:   sink,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// fail logs and records a storage error and returns it wrapped with op.
func (s *sqlxStore) fail(ctx context.Context, op string, chatID int64, err error) error {
	wrapped := fmt.Errorf("%s (chat %d): %w", op, chatID, err)
	s.logger.ErrorContext(ctx, "Storage operation failed", "op", op, "chat_id", chatID, "error", err)
	s.sink.Record(wrapped)
	return wrapped
}

func (s *sqlxStore) UpsertChat(ctx context.Context, chatID int64, chatType, defaultCity string) (*Chat, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("chat_id cannot be zero")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, s.fail(ctx, "begin upsert", chatID, err)
	}
	defer rollback(ctx, s.logger, tx)

	now := s.now()
	query := s.db.Rebind(`
        INSERT INTO chats (chat_id, chat_type, city, is_active, reports_enabled, created_at, updated_at)
        VALUES (?, ?, ?, TRUE, TRUE, ?, ?)
        ON CONFLICT (chat_id) DO UPDATE SET
            reports_enabled = CASE WHEN chats.is_active THEN chats.reports_enabled ELSE TRUE END,
            is_active = TRUE,
            updated_at = excluded.updated_at;
    `)
	if _, err := tx.ExecContext(ctx, query, chatID, chatType, defaultCity, now, now); err != nil {
		return nil, s.fail(ctx, "upsert chat", chatID, err)
	}

	var chat Chat
	if err := tx.GetContext(ctx, &chat, s.db.Rebind(selectChat+` WHERE chat_id = ?`), chatID); err != nil {
		return nil, s.fail(ctx, "read upserted chat", chatID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, s.fail(ctx, "commit upsert", chatID, err)
	}

	s.logger.DebugContext(ctx, "Chat upserted", "chat_id", chatID, "city", chat.City)
	return &chat, nil
}

func (s *sqlxStore) SetCity(ctx context.Context, chatID int64, city string) error {
	query := s.db.Rebind(`UPDATE chats SET city = ?, updated_at = ? WHERE chat_id = ?`)
	if err := s.updateOne(ctx, "set city", chatID, query, city, s.now(), chatID); err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "Chat city updated", "chat_id", chatID, "city", city)
	return nil
}

func (s *sqlxStore) DeactivateChat(ctx context.Context, chatID int64) error {
	query := s.db.Rebind(`UPDATE chats SET is_active = FALSE, updated_at = ? WHERE chat_id = ?`)
	if err := s.updateOne(ctx, "deactivate chat", chatID, query, s.now(), chatID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Chat deactivated", "chat_id", chatID)
	return nil
}

func (s *sqlxStore) SetReportsEnabled(ctx context.Context, chatID int64, enabled bool) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return s.fail(ctx, "begin set reports", chatID, err)
	}
	defer rollback(ctx, s.logger, tx)

	var active bool
	err = tx.GetContext(ctx, &active, s.db.Rebind(`SELECT is_active FROM chats WHERE chat_id = ?`), chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrChatNotFound
	}
	if err != nil {
		return s.fail(ctx, "read chat state", chatID, err)
	}
	if !active {
		return ErrChatInactive
	}

	query := s.db.Rebind(`UPDATE chats SET reports_enabled = ?, updated_at = ? WHERE chat_id = ?`)
	if _, err := tx.ExecContext(ctx, query, enabled, s.now(), chatID); err != nil {
		return s.fail(ctx, "set reports enabled", chatID, err)
	}

	if err := tx.Commit(); err != nil {
		return s.fail(ctx, "commit set reports", chatID, err)
	}

	s.logger.DebugContext(ctx, "Chat reports toggled", "chat_id", chatID, "enabled", enabled)
	return nil
}

func (s *sqlxStore) IsActive(ctx context.Context, chatID int64) (bool, error) {
	var active bool
	err := s.db.GetContext(ctx, &active, s.db.Rebind(`SELECT is_active FROM chats WHERE chat_id = ?`), chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, s.fail(ctx, "check active", chatID, err)
	}
	return active, nil
}

func (s *sqlxStore) GetCity(ctx context.Context, chatID int64) (string, error) {
	var city string
	err := s.db.GetContext(ctx, &city, s.db.Rebind(`SELECT city FROM chats WHERE chat_id = ?`), chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrChatNotFound
	}
	if err != nil {
		return "", s.fail(ctx, "get city", chatID, err)
	}
	return city, nil
}

func (s *sqlxStore) GetChat(ctx context.Context, chatID int64) (*Chat, error) {
	var chat Chat
	err := s.db.GetContext(ctx, &chat, s.db.Rebind(selectChat+` WHERE chat_id = ?`), chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrChatNotFound
	}
	if err != nil {
		return nil, s.fail(ctx, "get chat", chatID, err)
	}
	return &chat, nil
}

func (s *sqlxStore) ListBroadcastTargets(ctx context.Context) ([]Chat, error) {
	var chats []Chat
	query := selectChat + ` WHERE is_active AND reports_enabled ORDER BY chat_id`
	if err := s.db.SelectContext(ctx, &chats, query); err != nil {
		return nil, s.fail(ctx, "list broadcast targets", 0, err)
	}
	return chats, nil
}

// RunSQLMaintenance reclaims space and refreshes planner statistics.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	statements := []string{"VACUUM", "ANALYZE"}
	if s.db.DriverName() == "sqlite" {
		statements = append(statements, "PRAGMA optimize")
	}

	for _, stmt := range statements {
		s.logger.InfoContext(ctx, "Running SQL maintenance statement", "statement", stmt)
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return s.fail(ctx, "maintenance "+stmt, 0, err)
		}
	}
	return nil
}

// updateOne runs a single-row UPDATE and maps "no rows" to ErrChatNotFound.
func (s *sqlxStore) updateOne(ctx context.Context, op string, chatID int64, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return s.fail(ctx, op, chatID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return s.fail(ctx, op, chatID, err)
	}
	if affected == 0 {
		return ErrChatNotFound
	}
	return nil
}

const selectChat = `SELECT chat_id, chat_type, city, is_active, reports_enabled, created_at, updated_at FROM chats`

func rollback(ctx context.Context, logger *slog.Logger, tx *sqlx.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		logger.WarnContext(ctx, "Error rolling back transaction", "error", err)
	}
}
