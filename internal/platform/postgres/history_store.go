package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/fluentwork/coach/internal/domain"
	"github.com/fluentwork/coach/internal/platform/logger"
	"github.com/fluentwork/coach/internal/store"
)

// HistoryStore implements store.HistoryStore on the progress_history table.
type HistoryStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.HistoryStore = (*HistoryStore)(nil)

// NewHistoryStore creates a history store. If logger is nil, slog.Default() is used.
func NewHistoryStore(db store.DBTX, logger *slog.Logger) *HistoryStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryStore{db: db, logger: logger.With(slog.String("component", "history_store"))}
}

// WithTx returns a store that runs its queries inside tx.
func (s *HistoryStore) WithTx(tx *sql.Tx) *HistoryStore {
	return &HistoryStore{db: tx, logger: s.logger}
}

// AppendHistory implements store.HistoryStore.
func (s *HistoryStore) AppendHistory(ctx context.Context, userID string, entry domain.HistoryEntry) error {
	var details []byte
	if entry.Details != nil {
		var err error
		if details, err = json.Marshal(entry.Details); err != nil {
			return store.NewStoreError("history", "append", "encode details", err)
		}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO progress_history (user_id, entry_date, type, description, details)
		 VALUES ($1, $2, $3, $4, $5)`,
		userID, entry.Date.UTC(), entry.Type, entry.Description, details)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to append history",
			slog.String("user_id", userID),
			slog.String("type", entry.Type),
			slog.String("error", err.Error()))
		return wrapError("history", "append", err)
	}
	return nil
}

// LoadHistory implements store.HistoryStore.
func (s *HistoryStore) LoadHistory(ctx context.Context, userID string) ([]domain.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT entry_date, type, description, details FROM progress_history
		 WHERE user_id = $1 ORDER BY id ASC`,
		userID)
	if err != nil {
		return nil, wrapError("history", "load", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]domain.HistoryEntry, 0)
	for rows.Next() {
		var (
			entry   domain.HistoryEntry
			details []byte
		)
		if err := rows.Scan(&entry.Date, &entry.Type, &entry.Description, &details); err != nil {
			return nil, wrapError("history", "load", err)
		}
		entry.Date = entry.Date.UTC()
		if len(details) > 0 {
			var attempt domain.PracticeAttempt
			if err := json.Unmarshal(details, &attempt); err != nil {
				logger.FromContextOrDefault(ctx, s.logger).Warn("dropping unreadable attempt details",
					slog.String("user_id", userID),
					slog.String("error", err.Error()))
			} else {
				entry.Details = &attempt
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("history", "load", err)
	}
	return entries, nil
}
