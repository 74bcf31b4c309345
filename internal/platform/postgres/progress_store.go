package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/fluentwork/coach/internal/domain"
	"github.com/fluentwork/coach/internal/platform/logger"
	"github.com/fluentwork/coach/internal/store"
)

const progressColumns = `user_id, vocabulary_item_id, mastery_level, next_review_date,
	times_reviewed, times_correct, learned, updated_at`

// ProgressStore implements store.ProgressStore on the vocabulary_progress table.
type ProgressStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.ProgressStore = (*ProgressStore)(nil)

// NewProgressStore creates a progress store. If logger is nil, slog.Default() is used.
func NewProgressStore(db store.DBTX, logger *slog.Logger) *ProgressStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProgressStore{
		db:     db,
		logger: logger.With(slog.String("component", "progress_store")),
	}
}

// WithTx returns a store that runs its queries inside tx.
func (s *ProgressStore) WithTx(tx *sql.Tx) *ProgressStore {
	return &ProgressStore{db: tx, logger: s.logger}
}

// UpsertProgress implements store.ProgressStore. The row is written in a
// single statement, so a failure leaves the previous row as it was.
func (s *ProgressStore) UpsertProgress(ctx context.Context, rec *domain.ProgressRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := rec.Validate(); err != nil {
		log.Warn("rejected invalid progress record",
			slog.String("user_id", rec.UserID),
			slog.String("vocabulary_item_id", rec.VocabularyItemID),
			slog.String("error", err.Error()))
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vocabulary_progress (`+progressColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, vocabulary_item_id) DO UPDATE SET
			mastery_level    = EXCLUDED.mastery_level,
			next_review_date = EXCLUDED.next_review_date,
			times_reviewed   = EXCLUDED.times_reviewed,
			times_correct    = EXCLUDED.times_correct,
			learned          = EXCLUDED.learned,
			updated_at       = EXCLUDED.updated_at`,
		rec.UserID,
		rec.VocabularyItemID,
		rec.MasteryLevel,
		rec.NextReviewDate.UTC(),
		rec.TimesReviewed,
		rec.TimesCorrect,
		rec.Learned,
		rec.UpdatedAt.UTC(),
	)
	if err != nil {
		log.Error("failed to upsert progress",
			slog.String("user_id", rec.UserID),
			slog.String("vocabulary_item_id", rec.VocabularyItemID),
			slog.String("error", err.Error()))
		return wrapError("progress", "upsert", err)
	}

	log.Debug("progress upserted",
		slog.String("user_id", rec.UserID),
		slog.String("vocabulary_item_id", rec.VocabularyItemID),
		slog.Int("mastery_level", rec.MasteryLevel))
	return nil
}

// GetProgress implements store.ProgressStore.
func (s *ProgressStore) GetProgress(ctx context.Context, key domain.ProgressKey) (*domain.ProgressRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+progressColumns+` FROM vocabulary_progress
		 WHERE user_id = $1 AND vocabulary_item_id = $2`,
		key.UserID, key.VocabularyItemID)

	rec, err := scanProgress(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrProgressNotFound
	}
	if err != nil {
		return nil, wrapError("progress", "get", err)
	}
	return rec, nil
}

// LoadAllProgress implements store.ProgressStore.
func (s *ProgressStore) LoadAllProgress(ctx context.Context, userID string) ([]domain.ProgressRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+progressColumns+` FROM vocabulary_progress
		 WHERE user_id = $1
		 ORDER BY next_review_date ASC, vocabulary_item_id ASC`,
		userID)
	if err != nil {
		log.Error("failed to load progress", slog.String("user_id", userID), slog.String("error", err.Error()))
		return nil, wrapError("progress", "load", err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]domain.ProgressRecord, 0)
	for rows.Next() {
		rec, err := scanProgress(rows)
		if err != nil {
			return nil, wrapError("progress", "load", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("progress", "load", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProgress(row rowScanner) (*domain.ProgressRecord, error) {
	var rec domain.ProgressRecord
	if err := row.Scan(
		&rec.UserID,
		&rec.VocabularyItemID,
		&rec.MasteryLevel,
		&rec.NextReviewDate,
		&rec.TimesReviewed,
		&rec.TimesCorrect,
		&rec.Learned,
		&rec.UpdatedAt,
	); err != nil {
		return nil, err
	}
	rec.NextReviewDate = rec.NextReviewDate.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return &rec, nil
}
