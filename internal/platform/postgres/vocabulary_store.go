package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/fluentwork/coach/internal/domain"
	"github.com/fluentwork/coach/internal/store"
)

const vocabularyColumns = `id, word, translation, example, category, common_error`

// VocabularyStore implements the vocabulary capabilities on the vocabulary table.
type VocabularyStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.VocabularyLookup = (*VocabularyStore)(nil)

// NewVocabularyStore creates a vocabulary store. If logger is nil, slog.Default() is used.
func NewVocabularyStore(db store.DBTX, logger *slog.Logger) *VocabularyStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &VocabularyStore{db: db, logger: logger.With(slog.String("component", "vocabulary_store"))}
}

// WithTx returns a store that runs its queries inside tx.
func (s *VocabularyStore) WithTx(tx *sql.Tx) *VocabularyStore {
	return &VocabularyStore{db: tx, logger: s.logger}
}

// upsertItem writes one item. Callers wanting all-or-nothing batches run it inside a transaction.
func (s *VocabularyStore) upsertItem(ctx context.Context, userID string, item *domain.VocabularyItem) error {
	if err := item.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vocabulary (user_id, `+vocabularyColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, id) DO UPDATE SET
			word = EXCLUDED.word,
			translation = EXCLUDED.translation,
			example = EXCLUDED.example,
			category = EXCLUDED.category,
			common_error = EXCLUDED.common_error`,
		userID, item.ID, item.Word, item.Translation, item.Example, string(item.Category), item.CommonError)
	return wrapError("vocabulary", "save", err)
}

// LoadVocabulary returns the user's catalog ordered by id.
func (s *VocabularyStore) LoadVocabulary(ctx context.Context, userID string) ([]domain.VocabularyItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+vocabularyColumns+` FROM vocabulary WHERE user_id = $1 ORDER BY id ASC`, userID)
	if err != nil {
		return nil, wrapError("vocabulary", "load", err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]domain.VocabularyItem, 0)
	for rows.Next() {
		item, err := scanVocabulary(rows)
		if err != nil {
			return nil, wrapError("vocabulary", "load", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("vocabulary", "load", err)
	}
	return items, nil
}

// GetVocabularyItem implements store.VocabularyLookup.
func (s *VocabularyStore) GetVocabularyItem(ctx context.Context, userID, itemID string) (*domain.VocabularyItem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+vocabularyColumns+` FROM vocabulary WHERE user_id = $1 AND id = $2`, userID, itemID)
	item, err := scanVocabulary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrVocabularyNotFound
	}
	if err != nil {
		return nil, wrapError("vocabulary", "get", err)
	}
	return item, nil
}

func scanVocabulary(row rowScanner) (*domain.VocabularyItem, error) {
	var (
		item     domain.VocabularyItem
		category string
	)
	if err := row.Scan(&item.ID, &item.Word, &item.Translation, &item.Example, &category, &item.CommonError); err != nil {
		return nil, err
	}
	item.Category = domain.Category(category)
	return &item, nil
}
