package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/fluentwork/coach/internal/domain"
	"github.com/fluentwork/coach/internal/store"
)

// ProfileStore implements store.ProfileStore on the profiles table.
type ProfileStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.ProfileStore = (*ProfileStore)(nil)

// NewProfileStore creates a profile store. If logger is nil, slog.Default() is used.
func NewProfileStore(db store.DBTX, logger *slog.Logger) *ProfileStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileStore{db: db, logger: logger.With(slog.String("component", "profile_store"))}
}

// WithTx returns a store that runs its queries inside tx.
func (s *ProfileStore) WithTx(tx *sql.Tx) *ProfileStore {
	return &ProfileStore{db: tx, logger: s.logger}
}

// SaveProfile implements store.ProfileStore.
func (s *ProfileStore) SaveProfile(ctx context.Context, userID string, profile *domain.UserProfile) error {
	if err := profile.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, level, context, goal, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (user_id) DO UPDATE SET
			level = EXCLUDED.level,
			context = EXCLUDED.context,
			goal = EXCLUDED.goal,
			updated_at = EXCLUDED.updated_at`,
		userID, string(profile.Level), profile.Context, profile.Goal)
	return wrapError("profile", "save", err)
}

// GetProfile implements store.ProfileStore.
func (s *ProfileStore) GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	var (
		p     domain.UserProfile
		level string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT level, context, goal FROM profiles WHERE user_id = $1`, userID).
		Scan(&level, &p.Context, &p.Goal)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrProfileNotFound
	}
	if err != nil {
		return nil, wrapError("profile", "get", err)
	}
	p.Level = domain.Level(level)
	return &p, nil
}
