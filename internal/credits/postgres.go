package credits

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements UserStore against the users table using an
// optimistic version column for the conditional write.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new Postgres-backed user store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) GetUser(ctx context.Context, userID string) (*UsageRecord, error) {
	var rec UsageRecord
	err := s.pool.QueryRow(ctx,
		`SELECT id, credits_used_today, last_request_date, version, updated_at
		 FROM users WHERE id = $1`, userID,
	).Scan(&rec.UserID, &rec.CreditsUsedToday, &rec.LastRequestDate, &rec.Version, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("fetching usage record: %w", err)
	}
	return &rec, nil
}

func (s *PostgresStore) SaveUser(ctx context.Context, rec *UsageRecord) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users
		 SET credits_used_today = $2,
		     last_request_date = $3,
		     version = version + 1,
		     updated_at = NOW()
		 WHERE id = $1 AND version = $4`,
		rec.UserID, rec.CreditsUsedToday, rec.LastRequestDate, rec.Version)
	if err != nil {
		return fmt.Errorf("saving usage record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either a concurrent writer bumped the version or the user vanished;
		// the retrying caller re-reads and finds out which.
		return ErrConflict
	}
	rec.Version++
	return nil
}

// CreateUser inserts a zero-usage record. Idempotent; the enroll endpoint
// calls this for every signup.
func (s *PostgresStore) CreateUser(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, userID)
	if err != nil {
		return fmt.Errorf("creating usage record: %w", err)
	}
	return nil
}
