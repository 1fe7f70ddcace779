package conversation

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store against the messages table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new Postgres-backed message store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) AppendTurn(ctx context.Context, turn Turn) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO messages (id, user_id, role, content, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		turn.ID, turn.UserID, string(turn.Role), turn.Content, turn.Timestamp)
	if err != nil {
		return fmt.Errorf("inserting turn: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecentTurns(ctx context.Context, userID string, limit int, desc bool) ([]Turn, error) {
	// Select the newest rows first so LIMIT picks the most recent window,
	// then flip in memory when ascending order was requested.
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, role, content, created_at
		 FROM messages
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		var role string
		if err := rows.Scan(&t.ID, &t.UserID, &role, &t.Content, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		t.Role = Role(role)
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !desc {
		for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
			turns[i], turns[j] = turns[j], turns[i]
		}
	}
	return turns, nil
}

func (s *PostgresStore) ClearAll(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM messages WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("clearing turns: %w", err)
	}
	return nil
}
