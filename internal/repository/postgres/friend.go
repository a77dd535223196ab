package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/serejivanov62/wish/internal/models"
	"github.com/serejivanov62/wish/internal/repository"
)

type friendRepository struct {
	db *sql.DB
}

// NewFriendRepository creates a new friend repository
func NewFriendRepository(db *sql.DB) repository.FriendRepository {
	return &friendRepository{db: db}
}

func (r *friendRepository) AddPair(ctx context.Context, pair models.FriendPair) (bool, error) {
	if pair.IsLoop() {
		return false, fmt.Errorf("failed to add friend pair: user %d cannot befriend themselves", pair.A)
	}

	query := `
		INSERT INTO friends (user_id, friend_id)
		VALUES ($1, $2), ($2, $1)
		ON CONFLICT (user_id, friend_id) DO NOTHING`

	var created bool
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, query, pair.A, pair.B)
		if err != nil {
			return fmt.Errorf("failed to add friend pair: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		created = n > 0
		return nil
	})
	if err != nil {
		return false, err
	}

	return created, nil
}

func (r *friendRepository) RemovePair(ctx context.Context, pair models.FriendPair) error {
	query := `
		DELETE FROM friends
		WHERE (user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1)`

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, query, pair.A, pair.B); err != nil {
			return fmt.Errorf("failed to remove friend pair: %w", err)
		}
		return nil
	})
}

func (r *friendRepository) Exists(ctx context.Context, pair models.FriendPair) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM friends WHERE user_id = $1 AND friend_id = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, pair.A, pair.B).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check friendship: %w", err)
	}
	return exists, nil
}

func (r *friendRepository) ListFriends(ctx context.Context, userID int64) ([]*models.User, error) {
	query := `
		SELECT u.id, u.telegram_id, u.phone, u.name, u.avatar_url, u.created_at
		FROM users u
		INNER JOIN friends f ON f.friend_id = u.id
		WHERE f.user_id = $1
		ORDER BY u.id ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query friends: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}
