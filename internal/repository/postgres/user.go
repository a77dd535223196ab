package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/serejivanov62/wish/internal/models"
	"github.com/serejivanov62/wish/internal/repository"
)

const userColumns = `id, telegram_id, phone, name, avatar_url, created_at`

type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.TelegramID,
		&user.Phone,
		&user.Name,
		&user.AvatarURL,
		&user.CreatedAt,
	)
	return user, err
}

func (r *userRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (telegram_id, phone, name, avatar_url, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	user.CreatedAt = time.Now()

	err := r.db.QueryRowContext(ctx, query,
		user.TelegramID,
		user.Phone,
		user.Name,
		user.AvatarURL,
		user.CreatedAt,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("failed to create user: %w", repository.ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

func (r *userRepository) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := r.getOne(ctx, "id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return user, nil
}

func (r *userRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	user, err := r.getOne(ctx, "telegram_id = $1", telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by telegram ID: %w", err)
	}
	return user, nil
}

func (r *userRepository) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	user, err := r.getOne(ctx, "phone = $1", phone)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by phone: %w", err)
	}
	return user, nil
}

func (r *userRepository) UpdatePhone(ctx context.Context, id int64, phone string) (*models.User, error) {
	query := `UPDATE users SET phone = $2 WHERE id = $1 RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id, phone))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("failed to update phone: %w", repository.ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to update phone: %w", err)
	}
	return user, nil
}

func scanUsers(rows *sql.Rows) ([]*models.User, error) {
	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
