package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/serejivanov62/wish/internal/models"
	"github.com/serejivanov62/wish/internal/repository"
)

type categoryRepository struct {
	db *sql.DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *sql.DB) repository.CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) GetOrCreate(ctx context.Context, userID int64, name string) (*models.Category, error) {
	// The no-op update makes RETURNING yield the existing row on conflict.
	query := `
		INSERT INTO categories (name, user_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, user_id`

	category := &models.Category{}
	err := r.db.QueryRowContext(ctx, query, name, userID).Scan(
		&category.ID,
		&category.Name,
		&category.UserID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create category: %w", err)
	}

	return category, nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	query := `SELECT id, name, user_id FROM categories WHERE id = $1`

	category := &models.Category{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&category.ID, &category.Name, &category.UserID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get category by ID: %w", err)
	}
	return category, nil
}

func (r *categoryRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Category, error) {
	query := `SELECT id, name, user_id FROM categories WHERE user_id = $1 ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		category := &models.Category{}
		if err := rows.Scan(&category.ID, &category.Name, &category.UserID); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	return categories, rows.Err()
}
