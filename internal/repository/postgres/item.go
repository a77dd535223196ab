package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/serejivanov62/wish/internal/models"
	"github.com/serejivanov62/wish/internal/repository"
)

const itemColumns = `id, user_id, category_id, title, description, image_url, link, price, note, status, created_at`

type itemRepository struct {
	db *sql.DB
}

// NewItemRepository creates a new wish item repository
func NewItemRepository(db *sql.DB) repository.ItemRepository {
	return &itemRepository{db: db}
}

func scanItem(row rowScanner) (*models.Item, error) {
	item := &models.Item{}
	err := row.Scan(
		&item.ID,
		&item.UserID,
		&item.CategoryID,
		&item.Title,
		&item.Description,
		&item.ImageURL,
		&item.Link,
		&item.Price,
		&item.Note,
		&item.Status,
		&item.CreatedAt,
	)
	return item, err
}

func scanItems(rows *sql.Rows) ([]*models.Item, error) {
	var items []*models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *itemRepository) Create(ctx context.Context, item *models.Item) (*models.Item, error) {
	query := `
		INSERT INTO items (user_id, category_id, title, description, image_url, link, price, note, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	if item.Status == "" {
		item.Status = models.ItemStatusFavorite
	}
	item.CreatedAt = time.Now()

	err := r.db.QueryRowContext(ctx, query,
		item.UserID,
		item.CategoryID,
		item.Title,
		item.Description,
		item.ImageURL,
		item.Link,
		item.Price,
		item.Note,
		item.Status,
		item.CreatedAt,
	).Scan(&item.ID, &item.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	return item, nil
}

func (r *itemRepository) GetByID(ctx context.Context, id int64) (*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`

	item, err := scanItem(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get item by ID: %w", err)
	}
	return item, nil
}

func (r *itemRepository) ListByUser(ctx context.Context, userID int64, filters repository.ItemFilters) ([]*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE user_id = $1`
	args := []any{userID}
	argIdx := 2

	if filters.CategoryID != nil {
		query += fmt.Sprintf(" AND category_id = $%d", argIdx)
		args = append(args, *filters.CategoryID)
		argIdx++
	}

	query += " ORDER BY created_at ASC, id ASC"

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, filters.Limit)
		argIdx++
	}
	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, filters.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

func (r *itemRepository) Update(ctx context.Context, item *models.Item) (*models.Item, error) {
	query := `
		UPDATE items
		SET category_id = $2, title = $3, description = $4, image_url = $5,
			link = $6, price = $7, note = $8, status = $9
		WHERE id = $1
		RETURNING ` + itemColumns

	updated, err := scanItem(r.db.QueryRowContext(ctx, query,
		item.ID,
		item.CategoryID,
		item.Title,
		item.Description,
		item.ImageURL,
		item.Link,
		item.Price,
		item.Note,
		item.Status,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update item: %w", err)
	}

	return updated, nil
}

// Delete relies on ON DELETE CASCADE from bookings and event_items.
func (r *itemRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM items WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("item with ID %d not found", id)
	}

	return nil
}
