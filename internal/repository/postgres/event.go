package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/serejivanov62/wish/internal/models"
	"github.com/serejivanov62/wish/internal/repository"
)

const eventColumns = `e.id, e.user_id, e.title, e.date, e.description, e.is_shared, e.created_at`

type eventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *sql.DB) repository.EventRepository {
	return &eventRepository{db: db}
}

func scanEvent(row rowScanner) (*models.Event, error) {
	event := &models.Event{}
	err := row.Scan(
		&event.ID,
		&event.UserID,
		&event.Title,
		&event.Date,
		&event.Description,
		&event.IsShared,
		&event.CreatedAt,
	)
	return event, err
}

func (r *eventRepository) queryEvents(ctx context.Context, query string, args ...any) ([]*models.Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

func (r *eventRepository) Create(ctx context.Context, event *models.Event) (*models.Event, error) {
	query := `
		INSERT INTO events (user_id, title, date, description, is_shared, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	event.CreatedAt = time.Now()

	err := r.db.QueryRowContext(ctx, query,
		event.UserID,
		event.Title,
		event.Date,
		event.Description,
		event.IsShared,
		event.CreatedAt,
	).Scan(&event.ID, &event.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	return event, nil
}

func (r *eventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events e WHERE e.id = $1`

	event, err := scanEvent(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get event by ID: %w", err)
	}
	return event, nil
}

func (r *eventRepository) ListByOwner(ctx context.Context, userID int64) ([]*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events e WHERE e.user_id = $1 ORDER BY e.created_at ASC, e.id ASC`
	return r.queryEvents(ctx, query, userID)
}

func (r *eventRepository) ListSharedByOwner(ctx context.Context, userID int64) ([]*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events e
		WHERE e.user_id = $1 AND e.is_shared = true
		ORDER BY e.created_at ASC, e.id ASC`
	return r.queryEvents(ctx, query, userID)
}

func (r *eventRepository) ListByCollaborator(ctx context.Context, userID int64) ([]*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events e
		INNER JOIN event_collaborators ec ON ec.event_id = e.id
		WHERE ec.user_id = $1
		ORDER BY e.created_at ASC, e.id ASC`
	return r.queryEvents(ctx, query, userID)
}

func (r *eventRepository) Update(ctx context.Context, event *models.Event) (*models.Event, error) {
	query := `
		UPDATE events e
		SET title = $2, date = $3, description = $4,
			is_shared = $5 OR EXISTS (SELECT 1 FROM event_collaborators c WHERE c.event_id = $1)
		WHERE e.id = $1
		RETURNING ` + eventColumns

	updated, err := scanEvent(r.db.QueryRowContext(ctx, query,
		event.ID,
		event.Title,
		event.Date,
		event.Description,
		event.IsShared,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	return updated, nil
}

func (r *eventRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM events WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("event with ID %d not found", id)
	}

	return nil
}

func (r *eventRepository) AddItem(ctx context.Context, eventID, itemID int64) error {
	query := `
		INSERT INTO event_items (event_id, item_id)
		VALUES ($1, $2)
		ON CONFLICT (event_id, item_id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, eventID, itemID); err != nil {
		return fmt.Errorf("failed to add item to event: %w", err)
	}
	return nil
}

func (r *eventRepository) ListItems(ctx context.Context, eventID int64) ([]*models.Item, error) {
	query := `
		SELECT i.id, i.user_id, i.category_id, i.title, i.description, i.image_url, i.link, i.price, i.note, i.status, i.created_at
		FROM items i
		INNER JOIN event_items ei ON ei.item_id = i.id
		WHERE ei.event_id = $1
		ORDER BY i.created_at ASC, i.id ASC`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query event items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

func (r *eventRepository) AddCollaborator(ctx context.Context, eventID, userID int64) (*models.EventCollaborator, error) {
	collaborator := &models.EventCollaborator{EventID: eventID, UserID: userID}

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE events SET is_shared = true WHERE id = $1`, eventID); err != nil {
			return fmt.Errorf("failed to mark event shared: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO event_collaborators (event_id, user_id)
			VALUES ($1, $2)
			ON CONFLICT (event_id, user_id) DO NOTHING`, eventID, userID); err != nil {
			return fmt.Errorf("failed to add collaborator: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return collaborator, nil
}

func (r *eventRepository) RemoveCollaborator(ctx context.Context, eventID, userID int64) (bool, error) {
	query := `DELETE FROM event_collaborators WHERE event_id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, eventID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to remove collaborator: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

func (r *eventRepository) IsCollaborator(ctx context.Context, eventID, userID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM event_collaborators WHERE event_id = $1 AND user_id = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, eventID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check collaborator: %w", err)
	}
	return exists, nil
}

func (r *eventRepository) ListCollaborators(ctx context.Context, eventID int64) ([]*models.User, error) {
	query := `
		SELECT u.id, u.telegram_id, u.phone, u.name, u.avatar_url, u.created_at
		FROM users u
		INNER JOIN event_collaborators ec ON ec.user_id = u.id
		WHERE ec.event_id = $1
		ORDER BY u.id ASC`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query collaborators: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}
