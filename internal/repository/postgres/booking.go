package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/serejivanov62/wish/internal/models"
	"github.com/serejivanov62/wish/internal/repository"
)

type bookingRepository struct {
	db *sql.DB
}

// NewBookingRepository creates a new booking ledger
func NewBookingRepository(db *sql.DB) repository.BookingRepository {
	return &bookingRepository{db: db}
}

// Create inserts against the unique index on bookings.item_id. A second
// booking of the same item returns ErrDuplicate.
func (r *bookingRepository) Create(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	query := `
		INSERT INTO bookings (item_id, booked_by_user_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (item_id) DO NOTHING
		RETURNING id, created_at`

	booking.CreatedAt = time.Now()

	err := r.db.QueryRowContext(ctx, query,
		booking.ItemID,
		booking.BookedByUserID,
		booking.CreatedAt,
	).Scan(&booking.ID, &booking.CreatedAt)

	if err != nil {
		if err == sql.ErrNoRows || isUniqueViolation(err) {
			return nil, fmt.Errorf("item %d: %w", booking.ItemID, repository.ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	return booking, nil
}

func (r *bookingRepository) GetByItemID(ctx context.Context, itemID int64) (*models.Booking, error) {
	query := `SELECT id, item_id, booked_by_user_id, created_at FROM bookings WHERE item_id = $1`

	booking := &models.Booking{}
	err := r.db.QueryRowContext(ctx, query, itemID).Scan(
		&booking.ID,
		&booking.ItemID,
		&booking.BookedByUserID,
		&booking.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get booking by item ID: %w", err)
	}
	return booking, nil
}

func (r *bookingRepository) BookedItemIDs(ctx context.Context, itemIDs []int64) (map[int64]bool, error) {
	booked := make(map[int64]bool)
	if len(itemIDs) == 0 {
		return booked, nil
	}

	query := `SELECT item_id FROM bookings WHERE item_id = ANY($1)`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(itemIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		booked[id] = true
	}

	return booked, rows.Err()
}
