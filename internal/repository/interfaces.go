package repository

import (
	"context"
	"errors"

	"github.com/serejivanov62/wish/internal/models"
)

// ErrDuplicate is returned when a write loses a uniqueness race, for example
// a second booking of the same item
var ErrDuplicate = errors.New("duplicate record")

// Lookups return (nil, nil) when the record does not exist.

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	UpdatePhone(ctx context.Context, id int64, phone string) (*models.User, error)
}

// CategoryRepository defines the interface for category operations
type CategoryRepository interface {
	// GetOrCreate returns the owner's category with this name, creating it
	// if needed. Concurrent callers get the same row.
	GetOrCreate(ctx context.Context, userID int64, name string) (*models.Category, error)
	GetByID(ctx context.Context, id int64) (*models.Category, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.Category, error)
}

// ItemRepository defines the interface for wish item operations
type ItemRepository interface {
	Create(ctx context.Context, item *models.Item) (*models.Item, error)
	GetByID(ctx context.Context, id int64) (*models.Item, error)
	ListByUser(ctx context.Context, userID int64, filters ItemFilters) ([]*models.Item, error)
	Update(ctx context.Context, item *models.Item) (*models.Item, error)
	// Delete removes the item together with its booking and event memberships
	Delete(ctx context.Context, id int64) error
}

// EventRepository defines the interface for events, their item sets and
// their collaborators
type EventRepository interface {
	Create(ctx context.Context, event *models.Event) (*models.Event, error)
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	ListByOwner(ctx context.Context, userID int64) ([]*models.Event, error)
	ListSharedByOwner(ctx context.Context, userID int64) ([]*models.Event, error)
	ListByCollaborator(ctx context.Context, userID int64) ([]*models.Event, error)
	// Update keeps is_shared set while the event has collaborators
	Update(ctx context.Context, event *models.Event) (*models.Event, error)
	Delete(ctx context.Context, id int64) error

	// AddItem is idempotent: adding an item twice keeps one membership
	AddItem(ctx context.Context, eventID, itemID int64) error
	ListItems(ctx context.Context, eventID int64) ([]*models.Item, error)

	// AddCollaborator inserts the collaborator row and sets is_shared on the
	// event in one transaction. Returns the existing row if already present.
	AddCollaborator(ctx context.Context, eventID, userID int64) (*models.EventCollaborator, error)
	// RemoveCollaborator reports whether a row was deleted
	RemoveCollaborator(ctx context.Context, eventID, userID int64) (bool, error)
	IsCollaborator(ctx context.Context, eventID, userID int64) (bool, error)
	ListCollaborators(ctx context.Context, eventID int64) ([]*models.User, error)
}

// FriendRepository stores the symmetric friendship relation
type FriendRepository interface {
	// AddPair writes both directed rows in one transaction. It reports
	// whether the pair was newly created.
	AddPair(ctx context.Context, pair models.FriendPair) (bool, error)
	// RemovePair deletes both directed rows in one transaction, succeeding
	// when either or both are already gone.
	RemovePair(ctx context.Context, pair models.FriendPair) error
	Exists(ctx context.Context, pair models.FriendPair) (bool, error)
	ListFriends(ctx context.Context, userID int64) ([]*models.User, error)
}

// BookingRepository is the booking ledger
type BookingRepository interface {
	// Create inserts the booking atomically. It returns ErrDuplicate when
	// the item already has a booking.
	Create(ctx context.Context, booking *models.Booking) (*models.Booking, error)
	GetByItemID(ctx context.Context, itemID int64) (*models.Booking, error)
	// BookedItemIDs returns the subset of itemIDs that have a booking
	BookedItemIDs(ctx context.Context, itemIDs []int64) (map[int64]bool, error)
}

// ItemFilters narrows an item listing. A nil CategoryID lists every
// category.
type ItemFilters struct {
	CategoryID *int64
	Limit      int
	Offset     int
}
