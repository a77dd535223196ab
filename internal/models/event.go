package models

import "time"

// Event is an occasion owned by one user that references a set of items.
// Items are not owned by the event; an item may appear in many events.
type Event struct {
	ID          int64      `json:"id" db:"id"`
	UserID      int64      `json:"user_id" db:"user_id"`
	Title       string     `json:"title" db:"title"`
	Date        *time.Time `json:"date,omitempty" db:"date"`
	Description *string    `json:"description,omitempty" db:"description"`
	IsShared    bool       `json:"is_shared" db:"is_shared"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// IsOwnedBy returns true if userID owns the event
func (e *Event) IsOwnedBy(userID int64) bool {
	return e.UserID == userID
}

// EventInput carries the attributes used to create or update an event
type EventInput struct {
	Title       string     `json:"title" validate:"required,min=1,max=255"`
	Date        *time.Time `json:"date"`
	Description *string    `json:"description" validate:"omitempty,max=1000"`
	IsShared    bool       `json:"is_shared"`
}

// EventCollaborator is the join between a shared event and a user who
// helps organise it
type EventCollaborator struct {
	EventID int64 `json:"event_id" db:"event_id"`
	UserID  int64 `json:"user_id" db:"user_id"`
}

// ItemView is an item as seen by a particular viewer
type ItemView struct {
	Item
	IsBooked bool `json:"is_booked"`
}

// EventView is an event resolved for one viewer: its items carry the
// booking flag that viewer is allowed to see
type EventView struct {
	Event
	Items         []ItemView   `json:"items"`
	Collaborators []PublicUser `json:"collaborators"`
}
