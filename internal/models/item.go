package models

import "time"

// ItemStatus is advisory lifecycle metadata set by the owner. It is not
// derived from bookings; see Booking for the authoritative claim.
type ItemStatus string

const (
	ItemStatusFavorite ItemStatus = "favorite"
	ItemStatusInEvent  ItemStatus = "in_event"
	ItemStatusBooked   ItemStatus = "booked"
	ItemStatusReceived ItemStatus = "received"
)

// Valid reports whether s is one of the known statuses
func (s ItemStatus) Valid() bool {
	switch s {
	case ItemStatusFavorite, ItemStatusInEvent, ItemStatusBooked, ItemStatusReceived:
		return true
	}
	return false
}

// Item represents a single wish
type Item struct {
	ID          int64      `json:"id" db:"id"`
	UserID      int64      `json:"user_id" db:"user_id"`
	CategoryID  *int64     `json:"category_id" db:"category_id"`
	Title       string     `json:"title" db:"title"`
	Description *string    `json:"description,omitempty" db:"description"`
	ImageURL    *string    `json:"image_url,omitempty" db:"image_url"`
	Link        *string    `json:"link,omitempty" db:"link"`
	Price       *float64   `json:"price,omitempty" db:"price"`
	Note        *string    `json:"note,omitempty" db:"note"`
	Status      ItemStatus `json:"status" db:"status"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// ItemInput carries the attributes of a new item, manual or extracted
type ItemInput struct {
	Title        string   `json:"title" validate:"required,min=1,max=255"`
	Description  *string  `json:"description" validate:"omitempty,max=1000"`
	ImageURL     *string  `json:"image_url"`
	Link         *string  `json:"link"`
	Price        *float64 `json:"price" validate:"omitempty,gte=0"`
	Note         *string  `json:"note" validate:"omitempty,max=500"`
	CategoryName string   `json:"category_name" validate:"omitempty,max=50"`
}

// ItemUpdate holds a partial update. Nil fields are left unchanged.
type ItemUpdate struct {
	Title        *string     `json:"title" validate:"omitempty,min=1,max=255"`
	Description  *string     `json:"description" validate:"omitempty,max=1000"`
	ImageURL     *string     `json:"image_url"`
	Link         *string     `json:"link"`
	Price        *float64    `json:"price" validate:"omitempty,gte=0"`
	Note         *string     `json:"note" validate:"omitempty,max=500"`
	Status       *ItemStatus `json:"status"`
	CategoryName *string     `json:"category_name" validate:"omitempty,min=1,max=50"`
}

// Apply copies the set fields of u onto item
func (u *ItemUpdate) Apply(item *Item) {
	if u.Title != nil {
		item.Title = *u.Title
	}
	if u.Description != nil {
		item.Description = u.Description
	}
	if u.ImageURL != nil {
		item.ImageURL = u.ImageURL
	}
	if u.Link != nil {
		item.Link = u.Link
	}
	if u.Price != nil {
		item.Price = u.Price
	}
	if u.Note != nil {
		item.Note = u.Note
	}
	if u.Status != nil {
		item.Status = *u.Status
	}
}
