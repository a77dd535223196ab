package models

import "time"

// Booking is the single authoritative claim on an item. There is at most
// one booking per item, across every event the item appears in.
type Booking struct {
	ID             int64     `json:"id" db:"id"`
	ItemID         int64     `json:"item_id" db:"item_id"`
	BookedByUserID int64     `json:"booked_by_user_id" db:"booked_by_user_id"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
