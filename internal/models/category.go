package models

// DefaultCategory is used when an item is created without a category name
const DefaultCategory = "General"

// Category groups a user's items. Names are unique per owner only.
type Category struct {
	ID     int64  `json:"id" db:"id"`
	Name   string `json:"name" db:"name"`
	UserID int64  `json:"user_id" db:"user_id"`
}
