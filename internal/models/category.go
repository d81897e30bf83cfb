package models

// Category groups items. Names are unique.
type Category struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// CategoryRequest represents a request to create or rename a category
type CategoryRequest struct {
	Name string `json:"name"`
}
