package entity

import "github.com/google/uuid"

type Title struct {
	Base
	Name        string     `db:"name"`
	Year        int        `db:"year"`
	Description string     `db:"description"`
	CategoryID  *uuid.UUID `db:"category_id"`

	// Rating is the average review score, nil while the title has no reviews.
	// It is computed by queries, never stored.
	Rating *float64 `db:"rating"`
}

// TitleFilter narrows title listings. Empty fields are ignored.
type TitleFilter struct {
	Name     string
	Year     *int
	Genre    string
	Category string
}
