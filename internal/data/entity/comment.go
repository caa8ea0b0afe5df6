package entity

import "github.com/google/uuid"

type Comment struct {
	Base
	ReviewID uuid.UUID `db:"review_id"`
	AuthorID uuid.UUID `db:"author_id"`
	Text     string    `db:"text"`
}
