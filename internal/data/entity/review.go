package entity

import (
	"github.com/google/uuid"
)

const (
	MinScore = 0
	MaxScore = 10
)

type Review struct {
	Base
	TitleID  uuid.UUID `db:"title_id"`
	AuthorID uuid.UUID `db:"author_id"`
	Text     string    `db:"text"`
	Score    int       `db:"score"` // 0-10
}
