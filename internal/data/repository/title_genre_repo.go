package repository

import (
	"context"
	"fmt"
	"time"

	"yamdb/internal/data/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// replaceTitleGenres swaps the genre links of a title inside tx.
func replaceTitleGenres(ctx context.Context, tx pgx.Tx, titleID uuid.UUID, genreIDs []uuid.UUID) error {
	if _, err := tx.Exec(ctx, `DELETE FROM title_genres WHERE title_id = $1`, titleID); err != nil {
		return fmt.Errorf("delete title_genres for %s: %w", titleID.String(), err)
	}

	now := time.Now()
	links := make([]*entity.TitleGenre, 0, len(genreIDs))
	seen := make(map[uuid.UUID]struct{}, len(genreIDs))
	for _, genreID := range genreIDs {
		if _, ok := seen[genreID]; ok {
			continue
		}
		seen[genreID] = struct{}{}
		links = append(links, &entity.TitleGenre{
			BaseSimple: entity.BaseSimple{ID: uuid.New(), CreatedAt: now},
			TitleID:    titleID,
			GenreID:    genreID,
		})
	}

	return insertTitleGenres(ctx, tx, links)
}

func insertTitleGenres(ctx context.Context, tx pgx.Tx, links []*entity.TitleGenre) error {
	if len(links) == 0 {
		return nil
	}

	query := `INSERT INTO title_genres (id, title_id, genre_id, created_at) VALUES `
	args := make([]any, 0, len(links)*4)

	for i, tg := range links {
		if i > 0 {
			query += ", "
		}
		query += fmt.Sprintf("($%d, $%d, $%d, $%d)",
			i*4+1, i*4+2, i*4+3, i*4+4)

		args = append(args, tg.ID, tg.TitleID, tg.GenreID, tg.CreatedAt)
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert %d title_genres: %w", len(links), err)
	}

	return nil
}
