package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"yamdb/internal/data/entity"
	"yamdb/internal/data/repository"
	"yamdb/internal/dto/request"
	"yamdb/internal/dto/response"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type GenreService interface {
	GetGenres(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.GenreResponse], error)
	CreateGenre(ctx context.Context, req *request.GenreRequest) (*response.GenreResponse, error)
	DeleteGenre(ctx context.Context, slug string) error
}

type genreService struct {
	genreRepo repository.GenreRepository
	log       *zap.Logger
}

func NewGenreService(genreRepo repository.GenreRepository, log *zap.Logger) GenreService {
	return &genreService{
		genreRepo: genreRepo,
		log:       log.With(zap.String("service", "genre")),
	}
}

func (s *genreService) GetGenres(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.GenreResponse], error) {
	genres, err := s.genreRepo.FindAll(ctx, req.Search, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("get genres: %w", err)
	}

	total, err := s.genreRepo.CountAll(ctx, req.Search)
	if err != nil {
		return nil, fmt.Errorf("count genres: %w", err)
	}

	data := make([]response.GenreResponse, 0, len(genres))
	for _, genre := range genres {
		data = append(data, response.GenreToResponse(genre))
	}

	return response.NewPaginatedResponse(data, req.Page, req.Limit(), total), nil
}

func (s *genreService) CreateGenre(ctx context.Context, req *request.GenreRequest) (*response.GenreResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	existing, err := s.genreRepo.FindBySlug(ctx, req.Slug)
	if err != nil {
		return nil, fmt.Errorf("check genre slug: %w", err)
	}
	if existing != nil {
		return nil, &ValidationError{
			Fields: map[string]string{"slug": "A genre with this slug already exists"},
			Err:    ErrAlreadyExists,
		}
	}

	genre := &entity.Genre{
		BaseSimple: entity.BaseSimple{ID: uuid.New(), CreatedAt: time.Now()},
		Name:       req.Name,
		Slug:       req.Slug,
	}

	if err := s.genreRepo.Create(ctx, genre); err != nil {
		if dup := duplicateError(err, nil, "slug"); dup != nil {
			return nil, dup
		}
		return nil, fmt.Errorf("create genre: %w", err)
	}

	s.log.Info("Genre created", zap.String("slug", genre.Slug))

	resp := response.GenreToResponse(genre)
	return &resp, nil
}

func (s *genreService) DeleteGenre(ctx context.Context, slug string) error {
	genre, err := s.genreRepo.FindBySlug(ctx, slug)
	if err != nil {
		return fmt.Errorf("find genre: %w", err)
	}
	if genre == nil {
		return fmt.Errorf("genre %q: %w", slug, ErrNotFound)
	}

	if err := s.genreRepo.Delete(ctx, genre.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("genre %q: %w", slug, ErrNotFound)
		}
		return fmt.Errorf("delete genre: %w", err)
	}

	return nil
}
