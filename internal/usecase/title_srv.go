package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"yamdb/internal/data/entity"
	"yamdb/internal/data/repository"
	"yamdb/internal/dto/request"
	"yamdb/internal/dto/response"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TitleService interface {
	GetTitles(ctx context.Context, filter entity.TitleFilter, req *request.PaginatedRequest) (*response.PaginatedResponse[response.TitleResponse], error)
	GetTitleByID(ctx context.Context, titleID string) (*response.TitleResponse, error)
	CreateTitle(ctx context.Context, req *request.CreateTitleRequest) (*response.TitleResponse, error)
	UpdateTitle(ctx context.Context, titleID string, req *request.UpdateTitleRequest) (*response.TitleResponse, error)
	DeleteTitle(ctx context.Context, titleID string) error
}

type titleService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewTitleService(repo *repository.Repository, log *zap.Logger) TitleService {
	return &titleService{
		repo: repo,
		log:  log.With(zap.String("service", "title")),
	}
}

func (s *titleService) GetTitles(ctx context.Context, filter entity.TitleFilter, req *request.PaginatedRequest) (*response.PaginatedResponse[response.TitleResponse], error) {
	titles, err := s.repo.Title.FindAll(ctx, filter, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("get titles: %w", err)
	}

	total, err := s.repo.Title.CountAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count titles: %w", err)
	}

	categories := make(map[uuid.UUID]*entity.Category)
	data := make([]response.TitleResponse, 0, len(titles))
	for _, title := range titles {
		resp, err := s.toResponse(ctx, title, categories)
		if err != nil {
			return nil, err
		}
		data = append(data, *resp)
	}

	s.log.Debug("Titles retrieved",
		zap.Int("count", len(titles)),
		zap.Int64("total", total),
		zap.Int("page", req.Page),
	)

	return response.NewPaginatedResponse(data, req.Page, req.Limit(), total), nil
}

func (s *titleService) GetTitleByID(ctx context.Context, titleID string) (*response.TitleResponse, error) {
	title, err := findTitle(ctx, s.repo.Title, titleID)
	if err != nil {
		return nil, err
	}

	return s.toResponse(ctx, title, nil)
}

func (s *titleService) CreateTitle(ctx context.Context, req *request.CreateTitleRequest) (*response.TitleResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	categoryID, err := s.resolveCategory(ctx, req.Category)
	if err != nil {
		return nil, err
	}

	genreIDs, err := s.resolveGenres(ctx, req.Genre)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	title := &entity.Title{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:        req.Name,
		Year:        *req.Year,
		Description: req.Description,
		CategoryID:  categoryID,
	}

	if err := s.repo.Title.Create(ctx, title, genreIDs); err != nil {
		return nil, fmt.Errorf("create title: %w", err)
	}

	s.log.Info("Title created",
		zap.String("title_id", title.ID.String()),
		zap.String("name", title.Name),
		zap.Int("genres", len(genreIDs)),
	)

	return s.toResponse(ctx, title, nil)
}

func (s *titleService) UpdateTitle(ctx context.Context, titleID string, req *request.UpdateTitleRequest) (*response.TitleResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	title, err := findTitle(ctx, s.repo.Title, titleID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		title.Name = *req.Name
	}
	if req.Year != nil {
		title.Year = *req.Year
	}
	if req.Description != nil {
		title.Description = *req.Description
	}
	if req.Category != nil {
		title.CategoryID, err = s.resolveCategory(ctx, *req.Category)
		if err != nil {
			return nil, err
		}
	}

	var genreIDs []uuid.UUID
	if req.Genre != nil {
		genreIDs, err = s.resolveGenres(ctx, *req.Genre)
		if err != nil {
			return nil, err
		}
		// non-nil so the repository replaces the links even when emptied
		if genreIDs == nil {
			genreIDs = []uuid.UUID{}
		}
	}

	title.UpdatedAt = time.Now()
	if err := s.repo.Title.Update(ctx, title, genreIDs); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("title %s: %w", titleID, ErrNotFound)
		}
		return nil, fmt.Errorf("update title: %w", err)
	}

	s.log.Info("Title updated", zap.String("title_id", titleID))

	return s.toResponse(ctx, title, nil)
}

func (s *titleService) DeleteTitle(ctx context.Context, titleID string) error {
	id, err := parseID("title", titleID)
	if err != nil {
		return err
	}

	if err := s.repo.Title.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("title %s: %w", titleID, ErrNotFound)
		}
		return fmt.Errorf("delete title: %w", err)
	}

	return nil
}

func findTitle(ctx context.Context, titles repository.TitleRepository, titleID string) (*entity.Title, error) {
	id, err := parseID("title", titleID)
	if err != nil {
		return nil, err
	}

	title, err := titles.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find title: %w", err)
	}
	if title == nil {
		return nil, fmt.Errorf("title %s: %w", titleID, ErrNotFound)
	}
	return title, nil
}

// resolveCategory maps a slug to its id. An empty slug means no category.
func (s *titleService) resolveCategory(ctx context.Context, slug string) (*uuid.UUID, error) {
	if slug == "" {
		return nil, nil
	}

	category, err := s.repo.Category.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("find category: %w", err)
	}
	if category == nil {
		return nil, fieldError("category", fmt.Sprintf("Category %q does not exist", slug))
	}
	return &category.ID, nil
}

func (s *titleService) resolveGenres(ctx context.Context, slugs []string) ([]uuid.UUID, error) {
	if len(slugs) == 0 {
		return nil, nil
	}

	genres, err := s.repo.Genre.FindBySlugs(ctx, slugs)
	if err != nil {
		return nil, fmt.Errorf("find genres: %w", err)
	}

	found := make(map[string]uuid.UUID, len(genres))
	for _, genre := range genres {
		found[genre.Slug] = genre.ID
	}

	var missing []string
	ids := make([]uuid.UUID, 0, len(slugs))
	seen := make(map[string]bool, len(slugs))
	for _, slug := range slugs {
		if seen[slug] {
			continue
		}
		seen[slug] = true

		id, ok := found[slug]
		if !ok {
			missing = append(missing, slug)
			continue
		}
		ids = append(ids, id)
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fieldError("genre", "Unknown genre: "+strings.Join(missing, ", "))
	}
	return ids, nil
}

// toResponse loads the category and genres of title. categories caches
// lookups across a page and may be nil.
func (s *titleService) toResponse(ctx context.Context, title *entity.Title, categories map[uuid.UUID]*entity.Category) (*response.TitleResponse, error) {
	var category *entity.Category
	if title.CategoryID != nil {
		cached, ok := categories[*title.CategoryID]
		if ok {
			category = cached
		} else {
			found, err := s.repo.Category.FindByID(ctx, *title.CategoryID)
			if err != nil {
				return nil, fmt.Errorf("find title category: %w", err)
			}
			category = found
			if categories != nil {
				categories[*title.CategoryID] = found
			}
		}
	}

	genres, err := s.repo.Genre.FindByTitleID(ctx, title.ID)
	if err != nil {
		return nil, fmt.Errorf("find title genres: %w", err)
	}

	resp := response.TitleToResponse(title, category, genres)
	return &resp, nil
}
