package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"yamdb/internal/authz"
	"yamdb/internal/data/entity"
	"yamdb/internal/data/repository"
	"yamdb/internal/dto/request"
	"yamdb/internal/dto/response"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReviewService interface {
	GetTitleReviews(ctx context.Context, titleID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ReviewResponse], error)
	GetReview(ctx context.Context, titleID, reviewID string) (*response.ReviewResponse, error)
	CreateReview(ctx context.Context, actor Actor, titleID string, req *request.CreateReviewRequest) (*response.ReviewResponse, error)
	UpdateReview(ctx context.Context, actor Actor, titleID, reviewID string, req *request.UpdateReviewRequest) (*response.ReviewResponse, error)
	DeleteReview(ctx context.Context, actor Actor, titleID, reviewID string) error
}

type reviewService struct {
	repo       *repository.Repository
	authorizer authz.Authorizer
	log        *zap.Logger
}

func NewReviewService(repo *repository.Repository, authorizer authz.Authorizer, log *zap.Logger) ReviewService {
	return &reviewService{
		repo:       repo,
		authorizer: authorizer,
		log:        log.With(zap.String("service", "review")),
	}
}

func (s *reviewService) GetTitleReviews(ctx context.Context, titleID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ReviewResponse], error) {
	title, err := findTitle(ctx, s.repo.Title, titleID)
	if err != nil {
		return nil, err
	}

	reviews, err := s.repo.Review.FindByTitleID(ctx, title.ID, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("get title reviews: %w", err)
	}

	total, err := s.repo.Review.CountByTitleID(ctx, title.ID)
	if err != nil {
		return nil, fmt.Errorf("count title reviews: %w", err)
	}

	authors := newUsernames(s.repo.User)
	data := make([]response.ReviewResponse, 0, len(reviews))
	for _, review := range reviews {
		author, err := authors.get(ctx, review.AuthorID)
		if err != nil {
			return nil, err
		}
		data = append(data, response.ReviewToResponse(review, author))
	}

	return response.NewPaginatedResponse(data, req.Page, req.Limit(), total), nil
}

func (s *reviewService) GetReview(ctx context.Context, titleID, reviewID string) (*response.ReviewResponse, error) {
	review, err := findReview(ctx, s.repo, titleID, reviewID)
	if err != nil {
		return nil, err
	}

	return s.toResponse(ctx, review)
}

// CreateReview stores the actor's review. Each author reviews a title at most once.
func (s *reviewService) CreateReview(ctx context.Context, actor Actor, titleID string, req *request.CreateReviewRequest) (*response.ReviewResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	title, err := findTitle(ctx, s.repo.Title, titleID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.Review.FindByAuthorAndTitle(ctx, actor.ID, title.ID)
	if err != nil {
		return nil, fmt.Errorf("check existing review: %w", err)
	}
	if existing != nil {
		return nil, alreadyReviewed()
	}

	now := time.Now()
	review := &entity.Review{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		TitleID:  title.ID,
		AuthorID: actor.ID,
		Text:     req.Text,
		Score:    *req.Score,
	}

	if err := s.repo.Review.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, alreadyReviewed()
		}
		return nil, fmt.Errorf("create review: %w", err)
	}

	s.log.Info("Review created",
		zap.String("review_id", review.ID.String()),
		zap.String("author_id", actor.ID.String()),
		zap.String("title_id", title.ID.String()),
		zap.Int("score", review.Score),
	)

	resp := response.ReviewToResponse(review, actor.Username)
	return &resp, nil
}

func (s *reviewService) UpdateReview(ctx context.Context, actor Actor, titleID, reviewID string, req *request.UpdateReviewRequest) (*response.ReviewResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	review, err := findReview(ctx, s.repo, titleID, reviewID)
	if err != nil {
		return nil, err
	}

	if err := checkOwnership(s.authorizer, actor, authz.ActionUpdate, review.AuthorID); err != nil {
		return nil, err
	}

	if req.Text != nil {
		review.Text = *req.Text
	}
	if req.Score != nil {
		review.Score = *req.Score
	}
	review.UpdatedAt = time.Now()

	if err := s.repo.Review.Update(ctx, review); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("review %s: %w", reviewID, ErrNotFound)
		}
		return nil, fmt.Errorf("update review: %w", err)
	}

	s.log.Info("Review updated",
		zap.String("review_id", reviewID),
		zap.String("actor", actor.Username),
	)

	return s.toResponse(ctx, review)
}

func (s *reviewService) DeleteReview(ctx context.Context, actor Actor, titleID, reviewID string) error {
	review, err := findReview(ctx, s.repo, titleID, reviewID)
	if err != nil {
		return err
	}

	if err := checkOwnership(s.authorizer, actor, authz.ActionDelete, review.AuthorID); err != nil {
		return err
	}

	if err := s.repo.Review.Delete(ctx, review.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("review %s: %w", reviewID, ErrNotFound)
		}
		return fmt.Errorf("delete review: %w", err)
	}

	s.log.Info("Review deleted",
		zap.String("review_id", reviewID),
		zap.String("actor", actor.Username),
	)
	return nil
}

func (s *reviewService) toResponse(ctx context.Context, review *entity.Review) (*response.ReviewResponse, error) {
	author, err := newUsernames(s.repo.User).get(ctx, review.AuthorID)
	if err != nil {
		return nil, err
	}

	resp := response.ReviewToResponse(review, author)
	return &resp, nil
}

func alreadyReviewed() error {
	return &ValidationError{
		Fields: map[string]string{"review": "You have already reviewed this title"},
		Err:    ErrAlreadyExists,
	}
}

// findReview loads a review and checks it belongs to the title in the path.
func findReview(ctx context.Context, repo *repository.Repository, titleID, reviewID string) (*entity.Review, error) {
	tid, err := parseID("title", titleID)
	if err != nil {
		return nil, err
	}
	rid, err := parseID("review", reviewID)
	if err != nil {
		return nil, err
	}

	review, err := repo.Review.FindByID(ctx, rid)
	if err != nil {
		return nil, fmt.Errorf("find review: %w", err)
	}
	if review == nil || review.TitleID != tid {
		return nil, fmt.Errorf("review %s of title %s: %w", reviewID, titleID, ErrNotFound)
	}
	return review, nil
}

// checkOwnership asks the policy whether actor may modify feedback owned by ownerID.
func checkOwnership(authorizer authz.Authorizer, actor Actor, action string, ownerID uuid.UUID) error {
	ok, err := authorizer.CanModify(actor.Role, authz.ObjectFeedback, action, actor.ID, ownerID)
	if err != nil {
		return fmt.Errorf("authorize %s: %w", action, err)
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}
