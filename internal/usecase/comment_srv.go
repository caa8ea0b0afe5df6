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

type CommentService interface {
	GetReviewComments(ctx context.Context, titleID, reviewID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.CommentResponse], error)
	GetComment(ctx context.Context, titleID, reviewID, commentID string) (*response.CommentResponse, error)
	CreateComment(ctx context.Context, actor Actor, titleID, reviewID string, req *request.CommentRequest) (*response.CommentResponse, error)
	UpdateComment(ctx context.Context, actor Actor, titleID, reviewID, commentID string, req *request.UpdateCommentRequest) (*response.CommentResponse, error)
	DeleteComment(ctx context.Context, actor Actor, titleID, reviewID, commentID string) error
}

type commentService struct {
	repo       *repository.Repository
	authorizer authz.Authorizer
	log        *zap.Logger
}

func NewCommentService(repo *repository.Repository, authorizer authz.Authorizer, log *zap.Logger) CommentService {
	return &commentService{
		repo:       repo,
		authorizer: authorizer,
		log:        log.With(zap.String("service", "comment")),
	}
}

func (s *commentService) GetReviewComments(ctx context.Context, titleID, reviewID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.CommentResponse], error) {
	review, err := findReview(ctx, s.repo, titleID, reviewID)
	if err != nil {
		return nil, err
	}

	comments, err := s.repo.Comment.FindByReviewID(ctx, review.ID, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("get review comments: %w", err)
	}

	total, err := s.repo.Comment.CountByReviewID(ctx, review.ID)
	if err != nil {
		return nil, fmt.Errorf("count review comments: %w", err)
	}

	authors := newUsernames(s.repo.User)
	data := make([]response.CommentResponse, 0, len(comments))
	for _, comment := range comments {
		author, err := authors.get(ctx, comment.AuthorID)
		if err != nil {
			return nil, err
		}
		data = append(data, response.CommentToResponse(comment, author))
	}

	return response.NewPaginatedResponse(data, req.Page, req.Limit(), total), nil
}

func (s *commentService) GetComment(ctx context.Context, titleID, reviewID, commentID string) (*response.CommentResponse, error) {
	comment, err := s.findComment(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}

	return s.toResponse(ctx, comment)
}

func (s *commentService) CreateComment(ctx context.Context, actor Actor, titleID, reviewID string, req *request.CommentRequest) (*response.CommentResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	review, err := findReview(ctx, s.repo, titleID, reviewID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	comment := &entity.Comment{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		ReviewID: review.ID,
		AuthorID: actor.ID,
		Text:     req.Text,
	}

	if err := s.repo.Comment.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	s.log.Info("Comment created",
		zap.String("comment_id", comment.ID.String()),
		zap.String("review_id", review.ID.String()),
		zap.String("author_id", actor.ID.String()),
	)

	resp := response.CommentToResponse(comment, actor.Username)
	return &resp, nil
}

func (s *commentService) UpdateComment(ctx context.Context, actor Actor, titleID, reviewID, commentID string, req *request.UpdateCommentRequest) (*response.CommentResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	comment, err := s.findComment(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}

	if err := checkOwnership(s.authorizer, actor, authz.ActionUpdate, comment.AuthorID); err != nil {
		return nil, err
	}

	if req.Text != nil {
		comment.Text = *req.Text
	}
	comment.UpdatedAt = time.Now()

	if err := s.repo.Comment.Update(ctx, comment); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("comment %s: %w", commentID, ErrNotFound)
		}
		return nil, fmt.Errorf("update comment: %w", err)
	}

	return s.toResponse(ctx, comment)
}

func (s *commentService) DeleteComment(ctx context.Context, actor Actor, titleID, reviewID, commentID string) error {
	comment, err := s.findComment(ctx, titleID, reviewID, commentID)
	if err != nil {
		return err
	}

	if err := checkOwnership(s.authorizer, actor, authz.ActionDelete, comment.AuthorID); err != nil {
		return err
	}

	if err := s.repo.Comment.Delete(ctx, comment.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("comment %s: %w", commentID, ErrNotFound)
		}
		return fmt.Errorf("delete comment: %w", err)
	}

	s.log.Info("Comment deleted",
		zap.String("comment_id", commentID),
		zap.String("actor", actor.Username),
	)
	return nil
}

// findComment resolves the full title/review/comment path.
func (s *commentService) findComment(ctx context.Context, titleID, reviewID, commentID string) (*entity.Comment, error) {
	review, err := findReview(ctx, s.repo, titleID, reviewID)
	if err != nil {
		return nil, err
	}

	id, err := parseID("comment", commentID)
	if err != nil {
		return nil, err
	}

	comment, err := s.repo.Comment.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find comment: %w", err)
	}
	if comment == nil || comment.ReviewID != review.ID {
		return nil, fmt.Errorf("comment %s of review %s: %w", commentID, reviewID, ErrNotFound)
	}
	return comment, nil
}

func (s *commentService) toResponse(ctx context.Context, comment *entity.Comment) (*response.CommentResponse, error) {
	author, err := newUsernames(s.repo.User).get(ctx, comment.AuthorID)
	if err != nil {
		return nil, err
	}

	resp := response.CommentToResponse(comment, author)
	return &resp, nil
}
