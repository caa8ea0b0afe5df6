package adaptor

import (
	"net/http"

	"yamdb/internal/dto/request"
	"yamdb/internal/usecase"
	"yamdb/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CommentHandler struct {
	service usecase.CommentService
	log     *zap.Logger
}

func NewCommentHandler(service usecase.CommentService, log *zap.Logger) *CommentHandler {
	return &CommentHandler{
		service: service,
		log:     log.With(zap.String("handler", "comment")),
	}
}

// GetReviewComments handles GET .../reviews/{review_id}/comments
func (h *CommentHandler) GetReviewComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.service.GetReviewComments(r.Context(),
		chi.URLParam(r, "title_id"),
		chi.URLParam(r, "review_id"),
		request.NewPaginatedRequest(r.URL.Query()),
	)
	if err != nil {
		handleServiceError(w, h.log, err, "get review comments")
		return
	}

	utils.ResponseSuccess(w, "Comments retrieved successfully", comments)
}

// GetComment handles GET .../comments/{comment_id}
func (h *CommentHandler) GetComment(w http.ResponseWriter, r *http.Request) {
	comment, err := h.service.GetComment(r.Context(),
		chi.URLParam(r, "title_id"),
		chi.URLParam(r, "review_id"),
		chi.URLParam(r, "comment_id"),
	)
	if err != nil {
		handleServiceError(w, h.log, err, "get comment")
		return
	}

	utils.ResponseSuccess(w, "Comment retrieved successfully", comment)
}

// CreateComment handles POST .../reviews/{review_id}/comments
func (h *CommentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		utils.ResponseUnauthorized(w, usecase.ErrUnauthorized.Error())
		return
	}

	var req request.CommentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	comment, err := h.service.CreateComment(r.Context(), actor,
		chi.URLParam(r, "title_id"),
		chi.URLParam(r, "review_id"),
		&req,
	)
	if err != nil {
		handleServiceError(w, h.log, err, "create comment")
		return
	}

	utils.ResponseCreated(w, "Comment created successfully", comment)
}

// UpdateComment handles PATCH .../comments/{comment_id}
func (h *CommentHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		utils.ResponseUnauthorized(w, usecase.ErrUnauthorized.Error())
		return
	}

	var req request.UpdateCommentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	comment, err := h.service.UpdateComment(r.Context(), actor,
		chi.URLParam(r, "title_id"),
		chi.URLParam(r, "review_id"),
		chi.URLParam(r, "comment_id"),
		&req,
	)
	if err != nil {
		handleServiceError(w, h.log, err, "update comment")
		return
	}

	utils.ResponseSuccess(w, "Comment updated successfully", comment)
}

// DeleteComment handles DELETE .../comments/{comment_id}
func (h *CommentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		utils.ResponseUnauthorized(w, usecase.ErrUnauthorized.Error())
		return
	}

	err := h.service.DeleteComment(r.Context(), actor,
		chi.URLParam(r, "title_id"),
		chi.URLParam(r, "review_id"),
		chi.URLParam(r, "comment_id"),
	)
	if err != nil {
		handleServiceError(w, h.log, err, "delete comment")
		return
	}

	utils.ResponseNoContent(w)
}
