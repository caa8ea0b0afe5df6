package wire

import (
	"yamdb/internal/adaptor"
	"yamdb/internal/authz"
	"yamdb/pkg/middleware"

	"github.com/go-chi/chi/v5"
)

// wireFeedback mounts reviews and their comments under /titles/{title_id}.
// Update and delete only require a caller here; ownership is decided in the service.
func wireFeedback(r chi.Router, reviewHandler *adaptor.ReviewHandler, commentHandler *adaptor.CommentHandler, g guard) {
	r.Route("/reviews", func(r chi.Router) {
		r.Get("/", reviewHandler.GetTitleReviews)
		r.With(g.allow(authz.ObjectFeedback, authz.ActionCreate)).Post("/", reviewHandler.CreateReview)

		r.Route("/{review_id}", func(r chi.Router) {
			r.Get("/", reviewHandler.GetReview)
			r.With(middleware.RequireAuth).Patch("/", reviewHandler.UpdateReview)
			r.With(middleware.RequireAuth).Delete("/", reviewHandler.DeleteReview)

			r.Route("/comments", func(r chi.Router) {
				r.Get("/", commentHandler.GetReviewComments)
				r.With(g.allow(authz.ObjectFeedback, authz.ActionCreate)).Post("/", commentHandler.CreateComment)

				r.Get("/{comment_id}", commentHandler.GetComment)
				r.With(middleware.RequireAuth).Patch("/{comment_id}", commentHandler.UpdateComment)
				r.With(middleware.RequireAuth).Delete("/{comment_id}", commentHandler.DeleteComment)
			})
		})
	})
}
