package wire

import (
	"yamdb/internal/adaptor"
	"yamdb/internal/authz"

	"github.com/go-chi/chi/v5"
)

func wireCatalog(r chi.Router, categoryHandler *adaptor.CategoryHandler, genreHandler *adaptor.GenreHandler, g guard) {
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", categoryHandler.GetCategories)
		r.With(g.allow(authz.ObjectCatalog, authz.ActionCreate)).Post("/", categoryHandler.CreateCategory)
		r.With(g.allow(authz.ObjectCatalog, authz.ActionDelete)).Delete("/{slug}", categoryHandler.DeleteCategory)
	})

	r.Route("/genres", func(r chi.Router) {
		r.Get("/", genreHandler.GetGenres)
		r.With(g.allow(authz.ObjectCatalog, authz.ActionCreate)).Post("/", genreHandler.CreateGenre)
		r.With(g.allow(authz.ObjectCatalog, authz.ActionDelete)).Delete("/{slug}", genreHandler.DeleteGenre)
	})
}

func wireTitle(r chi.Router, handler *adaptor.Handler, g guard) {
	r.Route("/titles", func(r chi.Router) {
		r.Get("/", handler.Title.GetTitles)
		r.With(g.allow(authz.ObjectCatalog, authz.ActionCreate)).Post("/", handler.Title.CreateTitle)

		r.Route("/{title_id}", func(r chi.Router) {
			r.Get("/", handler.Title.GetTitleByID)
			r.With(g.allow(authz.ObjectCatalog, authz.ActionUpdate)).Patch("/", handler.Title.UpdateTitle)
			r.With(g.allow(authz.ObjectCatalog, authz.ActionDelete)).Delete("/", handler.Title.DeleteTitle)

			wireFeedback(r, handler.Review, handler.Comment, g)
		})
	})
}
