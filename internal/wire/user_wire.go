package wire

import (
	"yamdb/internal/adaptor"
	"yamdb/internal/authz"
	"yamdb/pkg/middleware"

	"github.com/go-chi/chi/v5"
)

func wireUser(r chi.Router, userHandler *adaptor.UserHandler, g guard) {
	r.Route("/users", func(r chi.Router) {
		// Own account
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.With(g.allow(authz.ObjectProfile, authz.ActionRead)).Get("/me", userHandler.GetProfile)
			r.With(g.allow(authz.ObjectProfile, authz.ActionUpdate)).Patch("/me", userHandler.UpdateProfile)
		})

		// Admin user management
		r.With(g.allow(authz.ObjectUsers, authz.ActionRead)).Get("/", userHandler.GetAllUsers)
		r.With(g.allow(authz.ObjectUsers, authz.ActionCreate)).Post("/", userHandler.CreateUser)
		r.With(g.allow(authz.ObjectUsers, authz.ActionRead)).Get("/{username}", userHandler.GetUser)
		r.With(g.allow(authz.ObjectUsers, authz.ActionUpdate)).Patch("/{username}", userHandler.UpdateUser)
		r.With(g.allow(authz.ObjectUsers, authz.ActionDelete)).Delete("/{username}", userHandler.DeleteUser)
	})
}
