package wire

import (
	"yamdb/internal/adaptor"
	"yamdb/pkg/middleware"
	"yamdb/pkg/utils"

	"github.com/go-chi/chi/v5"
)

func wireAuth(r chi.Router, authHandler *adaptor.AuthHandler, config *utils.Config) {
	r.Route("/auth", func(r chi.Router) {
		r.Use(middleware.RateLimit(config.HTTP.AuthRatePerMinute))

		r.Post("/signup", authHandler.SignUp)
		r.Post("/token", authHandler.Token)
	})
}
