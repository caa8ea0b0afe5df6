package wire

import (
	"context"
	"net/http"
	"time"

	"yamdb/internal/adaptor"
	"yamdb/internal/authz"
	"yamdb/internal/data/repository"
	"yamdb/internal/usecase"
	"yamdb/pkg/database"
	"yamdb/pkg/mailer"
	"yamdb/pkg/middleware"
	"yamdb/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// App holds the assembled HTTP router.
type App struct {
	Router *chi.Mux
}

// Deps are the collaborators built in main and shared by every route.
type Deps struct {
	DB         database.PgxIface
	Repo       *repository.Repository
	Config     *utils.Config
	Tokens     *utils.TokenManager
	Mailer     mailer.Mailer
	Authorizer authz.Authorizer
	Logger     *zap.Logger
}

// Wiring builds services, handlers and routes.
func Wiring(deps Deps) *App {
	service := usecase.NewService(deps.Repo, deps.Config, deps.Tokens, deps.Mailer, deps.Authorizer, deps.Logger)
	handler := adaptor.NewHandler(service, deps.Logger)

	return &App{
		Router: setupRouter(handler, deps),
	}
}

// guard builds per-route authorization middleware.
type guard struct {
	authorizer authz.Authorizer
	log        *zap.Logger
}

func (g guard) allow(object, action string) func(http.Handler) http.Handler {
	return middleware.Authorize(g.authorizer, object, action, g.log)
}

func setupRouter(handler *adaptor.Handler, deps Deps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.StripSlashes)
	r.Use(middleware.Recover(deps.Logger))
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Metrics)
	r.Use(middleware.CORS(deps.Config.HTTP.CORSAllowedOrigins))

	g := guard{authorizer: deps.Authorizer, log: deps.Logger.With(zap.String("component", "authorize"))}

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(deps.Tokens, deps.Repo.User, deps.Logger))

		wireAuth(r, handler.Auth, deps.Config)
		wireUser(r, handler.User, g)
		wireCatalog(r, handler.Category, handler.Genre, g)
		wireTitle(r, handler, g)
	})

	r.Get("/health", healthCheck(deps.DB, deps.Logger))
	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseNotFound(w, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseJSON(w, http.StatusMethodNotAllowed, false, "Method not allowed", nil, nil)
	})

	return r
}

func healthCheck(db database.PgxIface, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			logger.Error("Health check failed", zap.Error(err))
			utils.ResponseJSON(w, http.StatusServiceUnavailable, false, "Database unavailable", nil, nil)
			return
		}

		utils.ResponseSuccess(w, "OK", map[string]string{"database": "up"})
	}
}
