package middleware

import (
	"net/http"
	"strings"

	"yamdb/internal/authz"
	"yamdb/internal/data/repository"
	"yamdb/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenValidator verifies bearer tokens.
type TokenValidator interface {
	ValidateToken(token string) (*utils.Claims, error)
}

// Authenticate resolves an optional bearer token into the request context.
// Requests without an Authorization header continue as anonymous; a header
// that does not carry a valid token for an existing user is rejected.
func Authenticate(tokens TokenValidator, users repository.UserRepository, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			scheme, token, found := strings.Cut(authHeader, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				utils.ResponseUnauthorized(w, "Invalid token format. Use: Bearer <token>")
				return
			}

			claims, err := tokens.ValidateToken(strings.TrimSpace(token))
			if err != nil {
				logger.Debug("Rejected token", zap.Error(err))
				utils.ResponseUnauthorized(w, "Invalid or expired token")
				return
			}

			userID, err := uuid.Parse(claims.UserID)
			if err != nil {
				utils.ResponseUnauthorized(w, "Invalid or expired token")
				return
			}

			// Role comes from the stored user so demotions apply to live tokens.
			user, err := users.FindByID(r.Context(), userID)
			if err != nil {
				logger.Error("Failed to load token owner",
					zap.Error(err),
					zap.String("user_id", userID.String()))
				utils.ResponseInternalError(w, "Internal server error")
				return
			}
			if user == nil {
				utils.ResponseUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx := utils.SetUserContext(r.Context(), user.ID, user.Username, string(user.Role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous requests.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := utils.GetUserIDFromContext(r.Context()); !ok {
			utils.ResponseUnauthorized(w, "Authentication credentials were not provided")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Authorize checks the caller's role against the policy for object/action.
// A denied anonymous caller gets 401, a denied authenticated caller 403.
func Authorize(authorizer authz.Authorizer, object, action string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := utils.GetRoleFromContext(r.Context())

			allowed, err := authorizer.Allowed(role, object, action)
			if err != nil {
				logger.Error("Authorization check failed",
					zap.Error(err),
					zap.String("role", role),
					zap.String("object", object),
					zap.String("action", action))
				utils.ResponseInternalError(w, "Internal server error")
				return
			}

			if !allowed {
				if _, ok := utils.GetUserIDFromContext(r.Context()); !ok {
					utils.ResponseUnauthorized(w, "Authentication credentials were not provided")
					return
				}
				logger.Warn("Access denied",
					zap.String("role", role),
					zap.String("object", object),
					zap.String("action", action),
					zap.String("path", r.URL.Path))
				utils.ResponseForbidden(w, "You do not have permission to perform this action")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
