package usecase

import (
	"context"
	"fmt"
	"time"

	"yamdb/internal/authz"
	"yamdb/internal/data/repository"
	"yamdb/pkg/mailer"
	"yamdb/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID       uuid.UUID
	Username string
	Role     string
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	GenerateToken(userID uuid.UUID, username, role string) (string, time.Time, error)
}

type Service struct {
	Auth     AuthService
	User     UserService
	Category CategoryService
	Genre    GenreService
	Title    TitleService
	Review   ReviewService
	Comment  CommentService
}

func NewService(
	repo *repository.Repository,
	config *utils.Config,
	tokens TokenIssuer,
	mail mailer.Mailer,
	authorizer authz.Authorizer,
	log *zap.Logger,
) *Service {
	return &Service{
		Auth:     NewAuthService(repo.User, config.Confirmation, tokens, mail, log),
		User:     NewUserService(repo.User, log),
		Category: NewCategoryService(repo.Category, log),
		Genre:    NewGenreService(repo.Genre, log),
		Title:    NewTitleService(repo, log),
		Review:   NewReviewService(repo, authorizer, log),
		Comment:  NewCommentService(repo, authorizer, log),
	}
}

// parseID turns a path id into a uuid. Malformed ids cannot name a resource.
func parseID(kind, id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
	}
	return parsed, nil
}

// usernames resolves author ids for one response, hitting the repository once per id.
type usernames struct {
	repo  repository.UserRepository
	cache map[uuid.UUID]string
}

func newUsernames(repo repository.UserRepository) *usernames {
	return &usernames{repo: repo, cache: make(map[uuid.UUID]string)}
}

func (u *usernames) get(ctx context.Context, id uuid.UUID) (string, error) {
	if name, ok := u.cache[id]; ok {
		return name, nil
	}

	user, err := u.repo.FindByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("resolve author %s: %w", id.String(), err)
	}

	name := ""
	if user != nil {
		name = user.Username
	}
	u.cache[id] = name
	return name, nil
}
