package usecase

import (
	"context"
	"fmt"
	"time"

	"yamdb/internal/data/entity"
	"yamdb/internal/data/repository"
	"yamdb/internal/dto/request"
	"yamdb/internal/dto/response"
	"yamdb/pkg/mailer"
	"yamdb/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuthService interface {
	SignUp(ctx context.Context, req *request.SignUpRequest) (*response.SignUpResponse, error)
	ObtainToken(ctx context.Context, req *request.TokenRequest) (*response.TokenResponse, error)
}

type authService struct {
	users  repository.UserRepository
	config utils.ConfirmationConfig
	tokens TokenIssuer
	mailer mailer.Mailer
	now    func() time.Time
	log    *zap.Logger
}

func NewAuthService(
	users repository.UserRepository,
	config utils.ConfirmationConfig,
	tokens TokenIssuer,
	mail mailer.Mailer,
	log *zap.Logger,
) AuthService {
	return &authService{
		users:  users,
		config: config,
		tokens: tokens,
		mailer: mail,
		now:    time.Now,
		log:    log.With(zap.String("service", "auth")),
	}
}

var userConstraints = map[string]string{
	"users_username_key": "username",
	"users_email_key":    "email",
}

// SignUp registers the user if needed and mails a fresh confirmation code.
// Repeating it with the same username and email re-issues the code.
func (s *authService) SignUp(ctx context.Context, req *request.SignUpRequest) (*response.SignUpResponse, error) {
	if err := validate(req); err != nil {
		s.log.Warn("Sign up validation failed", zap.Error(err))
		return nil, err
	}

	byUsername, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	byEmail, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}

	var user *entity.User
	switch {
	case byUsername != nil && byEmail != nil && byUsername.ID == byEmail.ID:
		user = byUsername
	case byUsername != nil || byEmail != nil:
		verr := &ValidationError{Fields: map[string]string{}, Err: ErrAlreadyExists}
		if byUsername != nil {
			verr.Fields["username"] = "A user with this username already exists"
		}
		if byEmail != nil {
			verr.Fields["email"] = "A user with this email already exists"
		}
		return nil, verr
	default:
		user, err = s.createUser(ctx, req)
		if err != nil {
			return nil, err
		}
	}

	if err := s.issueCode(ctx, user); err != nil {
		return nil, err
	}

	return &response.SignUpResponse{
		Username: user.Username,
		Email:    user.Email,
	}, nil
}

func (s *authService) createUser(ctx context.Context, req *request.SignUpRequest) (*entity.User, error) {
	now := s.now()
	user := &entity.User{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Username: req.Username,
		Email:    req.Email,
		Role:     entity.RoleUser,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if dup := duplicateError(err, userConstraints, "username"); dup != nil {
			return nil, dup
		}
		s.log.Error("Failed to create user", zap.Error(err), zap.String("username", req.Username))
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info("User signed up",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
	)
	return user, nil
}

// issueCode replaces any previous code, so only the latest one is accepted.
func (s *authService) issueCode(ctx context.Context, user *entity.User) error {
	code := utils.GenerateConfirmationCode()
	hash, err := utils.HashCode(code)
	if err != nil {
		return fmt.Errorf("hash confirmation code: %w", err)
	}

	sentAt := s.now()
	if err := s.users.SetConfirmationCode(ctx, user.ID, hash, sentAt); err != nil {
		s.log.Error("Failed to store confirmation code", zap.Error(err), zap.String("user_id", user.ID.String()))
		return fmt.Errorf("store confirmation code: %w", err)
	}
	user.ConfirmationCodeHash = &hash
	user.ConfirmationSentAt = &sentAt

	if err := s.mailer.SendConfirmationCode(ctx, user.Email, user.Username, code); err != nil {
		s.log.Error("Failed to send confirmation code", zap.Error(err), zap.String("email", user.Email))
		return fmt.Errorf("send confirmation code: %w", err)
	}

	return nil
}

func (s *authService) ObtainToken(ctx context.Context, req *request.TokenRequest) (*response.TokenResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	user, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %q: %w", req.Username, ErrNotFound)
	}

	if !s.codeValid(user, req.ConfirmationCode) {
		s.log.Warn("Invalid confirmation code", zap.String("username", user.Username))
		return nil, &ValidationError{
			Fields: map[string]string{"confirmation_code": "Invalid confirmation code"},
			Err:    ErrInvalidCode,
		}
	}

	token, expiresAt, err := s.tokens.GenerateToken(user.ID, user.Username, string(user.Role))
	if err != nil {
		s.log.Error("Failed to sign token", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, fmt.Errorf("generate token: %w", err)
	}

	s.log.Info("Token issued",
		zap.String("user_id", user.ID.String()),
		zap.Time("expires_at", expiresAt),
	)

	return &response.TokenResponse{Token: token, ExpiresAt: expiresAt}, nil
}

func (s *authService) codeValid(user *entity.User, code string) bool {
	if user.ConfirmationCodeHash == nil {
		return false
	}
	if s.config.TTLHours > 0 && user.ConfirmationSentAt != nil {
		ttl := time.Duration(s.config.TTLHours) * time.Hour
		if s.now().After(user.ConfirmationSentAt.Add(ttl)) {
			return false
		}
	}
	return utils.CheckCodeHash(code, *user.ConfirmationCodeHash)
}
