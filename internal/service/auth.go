package service

import (
	"context"
	"errors"
	"log/slog"

	domainerrors "github.com/grimoireapp/grimoire-server/internal/errors"

	"github.com/grimoireapp/grimoire-server/internal/auth"
	"github.com/grimoireapp/grimoire-server/internal/domain"
	"github.com/grimoireapp/grimoire-server/internal/id"
	"github.com/grimoireapp/grimoire-server/internal/store"
)

// AuthService handles account registration and credential-based login.
type AuthService struct {
	store  *store.Store
	tokens *auth.TokenService
	logger *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(store *store.Store, tokens *auth.TokenService, logger *slog.Logger) *AuthService {
	return &AuthService{
		store:  store,
		tokens: tokens,
		logger: logger,
	}
}

// Register creates a new account with an argon2id password hash. The email
// must not already be in use.
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "hash password")
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
	}
	user.ID, err = id.Generate("user")
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate user id")
	}
	user.InitTimestamps()

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			return nil, domainerrors.AlreadyExists("email already in use")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "create user")
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Login verifies the credentials and issues an access token. Unknown email
// and wrong password produce the same error, so the response does not reveal
// which accounts exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return "", nil, domainerrors.Unauthorized("invalid credentials")
		}
		return "", nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "look up user")
	}

	ok, err := auth.VerifyPassword(user.PasswordHash, password)
	if err != nil || !ok {
		return "", nil, domainerrors.Unauthorized("invalid credentials")
	}

	token, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return "", nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate access token")
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return token, user, nil
}

// VerifyAccessToken validates a bearer token and returns its claims.
func (s *AuthService) VerifyAccessToken(token string) (*auth.AccessClaims, error) {
	claims, err := s.tokens.VerifyAccessToken(token)
	if err != nil {
		return nil, domainerrors.ErrUnauthorized.WithCause(err)
	}
	return claims, nil
}
