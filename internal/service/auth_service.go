package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"dotk/api/internal/models"
	"dotk/api/internal/repository"
	"dotk/api/internal/security"
)

var (
	ErrMissingCredentials = errors.New("username and password are required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is inactive")
)

type UserStore interface {
	FindByUsername(ctx context.Context, username string) (models.User, error)
	GetByID(ctx context.Context, id int64) (models.User, error)
	TouchLastLogin(ctx context.Context, id int64) error
}

type AuthService struct {
	users  UserStore
	tokens *security.TokenService
	log    zerolog.Logger
}

func NewAuthService(users UserStore, tokens *security.TokenService, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		log:    log,
	}
}

type LoginResult struct {
	Token string
	User  models.User
}

// Login checks the credentials, stamps last_login_at and issues a
// bearer token carrying the user's id and role.
func (s *AuthService) Login(ctx context.Context, username, password string) (LoginResult, error) {
	if username == "" || password == "" {
		return LoginResult{}, ErrMissingCredentials
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if !security.VerifyPassword(password, user.PasswordHash) {
		return LoginResult{}, ErrInvalidCredentials
	}

	if !user.IsActive {
		return LoginResult{}, ErrAccountInactive
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return LoginResult{}, err
	}

	if err := s.users.TouchLastLogin(ctx, user.ID); err != nil {
		s.log.Warn().Err(err).Int64("user_id", user.ID).Msg("update last login failed")
	}

	return LoginResult{Token: token, User: user}, nil
}

// Profile loads the authenticated user's current record.
func (s *AuthService) Profile(ctx context.Context, userID int64) (models.User, error) {
	return s.users.GetByID(ctx, userID)
}
