package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/vovakirdan/lobbychat/internal/core"
	"github.com/vovakirdan/lobbychat/internal/store"
)

var (
	// ErrInvalidCredentials is returned when username/password don't match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists is returned when trying to register with existing username.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidUsername is returned when username doesn't meet constraints.
	ErrInvalidUsername = errors.New("invalid username")
	// ErrInvalidPassword is returned when password doesn't meet constraints.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrAlreadyOnline is returned when logging in as a user that already holds a live connection.
	ErrAlreadyOnline = errors.New("user with this name already logged in")
)

var validate = validator.New()

type credentials struct {
	Username string `validate:"required,min=3,max=32"`
	Password string `validate:"required,min=6,max=72"`
}

// OnlineChecker reports whether a user currently holds a live connection.
type OnlineChecker interface {
	IsOnline(username string) bool
}

// Service provides authentication operations.
type Service struct {
	store     store.UserStore
	jwtConfig *JWTConfig
	online    OnlineChecker
}

// NewService creates a new authentication service. online may be nil, in
// which case Login never rejects a user for being connected already.
func NewService(userStore store.UserStore, jwtConfig *JWTConfig, online OnlineChecker) *Service {
	return &Service{
		store:     userStore,
		jwtConfig: jwtConfig,
		online:    online,
	}
}

// Register creates a new user with hashed password and returns a JWT token.
func (s *Service) Register(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if err := checkCredentials(username, password); err != nil {
		return "", err
	}

	// Check if user already exists
	existing, err := s.store.GetUserByUsername(ctx, username)
	if err == nil && existing != nil {
		return "", ErrUserExists
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("lookup user: %w", err)
	}

	hashedPassword, err := HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, username, hashedPassword)
	if err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}

	token, err := GenerateToken(s.jwtConfig, user.ID, user.Username)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	return token, nil
}

// Login validates credentials and returns a JWT token. Users that are
// already connected are refused.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)

	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}

	if errPwd := ComparePassword(user.PasswordHash, password); errPwd != nil {
		return "", ErrInvalidCredentials
	}

	if s.online != nil && s.online.IsOnline(user.Username) {
		return "", ErrAlreadyOnline
	}

	token, err := GenerateToken(s.jwtConfig, user.ID, user.Username)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	return token, nil
}

// ValidateToken validates a JWT token and returns the claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return ValidateToken(s.jwtConfig, tokenString)
}

func checkCredentials(username, password string) error {
	err := validate.Struct(credentials{Username: username, Password: password})
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Field() == "Password" {
			return ErrInvalidPassword
		}
		return ErrInvalidUsername
	}
	// Lobby is the room's recipient key and cannot name a user.
	if strings.EqualFold(username, core.Lobby) || strings.ContainsAny(username, " \t\r\n") {
		return ErrInvalidUsername
	}
	return nil
}
