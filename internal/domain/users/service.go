package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eventradar/server/internal/auth"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// ValidationError reports a user-correctable input problem.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Service handles registration, login, and token issuance.
type Service struct {
	repo       Repository
	tokens     *auth.JWTManager
	bcryptCost int
	logger     zerolog.Logger
	validator  *validator.Validate
}

func NewService(repo Repository, tokens *auth.JWTManager, bcryptCost int, logger zerolog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		logger:     logger.With().Str("component", "users").Logger(),
		validator:  validator.New(),
	}
}

type RegisterParams struct {
	Name     string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// Register hashes the password and inserts the user. The plaintext password
// is never stored or logged; the returned projection carries no hash.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*PublicUser, error) {
	if err := s.validator.Struct(params); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			first := fieldErrs[0]
			return nil, ValidationError{Field: first.Field(), Message: "is required"}
		}
		return nil, ValidationError{Message: err.Error()}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Insert(ctx, InsertParams{
		ID:           uuid.NewString(),
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: string(hash),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("email", user.Email).
		Msg("user registered")

	public := user.Public()
	return &public, nil
}

// LoginResult carries the issued token and its expiry.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      PublicUser
}

// Login verifies credentials and issues a signed, time-bounded token.
// Lookup miss and hash mismatch are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Msg("user logged in")

	return &LoginResult{
		Token:     token,
		ExpiresAt: time.Now().Add(s.tokens.Expiry()),
		User:      user.Public(),
	}, nil
}
