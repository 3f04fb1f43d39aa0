package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gigachat/gigachat-server/internal/email"
	"github.com/gigachat/gigachat-server/internal/store"
)

var (
	// ErrInvalidCredentials is returned when username/password don't match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists is returned when the username or email is taken.
	ErrUserExists = errors.New("username or email already exists")
	// ErrInvalidUsername is returned when username doesn't meet constraints.
	ErrInvalidUsername = errors.New("invalid username")
	// ErrInvalidPassword is returned when password doesn't meet constraints.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrMissingFields is returned when a required field is empty.
	ErrMissingFields = errors.New("all fields are required")
	// ErrInvalidToken is returned for an unknown or spent verification token.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Service provides registration, login and email verification.
type Service struct {
	store     store.UserStore
	jwtConfig *JWTConfig
	mailer    email.Sender
	baseURL   string
	log       *zerolog.Logger
}

// NewService creates a new authentication service. baseURL is the public
// frontend URL used to build verification links.
func NewService(userStore store.UserStore, jwtConfig *JWTConfig, mailer email.Sender, baseURL string, logger *zerolog.Logger) *Service {
	return &Service{
		store:     userStore,
		jwtConfig: jwtConfig,
		mailer:    mailer,
		baseURL:   baseURL,
		log:       logger,
	}
}

// Register creates an unverified user and emails a verification link.
// Mail delivery is best effort: a send failure is logged, not returned,
// so the account is still created.
func (s *Service) Register(ctx context.Context, username, name, emailAddr, password string) (*store.User, error) {
	username = strings.TrimSpace(username)
	name = strings.TrimSpace(name)
	emailAddr = strings.TrimSpace(emailAddr)
	if username == "" || name == "" || emailAddr == "" || password == "" {
		return nil, ErrMissingFields
	}
	if len(username) < 3 || len(username) > 32 {
		return nil, ErrInvalidUsername
	}
	if len(password) < 6 {
		return nil, ErrInvalidPassword
	}

	if existing, err := s.store.GetUserByUsername(ctx, username); err == nil && existing != nil {
		return nil, ErrUserExists
	}
	if existing, err := s.store.GetUserByEmail(ctx, emailAddr); err == nil && existing != nil {
		return nil, ErrUserExists
	}

	hashed, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, &store.User{
		Username:          username,
		Name:              name,
		Email:             emailAddr,
		PasswordHash:      hashed,
		VerificationToken: uuid.NewString(),
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	verifyURL := fmt.Sprintf("%s/verify-email?token=%s", s.baseURL, user.VerificationToken)
	body := "Click the following link to verify your email: " + verifyURL
	if err := s.mailer.Send(ctx, user.Email, "Verify Email", body); err != nil {
		s.log.Error().Err(err).Str("email", user.Email).Msg("failed to send verification email")
	}

	return user, nil
}

// VerifyEmail marks the account owning the token as verified.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidToken
	}

	user, err := s.store.GetUserByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("lookup token: %w", err)
	}

	if err := s.store.MarkVerified(ctx, user.ID); err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	return nil
}

// Login validates credentials and returns a JWT token plus the user.
func (s *Service) Login(ctx context.Context, username, password string) (string, *store.User, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}

	if errPwd := ComparePassword(user.PasswordHash, password); errPwd != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := GenerateToken(s.jwtConfig, user.ID, user.Username, user.Name, user.Email, user.IsAdmin)
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}

	return token, user, nil
}

// ValidateToken validates a JWT token and returns the claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return ValidateToken(s.jwtConfig, tokenString)
}
