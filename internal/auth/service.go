package auth

import (
	"context"
	"errors"
	"fmt"

	"media-editor/internal/logging"
	"media-editor/internal/metrics"
	"media-editor/internal/users"
)

// ErrInvalidCredential means the password did not match the stored hash.
var ErrInvalidCredential = errors.New("invalid password")

// Service implements registration and login on top of a user repository.
type Service struct {
	repo   users.Repository
	tokens *TokenIssuer
}

// NewService returns a Service storing users in repo and signing with tokens.
func NewService(repo users.Repository, tokens *TokenIssuer) *Service {
	return &Service{
		repo:   repo,
		tokens: tokens,
	}
}

// Tokens returns the issuer used for login.
func (s *Service) Tokens() *TokenIssuer {
	return s.tokens
}

// Register creates a user with a hashed password.
func (s *Service) Register(ctx context.Context, creds Credentials) (users.User, error) {
	if err := creds.Validate(); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return users.User{}, err
	}

	if _, err := s.repo.FindByEmail(ctx, creds.Email); err == nil {
		metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
		return users.User{}, users.ErrDuplicateUser
	} else if !errors.Is(err, users.ErrNotFound) {
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return users.User{}, fmt.Errorf("failed to look up user: %w", err)
	}

	hash, err := HashPassword(creds.Password)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return users.User{}, err
	}

	u, err := s.repo.Insert(ctx, creds.Email, hash)
	if err != nil {
		if errors.Is(err, users.ErrDuplicateUser) {
			metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
			return users.User{}, err
		}
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return users.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	s.updateUserCount(ctx)
	logging.Info("Registered user %s", u.Email)
	return u, nil
}

// Login checks a credential pair and returns a signed access token.
func (s *Service) Login(ctx context.Context, creds Credentials) (string, error) {
	if err := creds.Validate(); err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("error").Inc()
		return "", err
	}

	u, err := s.repo.FindByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			metrics.AuthAttemptsTotal.WithLabelValues("not_found").Inc()
			return "", err
		}
		metrics.AuthAttemptsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("failed to look up user: %w", err)
	}

	if err := CheckPassword(u.PasswordHash, creds.Password); err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("invalid_password").Inc()
		logging.Debug("Password mismatch for %s", u.Email)
		return "", ErrInvalidCredential
	}

	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("error").Inc()
		return "", err
	}

	metrics.AuthAttemptsTotal.WithLabelValues("success").Inc()
	return token, nil
}

// Verify checks an access token and returns its user ID.
func (s *Service) Verify(token string) (string, error) {
	userID, err := s.tokens.Verify(token)
	switch {
	case err == nil:
		metrics.TokenVerificationsTotal.WithLabelValues("valid").Inc()
	case errors.Is(err, ErrUnauthenticated):
		metrics.TokenVerificationsTotal.WithLabelValues("missing").Inc()
	default:
		metrics.TokenVerificationsTotal.WithLabelValues("invalid").Inc()
	}
	return userID, err
}

// Seed inserts the configured account. password may be a bcrypt hash, which
// is stored as is, or plaintext, which is hashed first. An existing account
// with the same email is left untouched.
func (s *Service) Seed(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	hash := password
	if !IsHash(password) {
		if err := (Credentials{Email: email, Password: password}).Validate(); err != nil {
			return fmt.Errorf("seed user: %w", err)
		}
		var err error
		if hash, err = HashPassword(password); err != nil {
			return fmt.Errorf("seed user: %w", err)
		}
	}

	u, err := s.repo.Insert(ctx, email, hash)
	if errors.Is(err, users.ErrDuplicateUser) {
		logging.Debug("Seed user %s already present", users.NormalizeEmail(email))
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed user: %w", err)
	}

	s.updateUserCount(ctx)
	logging.Info("Seeded user %s", u.Email)
	return nil
}

func (s *Service) updateUserCount(ctx context.Context) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		logging.Debug("failed to count users: %v", err)
		return
	}
	metrics.UsersTotal.Set(float64(n))
}
