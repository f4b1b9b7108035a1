package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/velomarket/marketplace-auth/internal/core/domain"
	"github.com/velomarket/marketplace-auth/internal/core/ports"
)

// AuthService implements registration, login, refresh, and per-request
// identity resolution on top of a UserRepository and a TokenService.
type AuthService struct {
	users  ports.UserRepository
	tokens ports.TokenService
	log    zerolog.Logger
}

func NewAuthService(users ports.UserRepository, tokens ports.TokenService, log zerolog.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, log: log}
}

// Register creates an account and returns a fresh credential for it.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (string, *domain.User, error) {
	role := in.Role
	if role == "" {
		role = domain.RoleCustomer
	}
	if !role.Valid() {
		return "", nil, domain.ErrInvalidRole
	}

	if _, err := s.users.FindByEmail(ctx, in.Email); err == nil {
		return "", nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return "", nil, fmt.Errorf("register: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return "", nil, err
	}

	credential, err := s.tokens.Issue(created.ID)
	if err != nil {
		return "", nil, fmt.Errorf("register: issue credential: %w", err)
	}

	s.log.Info().Str("user_id", created.ID).Str("role", string(created.Role)).Msg("user registered")
	return credential, created.Sanitized(), nil
}

// Login verifies the identity proof and returns a credential plus the
// sanitized identity. An unknown email reports the same error as a wrong
// password so callers cannot probe which addresses exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidLogin
		}
		return "", nil, fmt.Errorf("login: %w", err)
	}

	if !user.IsActive {
		return "", nil, domain.ErrAccountDeactivated
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidLogin
	}

	credential, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("login: issue credential: %w", err)
	}

	return credential, user.Sanitized(), nil
}

// Refresh issues a fresh credential for an already-resolved identity.
func (s *AuthService) Refresh(ctx context.Context, user *domain.User) (string, error) {
	credential, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", fmt.Errorf("refresh: issue credential: %w", err)
	}
	return credential, nil
}

// Resolve recovers the identity behind a credential: verify, look the user
// up, and re-check the active flag. A missing user is reported exactly like
// a bad signature so the two cases are indistinguishable from outside.
func (s *AuthService) Resolve(ctx context.Context, credential string) (*domain.User, error) {
	claims, err := s.tokens.Verify(credential)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredential
		}
		return nil, fmt.Errorf("resolve identity: %w", err)
	}

	if !user.IsActive {
		return nil, domain.ErrAccountDeactivated
	}

	return user.Sanitized(), nil
}
