package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/catalog-service/internal/auth"
	"github.com/spec-kit/catalog-service/internal/config"
	"github.com/spec-kit/catalog-service/internal/domain"
	"github.com/spec-kit/catalog-service/internal/repository"
	apperrors "github.com/spec-kit/catalog-service/pkg/util"
)

const minPasswordLength = 6

// RegisterInput carries registration fields. Role is optional and defaults
// to Customer.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository) *AuthService {
	return &AuthService{
		users:      users,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL(), users),
		bcryptCost: cfg.BcryptCost,
	}
}

// Register creates a new account. Duplicate username or email is a conflict;
// the returned token lets the client skip a separate login.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, string, time.Time, error) {
	if err := validateRegistration(in); err != nil {
		return nil, "", time.Time{}, err
	}

	role := domain.RoleCustomer
	if in.Role != "" {
		parsed, ok := domain.ParseRole(in.Role)
		if !ok {
			return nil, "", time.Time{}, apperrors.NewValidationError("unknown role", map[string]any{"role": in.Role})
		}
		role = parsed
	}

	if taken, err := s.users.ExistsByUsername(ctx, in.Username); err != nil {
		return nil, "", time.Time{}, err
	} else if taken {
		return nil, "", time.Time{}, apperrors.NewConflict("username already registered", nil)
	}
	if taken, err := s.users.ExistsByEmail(ctx, in.Email); err != nil {
		return nil, "", time.Time{}, err
	} else if taken {
		return nil, "", time.Time{}, apperrors.NewConflict("email already registered", nil)
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	user := &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         role,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", time.Time{}, err
	}

	token, meta, err := s.tokenMgr.Issue(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, meta.ExpiresAt, nil
}

// Login authenticates by username or email. Every failure path surfaces the
// same generic unauthorized error so callers cannot probe which field was
// wrong or whether the account exists.
func (s *AuthService) Login(ctx context.Context, usernameOrEmail, password string) (*domain.User, string, time.Time, error) {
	user, err := s.lookup(ctx, usernameOrEmail)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, invalidCredentials()
		}
		return nil, "", time.Time{}, err
	}
	if !user.Active {
		return nil, "", time.Time{}, invalidCredentials()
	}
	if !auth.VerifyPassword(password, user.PasswordHash) {
		return nil, "", time.Time{}, invalidCredentials()
	}

	token, meta, err := s.tokenMgr.Issue(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, meta.ExpiresAt, nil
}

// Logout is a no-op acknowledgement; tokens are stateless and invalidation
// is client-side.
func (s *AuthService) Logout(_ context.Context, _ string) error {
	return nil
}

// TokenManager exposes the underlying token manager for gateway usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) lookup(ctx context.Context, usernameOrEmail string) (*domain.User, error) {
	if strings.Contains(usernameOrEmail, "@") {
		return s.users.GetByEmail(ctx, usernameOrEmail)
	}
	return s.users.GetByUsername(ctx, usernameOrEmail)
}

func validateRegistration(in RegisterInput) error {
	details := map[string]any{}
	if in.Username == "" {
		details["username"] = "required"
	}
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		details["email"] = "valid email required"
	}
	if len(in.Password) < minPasswordLength {
		details["password"] = "must be at least 6 characters"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid registration", details)
	}
	return nil
}

func invalidCredentials() error {
	return apperrors.NewUnauthorized("invalid credentials")
}
