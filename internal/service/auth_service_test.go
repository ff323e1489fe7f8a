package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/catalog-service/internal/auth"
	"github.com/spec-kit/catalog-service/internal/config"
	"github.com/spec-kit/catalog-service/internal/domain"
	"github.com/spec-kit/catalog-service/internal/repository"
	apperrors "github.com/spec-kit/catalog-service/pkg/util"
)

func newAuthFixture() (*AuthService, *repository.MemoryUserRepository) {
	users := repository.NewMemoryUserRepository()
	cfg := config.AuthConfig{JWTSecret: "test-secret", TokenTTLHours: 1, BcryptCost: auth.MinBcryptCost}
	return NewAuthService(cfg, users), users
}

func registerAlice(t *testing.T, svc *AuthService) (*domain.User, string) {
	t.Helper()
	user, token, _, err := svc.Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "secret1",
	})
	require.NoError(t, err)
	return user, token
}

func TestAuthService_RegisterDefaultsToCustomer(t *testing.T) {
	svc, _ := newAuthFixture()
	user, token := registerAlice(t, svc)

	assert.Equal(t, domain.RoleCustomer, user.Role)
	assert.True(t, user.Active)
	assert.NotEmpty(t, token)
	assert.NotEqual(t, "secret1", user.PasswordHash)
}

func TestAuthService_RegisterDuplicateConflicts(t *testing.T) {
	svc, _ := newAuthFixture()
	registerAlice(t, svc)

	_, _, _, err := svc.Register(context.Background(), RegisterInput{
		Username: "alice", Email: "other@example.com", Password: "secret1",
	})
	require.Error(t, err)
	assert.Equal(t, 409, apperrors.ToDomainError(err).HTTPStatus)

	_, _, _, err = svc.Register(context.Background(), RegisterInput{
		Username: "alice2", Email: "alice@example.com", Password: "secret1",
	})
	require.Error(t, err)
	assert.Equal(t, 409, apperrors.ToDomainError(err).HTTPStatus)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	svc, _ := newAuthFixture()

	_, _, _, err := svc.Register(context.Background(), RegisterInput{
		Username: "bob", Email: "bob@example.com", Password: "short",
	})
	require.Error(t, err)
	assert.Equal(t, 400, apperrors.ToDomainError(err).HTTPStatus)

	_, _, _, err = svc.Register(context.Background(), RegisterInput{
		Username: "bob", Email: "bob@example.com", Password: "secret1", Role: "SUPERUSER",
	})
	require.Error(t, err)
	assert.Equal(t, 400, apperrors.ToDomainError(err).HTTPStatus)
}

func TestAuthService_LoginByUsernameAndEmail(t *testing.T) {
	svc, _ := newAuthFixture()
	registered, firstToken := registerAlice(t, svc)

	user, token, _, err := svc.Login(context.Background(), "alice", "secret1")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.NotEmpty(t, token)

	user, _, _, err = svc.Login(context.Background(), "alice@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	// Same subject, fresh token string.
	assert.NotEqual(t, firstToken, token)
}

func TestAuthService_LoginFailuresAreGeneric(t *testing.T) {
	svc, users := newAuthFixture()
	user, _ := registerAlice(t, svc)

	wrongPassword := func() string {
		_, _, _, err := svc.Login(context.Background(), "alice", "wrong")
		require.Error(t, err)
		return apperrors.ToDomainError(err).Message
	}()

	unknownUser := func() string {
		_, _, _, err := svc.Login(context.Background(), "nobody", "secret1")
		require.Error(t, err)
		return apperrors.ToDomainError(err).Message
	}()

	// Callers cannot tell whether the account exists or the password was wrong.
	assert.Equal(t, wrongPassword, unknownUser)

	user.Active = false
	require.NoError(t, users.Update(context.Background(), user))
	_, _, _, err := svc.Login(context.Background(), "alice", "secret1")
	require.Error(t, err)
	assert.Equal(t, wrongPassword, apperrors.ToDomainError(err).Message)
	assert.Equal(t, 401, apperrors.ToDomainError(err).HTTPStatus)
}

func TestAuthService_DeactivationVoidsOutstandingTokens(t *testing.T) {
	svc, users := newAuthFixture()
	user, token := registerAlice(t, svc)

	_, err := svc.TokenManager().Verify(context.Background(), token)
	require.NoError(t, err)

	user.Active = false
	require.NoError(t, users.Update(context.Background(), user))

	_, err = svc.TokenManager().Verify(context.Background(), token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
