package auth

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/catalog-service/internal/domain"
	"github.com/spec-kit/catalog-service/internal/repository"
	apperrors "github.com/spec-kit/catalog-service/pkg/util"
)

// newTestApp maps DomainError statuses the way the HTTP middleware does in
// production.
func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			domainErr := apperrors.ToDomainError(err)
			return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{"error": domainErr.Message})
		},
	})
}

func newGatewayFixture(t *testing.T, role domain.Role) (*Gateway, *domain.User, string) {
	t.Helper()
	users := repository.NewMemoryUserRepository()
	user := seedUser(t, users, role)
	tm := NewTokenManager(testSecret, time.Hour, users)
	token, _, err := tm.Issue(user)
	require.NoError(t, err)
	return NewGateway(tm), user, token
}

func TestGatewayCheck_MissingHeaderRejected(t *testing.T) {
	gateway, _, _ := newGatewayFixture(t, domain.RoleCustomer)

	decision := gateway.Check(context.Background(), "")
	assert.Equal(t, DecisionRejected, decision.State)
	assert.Nil(t, decision.User)
}

func TestGatewayCheck_InvalidTokenRejected(t *testing.T) {
	gateway, _, _ := newGatewayFixture(t, domain.RoleCustomer)

	decision := gateway.Check(context.Background(), "Bearer not.a.token")
	assert.Equal(t, DecisionRejected, decision.State)
}

func TestGatewayCheck_ValidTokenAuthorized(t *testing.T) {
	gateway, user, token := newGatewayFixture(t, domain.RoleCustomer)

	decision := gateway.Check(context.Background(), "Bearer "+token)
	require.Equal(t, DecisionAuthorized, decision.State)
	assert.Equal(t, user.ID, decision.User.ID)
}

func TestGatewayCheckRole_MismatchForbiddenNotRejected(t *testing.T) {
	gateway, _, token := newGatewayFixture(t, domain.RoleCustomer)

	decision := gateway.CheckRole(gateway.Check(context.Background(), token), domain.RoleAdmin)
	assert.Equal(t, DecisionForbidden, decision.State)
	// Forbidden retains the resolved user; it is an authorization failure,
	// not an authentication one.
	assert.NotNil(t, decision.User)
}

func TestGatewayCheckRole_AnyOfSet(t *testing.T) {
	gateway, _, token := newGatewayFixture(t, domain.RoleModerator)

	authed := gateway.Check(context.Background(), token)
	decision := gateway.CheckRole(authed, domain.RoleAdmin, domain.RoleModerator)
	assert.Equal(t, DecisionAuthorized, decision.State)

	decision = gateway.CheckRole(authed)
	assert.Equal(t, DecisionAuthorized, decision.State)
}

func TestGatewayCheckRole_RejectedPassesThrough(t *testing.T) {
	gateway, _, _ := newGatewayFixture(t, domain.RoleCustomer)

	decision := gateway.CheckRole(gateway.Check(context.Background(), ""), domain.RoleAdmin)
	assert.Equal(t, DecisionRejected, decision.State)
}

func TestRequireAuth_AttachesUser(t *testing.T) {
	gateway, user, token := newGatewayFixture(t, domain.RoleCustomer)

	app := newTestApp()
	app.Get("/protected", gateway.RequireAuth(), func(c *fiber.Ctx) error {
		resolved, ok := UserFromContext(c)
		require.True(t, ok)
		return c.SendString(resolved.ID)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, user.ID, string(body))
}

func TestRequireAnyRole_StatusCodes(t *testing.T) {
	gateway, _, token := newGatewayFixture(t, domain.RoleCustomer)

	app := newTestApp()
	app.Get("/admin", gateway.RequireRole(domain.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	// Authenticated customer on an admin route: 403.
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// No credential at all: 401.
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
