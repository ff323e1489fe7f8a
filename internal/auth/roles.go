package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/catalog-service/internal/domain"
	apperrors "github.com/spec-kit/catalog-service/pkg/util"
)

// RequireRole authenticates and then requires an exact role.
func (g *Gateway) RequireRole(role domain.Role) fiber.Handler {
	return g.RequireAnyRole(role)
}

// RequireAnyRole authenticates and then requires one of the allowed roles.
// With no roles given it behaves like RequireAuth.
func (g *Gateway) RequireAnyRole(allowed ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		decision := g.CheckRole(g.Check(c.Context(), c.Get(fiber.HeaderAuthorization)), allowed...)
		switch decision.State {
		case DecisionAuthorized:
			c.Locals(userKey, decision.User)
			return c.Next()
		case DecisionForbidden:
			return apperrors.NewForbidden(decision.Reason)
		default:
			return apperrors.NewUnauthorized(decision.Reason)
		}
	}
}
