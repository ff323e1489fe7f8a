package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/catalog-service/internal/domain"
	apperrors "github.com/spec-kit/catalog-service/pkg/util"
)

const userKey = "auth_user"

// DecisionState enumerates terminal outcomes of the auth state machine.
type DecisionState int

const (
	// DecisionRejected means no valid credential was presented (401).
	DecisionRejected DecisionState = iota
	// DecisionAuthorized means a valid credential resolved to an active user.
	DecisionAuthorized
	// DecisionForbidden means the user authenticated but lacks the role (403).
	DecisionForbidden
)

// Decision is the tagged result of a guard check. The routing layer inspects
// it instead of relying on control flow via panics or sentinel errors.
type Decision struct {
	State  DecisionState
	User   *domain.User
	Reason string
}

// Gateway resolves bearer tokens and enforces per-route requirements.
type Gateway struct {
	tokens *TokenManager
}

// NewGateway constructs the authentication gateway.
func NewGateway(tokens *TokenManager) *Gateway {
	return &Gateway{tokens: tokens}
}

// Check runs the authentication step: absent or invalid credentials yield
// Rejected, a resolvable active user yields Authorized.
func (g *Gateway) Check(ctx context.Context, authHeader string) Decision {
	if authHeader == "" {
		return Decision{State: DecisionRejected, Reason: "missing authorization header"}
	}
	user, err := g.tokens.Verify(ctx, authHeader)
	if err != nil {
		return Decision{State: DecisionRejected, Reason: "invalid token"}
	}
	return Decision{State: DecisionAuthorized, User: user}
}

// CheckRole narrows an Authorized decision to the allowed role set. An empty
// set only requires authentication. Rejected decisions pass through unchanged.
func (g *Gateway) CheckRole(d Decision, allowed ...domain.Role) Decision {
	if d.State != DecisionAuthorized {
		return d
	}
	if len(allowed) == 0 {
		return d
	}
	for _, role := range allowed {
		if d.User.Role == role {
			return d
		}
	}
	return Decision{State: DecisionForbidden, User: d.User, Reason: "insufficient role"}
}

// RequireAuth enforces authentication and stores the resolved user in locals.
func (g *Gateway) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		decision := g.Check(c.Context(), c.Get(fiber.HeaderAuthorization))
		if decision.State != DecisionAuthorized {
			return apperrors.NewUnauthorized(decision.Reason)
		}
		c.Locals(userKey, decision.User)
		return c.Next()
	}
}

// UserFromContext retrieves the authenticated user set by RequireAuth.
func UserFromContext(c *fiber.Ctx) (*domain.User, bool) {
	val := c.Locals(userKey)
	if val == nil {
		return nil, false
	}
	user, ok := val.(*domain.User)
	return user, ok
}
