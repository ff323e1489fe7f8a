package realtime

import (
	"context"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/catalog-service/internal/auth"
)

// closeCodeUnauthorized mirrors 401 in the websocket close-code space.
const closeCodeUnauthorized = 4401

// Handler upgrades streaming clients and gates admission on token auth.
type Handler struct {
	tokens   *auth.TokenManager
	registry *Registry
	logger   *zap.Logger
}

// NewHandler constructs the streaming handler.
func NewHandler(tokens *auth.TokenManager, registry *Registry, logger *zap.Logger) *Handler {
	return &Handler{tokens: tokens, registry: registry, logger: logger}
}

// UpgradeRequired rejects plain HTTP requests on websocket routes.
func (h *Handler) UpgradeRequired(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Serve returns the websocket handler for GET /ws/prices. The token travels
// as a query parameter because browsers cannot set headers on the websocket
// handshake. Verification happens before admission; a connection that fails
// it is closed with an auth-failure code and never enters the registry.
func (h *Handler) Serve() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		user, err := h.tokens.Verify(context.Background(), conn.Query("token"))
		if err != nil {
			h.logger.Debug("websocket handshake rejected", zap.Error(err))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(closeCodeUnauthorized, "authentication required"))
			_ = conn.Close()
			return
		}

		h.registry.Admit(conn, user)
		defer func() {
			h.registry.Remove(conn)
			_ = conn.Close()
		}()

		// Price updates are push-only; the read loop exists to detect
		// client close and transport errors.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
}
