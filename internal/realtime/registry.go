package realtime

import (
	"sync"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"

	"github.com/spec-kit/catalog-service/internal/domain"
	"github.com/spec-kit/catalog-service/internal/observability"
)

// Conn is the subset of a websocket connection the registry needs. Tests
// substitute fakes; production passes *websocket.Conn.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// member pairs an admitted connection's user with a write mutex. The
// underlying websocket transport permits at most one concurrent writer, and
// broadcasts may run concurrently (HTTP price updates race the feed bridge),
// so every delivery to one connection must hold its mutex.
type member struct {
	user *domain.User
	wmu  sync.Mutex
}

// Registry is the shared membership set of authenticated streaming
// connections. It is safe for concurrent Admit/Remove/Broadcast without
// external locking; broadcast iterates a snapshot so concurrent removals
// never invalidate the loop, and per-connection writes are serialized.
type Registry struct {
	mu     sync.RWMutex
	conns  map[Conn]*member
	logger *zap.Logger
	stats  *observability.Metrics
}

// NewRegistry builds an empty registry. Pass it by reference to every
// component that publishes; there is no package-level instance.
func NewRegistry(logger *zap.Logger, stats *observability.Metrics) *Registry {
	return &Registry{
		conns:  make(map[Conn]*member),
		logger: logger,
		stats:  stats,
	}
}

// Admit registers a connection under the user that authenticated it.
func (r *Registry) Admit(conn Conn, user *domain.User) {
	r.mu.Lock()
	r.conns[conn] = &member{user: user}
	r.mu.Unlock()

	r.stats.ConnectionOpened()
	r.logger.Debug("connection admitted",
		zap.String("user_id", user.ID),
		zap.String("username", user.Username))
}

// Remove drops a connection. Removing an absent connection is a no-op.
func (r *Registry) Remove(conn Conn) {
	r.mu.Lock()
	_, present := r.conns[conn]
	if present {
		delete(r.conns, conn)
	}
	r.mu.Unlock()

	if present {
		r.stats.ConnectionClosed()
	}
}

// Broadcast delivers the already-serialized payload to every admitted
// connection. Each delivery is attempted independently: a failing connection
// is closed and removed, and delivery to the others continues. Returns the
// number of successful deliveries.
func (r *Registry) Broadcast(payload []byte) int {
	r.mu.RLock()
	conns := make([]Conn, 0, len(r.conns))
	members := make([]*member, 0, len(r.conns))
	for conn, m := range r.conns {
		conns = append(conns, conn)
		members = append(members, m)
	}
	r.mu.RUnlock()

	delivered := 0
	failed := 0
	for i, conn := range conns {
		m := members[i]
		m.wmu.Lock()
		err := conn.WriteMessage(websocket.TextMessage, payload)
		m.wmu.Unlock()
		if err != nil {
			failed++
			r.logger.Debug("broadcast delivery failed; pruning connection",
				zap.String("user_id", m.user.ID),
				zap.Error(err))
			_ = conn.Close()
			r.Remove(conn)
			continue
		}
		delivered++
	}

	r.stats.RecordBroadcast(delivered, failed)
	return delivered
}

// Size reports the number of admitted connections.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
