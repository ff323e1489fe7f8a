package realtime

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/catalog-service/internal/domain"
	"github.com/spec-kit/catalog-service/internal/observability"
)

// fakeConn records writes and can be flipped into a failing state.
type fakeConn struct {
	mu       sync.Mutex
	messages [][]byte
	failed   bool
	closed   bool
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failed {
		return errors.New("transport closed")
	}
	copied := append([]byte(nil), data...)
	c.messages = append(c.messages, copied)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) fail() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failed = true
}

func (c *fakeConn) received() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.messages...)
}

func newTestRegistry() *Registry {
	return NewRegistry(zap.NewNop(), observability.NewMetrics())
}

func testUser(name string) *domain.User {
	return &domain.User{ID: name + "-id", Username: name, Role: domain.RoleCustomer, Active: true}
}

func TestRegistry_AdmitBroadcastRemove(t *testing.T) {
	registry := newTestRegistry()
	conn := &fakeConn{}

	registry.Admit(conn, testUser("alice"))
	assert.Equal(t, 1, registry.Size())

	delivered := registry.Broadcast([]byte(`{"type":"price_changed"}`))
	assert.Equal(t, 1, delivered)
	require.Len(t, conn.received(), 1)

	registry.Remove(conn)
	assert.Equal(t, 0, registry.Size())

	delivered = registry.Broadcast([]byte(`{"type":"price_changed"}`))
	assert.Equal(t, 0, delivered)
	assert.Len(t, conn.received(), 1)
}

func TestRegistry_RemoveIdempotent(t *testing.T) {
	registry := newTestRegistry()
	conn := &fakeConn{}

	registry.Remove(conn) // absent: no-op
	registry.Admit(conn, testUser("alice"))
	registry.Remove(conn)
	registry.Remove(conn)
	assert.Equal(t, 0, registry.Size())
}

func TestRegistry_BroadcastPrunesDeadConnection(t *testing.T) {
	registry := newTestRegistry()
	healthy := &fakeConn{}
	dead := &fakeConn{}

	registry.Admit(healthy, testUser("alice"))
	registry.Admit(dead, testUser("bob"))
	dead.fail()

	delivered := registry.Broadcast([]byte("msg"))
	assert.Equal(t, 1, delivered)
	assert.Equal(t, 1, registry.Size())
	assert.True(t, dead.closed)
	require.Len(t, healthy.received(), 1)

	// The pruned connection is not attempted again.
	delivered = registry.Broadcast([]byte("msg2"))
	assert.Equal(t, 1, delivered)
	assert.Len(t, healthy.received(), 2)
}

func TestRegistry_TwoClientsEachReceiveOnce(t *testing.T) {
	registry := newTestRegistry()
	first := &fakeConn{}
	second := &fakeConn{}

	registry.Admit(first, testUser("alice"))
	registry.Admit(second, testUser("bob"))

	delivered := registry.Broadcast([]byte("update"))
	assert.Equal(t, 2, delivered)
	assert.Len(t, first.received(), 1)
	assert.Len(t, second.received(), 1)

	registry.Remove(second)
	delivered = registry.Broadcast([]byte("update2"))
	assert.Equal(t, 1, delivered)
	assert.Len(t, first.received(), 2)
	assert.Len(t, second.received(), 1)
}

func TestRegistry_PerClientOrderingWithinBroadcasts(t *testing.T) {
	registry := newTestRegistry()
	conn := &fakeConn{}
	registry.Admit(conn, testUser("alice"))

	for i := 0; i < 10; i++ {
		registry.Broadcast([]byte(fmt.Sprintf("m%d", i)))
	}

	messages := conn.received()
	require.Len(t, messages, 10)
	for i, msg := range messages {
		assert.Equal(t, fmt.Sprintf("m%d", i), string(msg))
	}
}

// overlapConn trips a flag if two WriteMessage calls ever overlap, mimicking
// a transport that forbids concurrent writers.
type overlapConn struct {
	writing  int32
	writes   int32
	violated int32
}

func (c *overlapConn) WriteMessage(_ int, _ []byte) error {
	if !atomic.CompareAndSwapInt32(&c.writing, 0, 1) {
		atomic.StoreInt32(&c.violated, 1)
		return nil
	}
	runtime.Gosched()
	atomic.AddInt32(&c.writes, 1)
	atomic.StoreInt32(&c.writing, 0)
	return nil
}

func (c *overlapConn) Close() error { return nil }

func TestRegistry_ConcurrentBroadcastsSerializePerConnection(t *testing.T) {
	registry := newTestRegistry()

	conns := []*overlapConn{{}, {}, {}}
	for i, conn := range conns {
		registry.Admit(conn, testUser(fmt.Sprintf("u%d", i)))
	}

	const workers = 8
	const broadcasts = 500

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < broadcasts; i++ {
				registry.Broadcast([]byte("tick"))
			}
		}()
	}
	wg.Wait()

	for i, conn := range conns {
		assert.Zero(t, atomic.LoadInt32(&conn.violated), "connection %d saw overlapping writes", i)
		assert.Equal(t, int32(workers*broadcasts), atomic.LoadInt32(&conn.writes))
	}
}

func TestRegistry_ConcurrentStress(t *testing.T) {
	registry := newTestRegistry()

	const workers = 16
	const iterations = 200

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				conn := &fakeConn{}
				registry.Admit(conn, testUser(fmt.Sprintf("u%d-%d", w, i)))
				registry.Broadcast([]byte("stress"))
				if i%3 == 0 {
					conn.fail()
					registry.Broadcast([]byte("stress-prune"))
				}
				registry.Remove(conn)
				registry.Remove(conn)
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, 0, registry.Size())
}
