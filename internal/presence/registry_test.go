package presence_test

import (
	"fmt"
	"sync"
	"testing"

	"skillhub/backend/internal/presence"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_RegisterAndLookup(t *testing.T) {
	reg := presence.NewRegistry()

	prev := reg.Register("alice", "conn_1")
	assert.Empty(t, prev)

	conn, ok := reg.Connection("alice")
	assert.True(t, ok)
	assert.Equal(t, "conn_1", conn)

	user, ok := reg.User("conn_1")
	assert.True(t, ok)
	assert.Equal(t, "alice", user)

	assert.Equal(t, 1, reg.Count())
}

func TestRegistry_LastConnectionWins(t *testing.T) {
	reg := presence.NewRegistry()

	reg.Register("alice", "conn_1")
	prev := reg.Register("alice", "conn_2")
	assert.Equal(t, "conn_1", prev)

	conn, ok := reg.Connection("alice")
	assert.True(t, ok)
	assert.Equal(t, "conn_2", conn)

	// The superseded connection no longer resolves to anyone.
	_, ok = reg.User("conn_1")
	assert.False(t, ok)
	assert.Equal(t, 1, reg.Count())
}

func TestRegistry_UnregisterIsIdempotent(t *testing.T) {
	reg := presence.NewRegistry()

	reg.Register("alice", "conn_1")
	reg.Unregister("conn_1")
	reg.Unregister("conn_1")
	reg.Unregister("never_registered")

	_, ok := reg.Connection("alice")
	assert.False(t, ok)
	assert.Equal(t, 0, reg.Count())
}

func TestRegistry_UnregisterStaleConnectionKeepsNewBinding(t *testing.T) {
	reg := presence.NewRegistry()

	reg.Register("alice", "conn_1")
	reg.Register("alice", "conn_2")

	// The stale connection disconnecting must not unbind the new one.
	reg.Unregister("conn_1")

	conn, ok := reg.Connection("alice")
	assert.True(t, ok)
	assert.Equal(t, "conn_2", conn)
}

func TestRegistry_ConcurrentRegisterUnregister(t *testing.T) {
	reg := presence.NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			user := fmt.Sprintf("user%d", n%10)
			conn := fmt.Sprintf("conn_%d", n)
			reg.Register(user, conn)
			reg.Unregister(conn)
		}(i)
	}
	wg.Wait()

	// Every register was followed by its own unregister; whatever bindings
	// survive must be internally consistent.
	for i := 0; i < 10; i++ {
		user := fmt.Sprintf("user%d", i)
		if conn, ok := reg.Connection(user); ok {
			back, ok := reg.User(conn)
			assert.True(t, ok)
			assert.Equal(t, user, back)
		}
	}
}
