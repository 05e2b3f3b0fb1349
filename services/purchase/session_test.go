package purchase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionRegistry_CancelKnownSession(t *testing.T) {
	registry := NewSessionRegistry(time.Hour)
	registry.Register("sess_1")

	assert.False(t, registry.IsCancelled("sess_1"))
	assert.True(t, registry.Cancel("sess_1"))
	assert.True(t, registry.IsCancelled("sess_1"))
}

func TestSessionRegistry_CancelUnknownSession(t *testing.T) {
	registry := NewSessionRegistry(time.Hour)

	assert.False(t, registry.Cancel("sess_unknown"))
	assert.False(t, registry.IsCancelled("sess_unknown"))
}

func TestSessionRegistry_RemoveForgetsFlag(t *testing.T) {
	registry := NewSessionRegistry(time.Hour)
	registry.Register("sess_1")
	registry.Cancel("sess_1")
	registry.Remove("sess_1")

	assert.False(t, registry.IsCancelled("sess_1"))
	assert.Equal(t, 0, registry.Len())
}

func TestSessionRegistry_SweepEvictsStaleSessions(t *testing.T) {
	registry := NewSessionRegistry(time.Nanosecond)
	registry.Register("sess_old")
	time.Sleep(5 * time.Millisecond)

	removed := registry.Sweep()

	assert.Equal(t, 1, removed)
	assert.Equal(t, 0, registry.Len())
}

func TestSessionRegistry_SweepKeepsFreshSessions(t *testing.T) {
	registry := NewSessionRegistry(time.Hour)
	registry.Register("sess_fresh")

	removed := registry.Sweep()

	assert.Equal(t, 0, removed)
	assert.Equal(t, 1, registry.Len())
}

func TestSessionRegistry_ReRegisterResetsCancellation(t *testing.T) {
	registry := NewSessionRegistry(time.Hour)
	registry.Register("sess_1")
	registry.Cancel("sess_1")
	registry.Register("sess_1")

	assert.False(t, registry.IsCancelled("sess_1"))
}
