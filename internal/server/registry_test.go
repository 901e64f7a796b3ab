package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/gammond/internal/game"
)

func newTestSession(id string, mode game.Mode) *game.Session {
	return game.NewSession(game.SessionConfig{GameID: id, Mode: mode})
}

func TestRegistryIndexes(t *testing.T) {
	r := NewRegistry()
	s := newTestSession("g1", game.ModePvP)
	r.Add(s, []string{"sid-a", "sid-b"}, []string{"alice", "bob"})

	got, ok := r.ByID("g1")
	require.True(t, ok)
	assert.Same(t, s, got)

	got, ok = r.BySocket("sid-b")
	require.True(t, ok)
	assert.Same(t, s, got)

	got, ok = r.ByUser("alice")
	require.True(t, ok)
	assert.Same(t, s, got)

	_, ok = r.ByID("missing")
	assert.False(t, ok)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryAssociateSocket(t *testing.T) {
	r := NewRegistry()
	s := newTestSession("g1", game.ModePvE)
	r.Add(s, []string{"sid-a"}, []string{"alice"})

	// Disconnect drops only the socket entry; the rejoin path re-adds one.
	r.DropSocket("sid-a")
	_, ok := r.BySocket("sid-a")
	assert.False(t, ok)
	_, ok = r.ByUser("alice")
	assert.True(t, ok)

	require.True(t, r.AssociateSocket("sid-a2", "g1"))
	got, ok := r.BySocket("sid-a2")
	require.True(t, ok)
	assert.Same(t, s, got)

	assert.False(t, r.AssociateSocket("sid-x", "missing"))
}

func TestRegistryRemoveByID(t *testing.T) {
	r := NewRegistry()
	s1 := newTestSession("g1", game.ModePvP)
	s2 := newTestSession("g2", game.ModePvE)
	r.Add(s1, []string{"sid-a", "sid-b"}, []string{"alice", "bob"})
	r.Add(s2, []string{"sid-c"}, []string{"carol"})

	r.RemoveByID("g1")

	_, ok := r.ByID("g1")
	assert.False(t, ok)
	_, ok = r.BySocket("sid-a")
	assert.False(t, ok)
	_, ok = r.BySocket("sid-b")
	assert.False(t, ok)
	_, ok = r.ByUser("alice")
	assert.False(t, ok)
	_, ok = r.ByUser("bob")
	assert.False(t, ok)

	// the other session is untouched
	_, ok = r.ByID("g2")
	assert.True(t, ok)
	_, ok = r.BySocket("sid-c")
	assert.True(t, ok)
	assert.Equal(t, 1, r.Len())

	// removing twice is harmless
	r.RemoveByID("g1")
}
