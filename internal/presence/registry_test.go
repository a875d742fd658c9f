// ABOUTME: Tests for the online-player registry.
// ABOUTME: Validates registration, lookup, server switches and snapshots.

package presence

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nopSink swallows deliveries.
type nopSink struct{}

func (nopSink) SendMessage(string) error   { return nil }
func (nopSink) SendActionBar(string) error { return nil }

func TestRegister_Duplicate(t *testing.T) {
	r := NewRegistry(nil)
	id := uuid.New()

	require.NoError(t, r.Register(NewPlayer(id, "steve", "alpha", nopSink{})))
	err := r.Register(NewPlayer(id, "steve", "beta", nopSink{}))
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestUnregister_RemovesPlayer(t *testing.T) {
	r := NewRegistry(nil)
	id := uuid.New()
	require.NoError(t, r.Register(NewPlayer(id, "steve", "alpha", nopSink{})))

	r.Unregister(id)

	_, ok := r.Get(id)
	assert.False(t, ok)
	assert.Equal(t, 0, r.Count())
}

func TestSetServer_UpdatesOnlinePlayer(t *testing.T) {
	r := NewRegistry(nil)
	id := uuid.New()
	require.NoError(t, r.Register(NewPlayer(id, "steve", "alpha", nopSink{})))

	r.SetServer(id, "beta")

	p, ok := r.Get(id)
	require.True(t, ok)
	assert.Equal(t, "beta", p.Server())
}

func TestAll_Snapshot(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(NewPlayer(uuid.New(), "a", "alpha", nopSink{})))
	require.NoError(t, r.Register(NewPlayer(uuid.New(), "b", "beta", nopSink{})))

	assert.Len(t, r.All(), 2)
	assert.Equal(t, 2, r.Count())
}
