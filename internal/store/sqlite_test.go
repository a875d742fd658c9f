// ABOUTME: Tests for the SQLite store implementation.
// ABOUTME: Validates team lookups, session records and admin writes.

package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedPlayer(t *testing.T, s *SQLiteStore, name string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, s.RecordConnect(context.Background(), id, name))
	return id
}

func TestIsTeamChatEnabled_UnknownPlayer(t *testing.T) {
	s := newTestStore(t)

	enabled, err := s.IsTeamChatEnabled(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestSetTeamChatEnabled_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := seedPlayer(t, s, "steve")

	require.NoError(t, s.SetTeamChatEnabled(ctx, id, true))
	enabled, err := s.IsTeamChatEnabled(ctx, id)
	require.NoError(t, err)
	assert.True(t, enabled)

	require.NoError(t, s.SetTeamChatEnabled(ctx, id, false))
	enabled, err = s.IsTeamChatEnabled(ctx, id)
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestSetTeamChatEnabled_UnknownPlayer(t *testing.T) {
	s := newTestStore(t)

	err := s.SetTeamChatEnabled(context.Background(), uuid.New(), true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAssignTeam_AndLookups(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateTeam(ctx, &Team{ID: "T1", Name: "Redstone"}))
	alice := seedPlayer(t, s, "alice")
	bob := seedPlayer(t, s, "bob")
	outsider := seedPlayer(t, s, "carol")

	teamID := "T1"
	require.NoError(t, s.AssignTeam(ctx, alice, &teamID))
	require.NoError(t, s.AssignTeam(ctx, bob, &teamID))

	got, err := s.TeamIDForPlayer(ctx, alice)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "T1", *got)

	got, err = s.TeamIDForPlayer(ctx, outsider)
	require.NoError(t, err)
	assert.Nil(t, got)

	name, err := s.TeamName(ctx, "T1")
	require.NoError(t, err)
	require.NotNil(t, name)
	assert.Equal(t, "Redstone", *name)

	name, err = s.TeamName(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, name)

	members, err := s.TeamMembers(ctx, "T1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{alice, bob}, members)
}

func TestAssignTeam_ClearWithNil(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateTeam(ctx, &Team{ID: "T1", Name: "Redstone"}))
	id := seedPlayer(t, s, "alice")
	teamID := "T1"
	require.NoError(t, s.AssignTeam(ctx, id, &teamID))
	require.NoError(t, s.AssignTeam(ctx, id, nil))

	got, err := s.TeamIDForPlayer(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRecordConnect_ClearsLastRegion(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := seedPlayer(t, s, "steve")

	require.NoError(t, s.RecordDisconnect(ctx, id, "alpha"))
	rec, err := s.GetPlayer(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "alpha", rec.LastRegion)

	// Reconnecting clears the stored region and refreshes the gamertag.
	require.NoError(t, s.RecordConnect(ctx, id, "steve2"))
	rec, err = s.GetPlayer(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, rec.LastRegion)
	assert.Equal(t, "steve2", rec.Name)
}

func TestRecordDisconnect_UnknownPlayer(t *testing.T) {
	s := newTestStore(t)

	err := s.RecordDisconnect(context.Background(), uuid.New(), "alpha")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetPlayer_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetPlayer(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListPlayers_OrderedByName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedPlayer(t, s, "zed")
	seedPlayer(t, s, "alice")
	seedPlayer(t, s, "mike")

	players, err := s.ListPlayers(ctx)
	require.NoError(t, err)
	require.Len(t, players, 3)
	assert.Equal(t, "alice", players[0].Name)
	assert.Equal(t, "mike", players[1].Name)
	assert.Equal(t, "zed", players[2].Name)
}
