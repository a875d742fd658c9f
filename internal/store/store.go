// ABOUTME: Store interface and data types for player/team persistence.
// ABOUTME: Defines PlayerRecord, Team and the Store interface backing the cache.

package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// PlayerRecord is a row of persistent per-player data. LastRegion holds the
// backend server the player was on when they disconnected; it is cleared on
// connect.
type PlayerRecord struct {
	ID              uuid.UUID
	Name            string
	FirstJoin       time.Time
	LastJoin        time.Time
	LastRegion      string
	LastLocation    string
	TeamID          *string
	TeamChatEnabled bool
}

// Team is a named team players can belong to.
type Team struct {
	ID   string
	Name string
}

// Store is the backing store for team membership and player session records.
// The proxy core only reads team data; writes come from backend servers or
// the admin CLI.
type Store interface {
	// Team lookups composed by the player cache. A missing player reads as
	// team chat disabled with no team; a missing team name resolves to nil.
	IsTeamChatEnabled(ctx context.Context, id uuid.UUID) (bool, error)
	TeamIDForPlayer(ctx context.Context, id uuid.UUID) (*string, error)
	TeamName(ctx context.Context, teamID string) (*string, error)
	TeamMembers(ctx context.Context, teamID string) ([]uuid.UUID, error)

	// Session records.
	RecordConnect(ctx context.Context, id uuid.UUID, name string) error
	RecordDisconnect(ctx context.Context, id uuid.UUID, server string) error

	// Admin-side writes.
	CreateTeam(ctx context.Context, team *Team) error
	AssignTeam(ctx context.Context, id uuid.UUID, teamID *string) error
	SetTeamChatEnabled(ctx context.Context, id uuid.UUID, enabled bool) error

	// Inspection.
	GetPlayer(ctx context.Context, id uuid.UUID) (*PlayerRecord, error)
	ListPlayers(ctx context.Context) ([]*PlayerRecord, error)

	Close() error
}
