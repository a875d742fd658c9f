// ABOUTME: Read-through cache of per-player team-chat state keyed by player ID.
// ABOUTME: Loads run off the caller's path; reads never block on a load.

package playercache

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// TeamState is the cached team-chat view of a player. Nil pointers mean the
// player has no team. Entries are replaced wholesale, never partially updated.
type TeamState struct {
	TeamChatEnabled bool
	TeamID          *string
	TeamName        *string
}

// TeamStore is the backing store the cache loads from. Implementations are
// expected to be simple point lookups with no transactional requirements.
type TeamStore interface {
	IsTeamChatEnabled(ctx context.Context, id uuid.UUID) (bool, error)
	TeamIDForPlayer(ctx context.Context, id uuid.UUID) (*string, error)
	TeamName(ctx context.Context, teamID string) (*string, error)
}

// Cache holds team state for online players so the chat path never waits on
// the database. Get is non-blocking under all conditions; loads acquire the
// write lock only for the final entry swap.
type Cache struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*TeamState

	store  TeamStore
	logger *slog.Logger
}

// New creates an empty cache backed by the given store.
func New(store TeamStore, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		entries: make(map[uuid.UUID]*TeamState),
		store:   store,
		logger:  logger.With("component", "playercache"),
	}
}

// Get returns the cached state for a player. It never blocks and never
// triggers a load; absence means the caller should treat the player as not
// using team chat.
func (c *Cache) Get(id uuid.UUID) (*TeamState, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st, ok := c.entries[id]
	return st, ok
}

// LoadAsync queries the backing store on a separate goroutine and replaces
// the cache entry for id with the freshly loaded value. The returned channel
// resolves with the loaded state, or nil if the load failed; on failure the
// prior cached entry is left intact.
func (c *Cache) LoadAsync(id uuid.UUID) <-chan *TeamState {
	result := make(chan *TeamState, 1)
	go func() {
		defer close(result)

		st, err := c.load(context.Background(), id)
		if err != nil {
			c.logger.Warn("player state load failed", "player", id, "error", err)
			result <- nil
			return
		}

		c.mu.Lock()
		c.entries[id] = st
		c.mu.Unlock()
		result <- st
	}()
	return result
}

// Invalidate triggers a background reload of the player's entry, discarding
// the result. Used when a team change is made out of band.
func (c *Cache) Invalidate(id uuid.UUID) {
	c.LoadAsync(id)
}

// Remove deletes the entry for a player, typically on session end. A remove
// racing an in-flight load resolves last-write-wins; a stale entry for an
// offline player has no observable effect.
func (c *Cache) Remove(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// load composes the three backing-store lookups into one TeamState.
func (c *Cache) load(ctx context.Context, id uuid.UUID) (*TeamState, error) {
	enabled, err := c.store.IsTeamChatEnabled(ctx, id)
	if err != nil {
		return nil, err
	}
	teamID, err := c.store.TeamIDForPlayer(ctx, id)
	if err != nil {
		return nil, err
	}
	var teamName *string
	if teamID != nil {
		teamName, err = c.store.TeamName(ctx, *teamID)
		if err != nil {
			return nil, err
		}
	}
	return &TeamState{
		TeamChatEnabled: enabled,
		TeamID:          teamID,
		TeamName:        teamName,
	}, nil
}
