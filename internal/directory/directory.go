// ABOUTME: Cross-instance player session directory stored in Redis.
// ABOUTME: Best-effort writes; a directory outage never affects local play.

package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a directory lookup has no entry.
var ErrNotFound = errors.New("not found")

// pingTTL bounds how long a ping sample stays visible after the last update.
const pingTTL = 10 * time.Second

// Directory publishes this instance's player sessions to the shared Redis so
// other instances (and backend tooling) can resolve names, servers and pings.
// All writes are best-effort: failures are logged and swallowed.
type Directory struct {
	client *redis.Client
	logger *slog.Logger
}

// New creates a Directory on an existing Redis client, typically the one the
// relay bus already holds.
func New(client *redis.Client, logger *slog.Logger) *Directory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{
		client: client,
		logger: logger.With("component", "directory"),
	}
}

// SetPlayer records the player's name mapping and current backend server.
func (d *Directory) SetPlayer(ctx context.Context, id uuid.UUID, name, server string) {
	pipe := d.client.Pipeline()
	pipe.Set(ctx, keyUUID(name), id.String(), 0)
	pipe.Set(ctx, keyGamertag(id), name, 0)
	pipe.Set(ctx, keyServer(id), server, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		d.logger.Warn("directory write failed", "player", id, "error", err)
	}
}

// SetServer updates only the player's current backend server.
func (d *Directory) SetServer(ctx context.Context, id uuid.UUID, server string) {
	if err := d.client.Set(ctx, keyServer(id), server, 0).Err(); err != nil {
		d.logger.Warn("directory server write failed", "player", id, "error", err)
	}
}

// SetPing records the player's last measured ping with a short TTL so stale
// samples expire on their own.
func (d *Directory) SetPing(ctx context.Context, id uuid.UUID, ping time.Duration) {
	value := fmt.Sprintf("%d", ping.Milliseconds())
	if err := d.client.Set(ctx, keyPing(id), value, pingTTL).Err(); err != nil {
		d.logger.Warn("directory ping write failed", "player", id, "error", err)
	}
}

// RemovePlayer clears the player's server and ping entries on disconnect.
// The name mappings are left behind for offline lookups.
func (d *Directory) RemovePlayer(ctx context.Context, id uuid.UUID) {
	if err := d.client.Del(ctx, keyServer(id), keyPing(id)).Err(); err != nil {
		d.logger.Warn("directory delete failed", "player", id, "error", err)
	}
}

// ServerOf resolves which backend server a player is on, across instances.
func (d *Directory) ServerOf(ctx context.Context, id uuid.UUID) (string, error) {
	server, err := d.client.Get(ctx, keyServer(id)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("resolving server for %s: %w", id, err)
	}
	return server, nil
}

// LookupID resolves a player name to their ID, across instances.
func (d *Directory) LookupID(ctx context.Context, name string) (uuid.UUID, error) {
	raw, err := d.client.Get(ctx, keyUUID(name)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("resolving id for %q: %w", name, err)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("malformed id for %q: %w", name, err)
	}
	return id, nil
}

func keyUUID(name string) string {
	return "prism:player:uuid:" + strings.ToLower(name)
}

func keyGamertag(id uuid.UUID) string {
	return "prism:player:gamertag:" + id.String()
}

func keyServer(id uuid.UUID) string {
	return "prism:player:server:" + id.String()
}

func keyPing(id uuid.UUID) string {
	return "prism:player:ping:" + id.String()
}
