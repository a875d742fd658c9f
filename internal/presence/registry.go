// ABOUTME: Tracks players currently connected through this proxy instance.
// ABOUTME: Central registry used for local chat fan-out and server filtering.

package presence

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// ErrAlreadyRegistered indicates a player with the same ID is already online.
var ErrAlreadyRegistered = errors.New("player already registered")

// Sink delivers text to a single player. Implementations belong to the host;
// SendActionBar is the transient on-screen variant used for filter notices.
type Sink interface {
	SendMessage(text string) error
	SendActionBar(text string) error
}

// Player is one online player's session on this proxy instance.
type Player struct {
	ID     uuid.UUID
	Name   string
	server string
	sink   Sink

	mu sync.Mutex
}

// NewPlayer creates a session for a player on the given backend server.
func NewPlayer(id uuid.UUID, name, server string, sink Sink) *Player {
	return &Player{ID: id, Name: name, server: server, sink: sink}
}

// Server returns the backend server the player is currently on.
func (p *Player) Server() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.server
}

// Send delivers a persistent chat line; sink failures are absorbed since a
// single player's broken connection must not affect a fan-out.
func (p *Player) Send(text string) {
	if err := p.sink.SendMessage(text); err != nil {
		slog.Debug("message delivery failed", "player", p.ID, "error", err)
	}
}

// SendActionBar delivers a transient on-screen notice.
func (p *Player) SendActionBar(text string) {
	if err := p.sink.SendActionBar(text); err != nil {
		slog.Debug("action bar delivery failed", "player", p.ID, "error", err)
	}
}

// Registry tracks all players connected through this proxy instance.
type Registry struct {
	players map[uuid.UUID]*Player
	mu      sync.RWMutex
	logger  *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		players: make(map[uuid.UUID]*Player),
		logger:  logger.With("component", "presence"),
	}
}

// Register adds a player session.
// Returns ErrAlreadyRegistered if the player is already online.
func (r *Registry) Register(p *Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.players[p.ID]; exists {
		return ErrAlreadyRegistered
	}

	r.players[p.ID] = p
	r.logger.Info("player connected",
		"player", p.ID,
		"name", p.Name,
		"server", p.Server(),
		"online", len(r.players),
	)
	return nil
}

// Unregister removes a player session.
func (r *Registry) Unregister(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, exists := r.players[id]; exists {
		delete(r.players, id)
		r.logger.Info("player disconnected",
			"player", id,
			"name", p.Name,
			"online", len(r.players),
		)
	}
}

// Get returns the session for a player ID.
func (r *Registry) Get(id uuid.UUID) (*Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[id]
	return p, ok
}

// All returns a snapshot of every online player.
func (r *Registry) All() []*Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p)
	}
	return out
}

// SetServer records a backend server switch for an online player.
func (r *Registry) SetServer(id uuid.UUID, server string) {
	r.mu.RLock()
	p, ok := r.players[id]
	r.mu.RUnlock()
	if !ok {
		return
	}
	p.mu.Lock()
	p.server = server
	p.mu.Unlock()
}

// Count reports how many players are online on this instance.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}
