// ABOUTME: Chat router coordinating spam filtering, scope classification
// ABOUTME: and cross-instance team-chat relay with origin deduplication.

package relay

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/h2ph/prism-relay/internal/bus"
	"github.com/h2ph/prism-relay/internal/directory"
	"github.com/h2ph/prism-relay/internal/filter"
	"github.com/h2ph/prism-relay/internal/playercache"
	"github.com/h2ph/prism-relay/internal/presence"
)

// publishTimeout bounds the detached publish goroutine so a hung bus
// connection cannot pile up goroutines forever.
const publishTimeout = 5 * time.Second

// Disposition tells the host what to do with its default per-server echo of
// the message.
type Disposition int

const (
	// PassThrough leaves the host's default delivery in place.
	PassThrough Disposition = iota

	// SuppressEcho blanks the default delivery; the relay has already
	// delivered the message (team scope) or denied it (filtered).
	SuppressEcho
)

// SessionStore is the slice of the backing store the router writes session
// records through. Failures are logged and absorbed.
type SessionStore interface {
	RecordConnect(ctx context.Context, id uuid.UUID, name string) error
	RecordDisconnect(ctx context.Context, id uuid.UUID, server string) error
}

// SessionDirectory is the cross-instance session directory the router
// publishes presence into. May be nil when Redis is unavailable.
type SessionDirectory interface {
	SetPlayer(ctx context.Context, id uuid.UUID, name, server string)
	SetServer(ctx context.Context, id uuid.UUID, server string)
	SetPing(ctx context.Context, id uuid.UUID, ping time.Duration)
	RemovePlayer(ctx context.Context, id uuid.UUID)
}

// Options wires the router's collaborators. Sessions, Directory, Prefix and
// Auth are optional; nil selects the degraded or default behavior.
type Options struct {
	InstanceID string
	Filter     *filter.Filter
	Cache      *playercache.Cache
	Bus        bus.Bus
	Players    *presence.Registry
	Sessions   SessionStore
	Directory  SessionDirectory
	Prefix     PrefixProvider
	Auth       Authenticator
	Logger     *slog.Logger
}

// Router orchestrates outbound chat: filter, classify global vs. team,
// deliver locally and relay team messages across instances. It also consumes
// the inbound relay topics.
type Router struct {
	instanceID string
	filter     *filter.Filter
	cache      *playercache.Cache
	bus        bus.Bus
	players    *presence.Registry
	sessions   SessionStore
	dir        SessionDirectory
	prefix     PrefixProvider
	auth       Authenticator
	logger     *slog.Logger
}

// New creates a Router. The instance ID must be stable for the process
// lifetime; it is how this instance recognizes its own relay echoes.
func New(opts Options) *Router {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	prefix := opts.Prefix
	if prefix == nil {
		prefix = NopPrefix{}
	}
	auth := opts.Auth
	if auth == nil {
		auth = LegacyAdapter{}
	}
	return &Router{
		instanceID: opts.InstanceID,
		filter:     opts.Filter,
		cache:      opts.Cache,
		bus:        opts.Bus,
		players:    opts.Players,
		sessions:   opts.Sessions,
		dir:        opts.Directory,
		prefix:     prefix,
		auth:       auth,
		logger:     logger.With("component", "relay"),
	}
}

// Start subscribes the router to the relay topics. Listeners live for the
// rest of the process.
func (r *Router) Start() {
	r.bus.Subscribe(bus.TopicTeamChat, r.handleInboundTeamChat)
	r.bus.Subscribe(bus.TopicPlayerUpdate, r.handlePlayerUpdate)
	r.logger.Info("relay started", "instance", r.instanceID)
}

// HandleChat processes one outbound chat message from a local player and
// returns what the host should do with its default echo. Collaborator
// failures never fail the send; the sender's message is always delivered
// locally.
func (r *Router) HandleChat(ctx context.Context, ev *ChatEvent) Disposition {
	sender := ev.Player

	verdict := r.filter.CanSend(sender.ID, ev.Content, time.Now())
	if !verdict.Allowed {
		sender.Send(verdict.Text)
		sender.SendActionBar(verdict.Text)
		r.logger.Debug("chat denied",
			"player", sender.ID,
			"reason", verdict.Reason,
		)
		// A pre-authenticated message cannot be blanked, only left alone.
		if r.auth.MessageIsPreAuthenticated(ev) {
			return PassThrough
		}
		return SuppressEcho
	}

	state, ok := r.cache.Get(sender.ID)
	if !ok || !state.TeamChatEnabled {
		r.deliverGlobal(ctx, sender, ev.Content)
		return PassThrough
	}

	r.relayTeamChat(ctx, sender, state, ev.Content)
	if r.auth.MessageIsPreAuthenticated(ev) {
		return PassThrough
	}
	return SuppressEcho
}

// deliverGlobal fans a global message out to local players on other backend
// servers. Same-server players already saw it through the server itself.
func (r *Router) deliverGlobal(ctx context.Context, sender *presence.Player, content string) {
	text := fmt.Sprintf("<%s> %s", r.displayName(ctx, sender), content)
	senderServer := sender.Server()
	for _, p := range r.players.All() {
		if p.ID == sender.ID || p.Server() == senderServer {
			continue
		}
		p.Send(text)
	}
}

// relayTeamChat publishes the message for other instances and delivers it to
// local teammates immediately, ahead of the bus round-trip.
func (r *Router) relayTeamChat(ctx context.Context, sender *presence.Player, state *playercache.TeamState, content string) {
	display := r.displayName(ctx, sender)
	msg := &Message{
		Sender:   display,
		TeamID:   state.TeamID,
		TeamName: state.TeamName,
		Content:  content,
		Origin:   r.instanceID,
	}

	payload, err := msg.Encode()
	if err != nil {
		r.logger.Error("relay message encoding failed", "error", err)
	} else {
		// Fire and forget: the chat path never waits on the bus.
		go func() {
			pubCtx, cancel := context.WithTimeout(context.Background(), publishTimeout)
			defer cancel()
			if err := r.bus.Publish(pubCtx, bus.TopicTeamChat, payload); err != nil {
				r.logger.Warn("team chat publish failed", "error", err)
			}
		}()
	}

	r.deliverTeam(state.TeamID, formatTeam(state.TeamName, display, content))
}

// handleInboundTeamChat consumes team-chat payloads published by other
// instances, discarding this instance's own echoes.
func (r *Router) handleInboundTeamChat(payload string) {
	msg, err := DecodeMessage(payload)
	if err != nil {
		r.logger.Warn("dropping malformed relay payload", "error", err)
		return
	}
	if msg.Origin == r.instanceID {
		return
	}
	r.deliverTeam(msg.TeamID, formatTeam(msg.TeamName, msg.Sender, msg.Content))
}

// handlePlayerUpdate consumes out-of-band team change notifications and
// refreshes the affected cache entry.
func (r *Router) handlePlayerUpdate(payload string) {
	id, err := uuid.Parse(strings.TrimSpace(payload))
	if err != nil {
		r.logger.Warn("dropping malformed player update", "payload", payload)
		return
	}
	r.cache.Invalidate(id)
}

// deliverTeam sends text to every local player whose cached team matches.
func (r *Router) deliverTeam(teamID *string, text string) {
	if teamID == nil {
		return
	}
	for _, p := range r.players.All() {
		state, ok := r.cache.Get(p.ID)
		if ok && state.TeamID != nil && *state.TeamID == *teamID {
			p.Send(text)
		}
	}
}

// formatTeam renders a team-scoped chat line in legacy markup. The
// presentation layer interprets the codes; the relay only assembles text.
func formatTeam(teamName *string, sender, content string) string {
	label := "Team"
	if teamName != nil {
		label = *teamName
	}
	return fmt.Sprintf("&7[%s&7] &5%s: &f%s", label, sender, content)
}

// HandleConnect registers a new local session: presence, async cache load,
// session record and directory entry.
func (r *Router) HandleConnect(ctx context.Context, p *presence.Player) error {
	if err := r.players.Register(p); err != nil {
		return err
	}
	r.cache.LoadAsync(p.ID)
	if r.sessions != nil {
		if err := r.sessions.RecordConnect(ctx, p.ID, p.Name); err != nil {
			r.logger.Warn("session record failed", "player", p.ID, "error", err)
		}
	}
	if r.dir != nil {
		r.dir.SetPlayer(ctx, p.ID, p.Name, p.Server())
	}
	return nil
}

// HandleDisconnect tears down a local session and its cached state.
func (r *Router) HandleDisconnect(ctx context.Context, id uuid.UUID) {
	var server string
	if p, ok := r.players.Get(id); ok {
		server = p.Server()
	}
	r.players.Unregister(id)
	r.cache.Remove(id)
	r.filter.Remove(id)
	if r.sessions != nil {
		if err := r.sessions.RecordDisconnect(ctx, id, server); err != nil {
			r.logger.Warn("disconnect record failed", "player", id, "error", err)
		}
	}
	if r.dir != nil {
		r.dir.RemovePlayer(ctx, id)
	}
}

// HandleServerSwitch records a player's move to another backend server.
func (r *Router) HandleServerSwitch(ctx context.Context, id uuid.UUID, server string) {
	r.players.SetServer(id, server)
	if r.dir != nil {
		r.dir.SetServer(ctx, id, server)
	}
}

// HandlePing records a ping sample in the session directory.
func (r *Router) HandlePing(ctx context.Context, id uuid.UUID, ping time.Duration) {
	if r.dir != nil {
		r.dir.SetPing(ctx, id, ping)
	}
}

// ensure Directory satisfies the router's view of it.
var _ SessionDirectory = (*directory.Directory)(nil)
