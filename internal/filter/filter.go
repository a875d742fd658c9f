// ABOUTME: Per-player spam filter with cooldown, burst window and repeat checks.
// ABOUTME: State is keyed by player ID and evicted after a period of inactivity.

package filter

import (
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Reason identifies which check denied a message.
type Reason string

const (
	ReasonCooldown Reason = "cooldown"
	ReasonBurst    Reason = "burst"
	ReasonRepeat   Reason = "repeat"
)

// Config holds the filter thresholds. A threshold of zero disables the
// corresponding check.
type Config struct {
	CooldownSeconds   float64
	SpamWindowSeconds float64
	SpamMaxMessages   int
	RepeatMinLength   int
	RepeatSimilarity  float64
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		CooldownSeconds:   1.5,
		SpamWindowSeconds: 3.0,
		SpamMaxMessages:   4,
		RepeatMinLength:   4,
		RepeatSimilarity:  0.9,
	}
}

// Verdict is the outcome of a CanSend check. Text carries the human-readable
// notice shown to the sender on denial; it is empty when Allowed.
type Verdict struct {
	Allowed bool
	Reason  Reason
	Text    string
}

func allow() Verdict {
	return Verdict{Allowed: true}
}

func deny(reason Reason, text string) Verdict {
	return Verdict{Reason: reason, Text: text}
}

// state tracks the rolling filter history for a single player. All fields are
// guarded by mu, which is held for the full check-and-commit sequence so two
// concurrent sends from the same player are serialized.
type state struct {
	mu             sync.Mutex
	lastMessage    time.Time
	lastNormalized string
	recent         []time.Time
	lastSeen       time.Time
}

// idleTTL is how long a player's filter state survives without activity
// before the janitor evicts it. Absence of state is equivalent to no history.
const idleTTL = 10 * time.Minute

// Filter applies the cooldown, burst-window and near-duplicate checks to
// outbound chat messages. It is safe for concurrent use; checks for different
// players do not contend.
type Filter struct {
	cfg Config

	mu     sync.Mutex
	states map[uuid.UUID]*state

	done   chan struct{}
	closed bool
}

// New creates a Filter with the given thresholds. A background janitor
// goroutine evicts state for players who have gone quiet.
func New(cfg Config) *Filter {
	f := &Filter{
		cfg:    cfg,
		states: make(map[uuid.UUID]*state),
		done:   make(chan struct{}),
	}
	go f.janitor()
	return f
}

// CanSend checks whether the player may send the given raw message at time
// now. On allow it commits the message to the player's history; on deny the
// history is left as it was except for burst-window bookkeeping.
func (f *Filter) CanSend(id uuid.UUID, raw string, now time.Time) Verdict {
	st := f.stateFor(id)

	st.mu.Lock()
	defer st.mu.Unlock()

	st.lastSeen = now

	cooldown := time.Duration(f.cfg.CooldownSeconds * float64(time.Second))
	var cooldownHit bool
	var remaining time.Duration
	if cooldown > 0 && !st.lastMessage.IsZero() {
		elapsed := now.Sub(st.lastMessage)
		if elapsed < cooldown {
			cooldownHit = true
			remaining = cooldown - elapsed
		}
	}

	// Burst bookkeeping runs even when cooldown already denied, so rapid
	// retries during a cooldown still count toward the window.
	var burstHit bool
	window := time.Duration(f.cfg.SpamWindowSeconds * float64(time.Second))
	if window > 0 && f.cfg.SpamMaxMessages > 0 {
		st.recent = pruneWindow(st.recent, now, window)
		st.recent = append(st.recent, now)
		burstHit = len(st.recent) > f.cfg.SpamMaxMessages
	}

	if cooldownHit {
		text := fmt.Sprintf("Please wait %s before sending your next message.", formatSeconds(remaining.Seconds()))
		return deny(ReasonCooldown, text)
	}
	if burstHit {
		return deny(ReasonBurst, "You are sending too many messages at once.")
	}

	normalized := Normalize(raw)
	if f.cfg.RepeatSimilarity > 0 && normalized != "" && len(normalized) >= f.cfg.RepeatMinLength && st.lastNormalized != "" {
		if similarity(normalized, st.lastNormalized) >= f.cfg.RepeatSimilarity {
			return deny(ReasonRepeat, "Please do not repeat the same (or similar) message.")
		}
	}

	st.lastMessage = now
	st.lastNormalized = normalized
	return allow()
}

// Remove drops the filter state for a player. Called on disconnect as a
// hygiene measure; correctness does not depend on it.
func (f *Filter) Remove(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.states, id)
}

// Close stops the janitor goroutine. Safe to call multiple times.
func (f *Filter) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		close(f.done)
		f.closed = true
	}
}

// stateFor returns the player's state, creating it lazily on first use.
func (f *Filter) stateFor(id uuid.UUID) *state {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.states[id]
	if !ok {
		st = &state{}
		f.states[id] = st
	}
	return st
}

// janitor periodically evicts state for players idle past idleTTL.
func (f *Filter) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			f.evictIdle(time.Now())
		case <-f.done:
			return
		}
	}
}

func (f *Filter) evictIdle(now time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, st := range f.states {
		st.mu.Lock()
		idle := now.Sub(st.lastSeen) > idleTTL
		st.mu.Unlock()
		if idle {
			delete(f.states, id)
		}
	}
}

// pruneWindow drops timestamps older than the window, oldest first.
func pruneWindow(times []time.Time, now time.Time, window time.Duration) []time.Time {
	i := 0
	for i < len(times) && now.Sub(times[i]) > window {
		i++
	}
	if i == 0 {
		return times
	}
	return append(times[:0], times[i:]...)
}

// formatSeconds renders a remaining cooldown rounded up to one decimal
// place, dropping the fraction when the result is a whole number.
func formatSeconds(remaining float64) string {
	rounded := math.Ceil(remaining*10) / 10
	if math.Abs(rounded-math.Round(rounded)) < 0.0001 {
		return strconv.Itoa(int(math.Round(rounded)))
	}
	return fmt.Sprintf("%.1f", rounded)
}
