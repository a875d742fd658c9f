// ABOUTME: Tests for the spam filter covering cooldown, burst and repeat checks.
// ABOUTME: Validates wait-time formatting, normalization and per-player isolation.

package filter

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestFilter(cfg Config) *Filter {
	f := New(cfg)
	return f
}

func TestCanSend_FirstMessageAllowed(t *testing.T) {
	f := newTestFilter(DefaultConfig())
	defer f.Close()

	v := f.CanSend(uuid.New(), "hello there", base)
	assert.True(t, v.Allowed)
	assert.Empty(t, v.Text)
}

func TestCanSend_CooldownDenies(t *testing.T) {
	f := newTestFilter(DefaultConfig())
	defer f.Close()
	id := uuid.New()

	require.True(t, f.CanSend(id, "first message", base).Allowed)

	v := f.CanSend(id, "second message", base.Add(500*time.Millisecond))
	require.False(t, v.Allowed)
	assert.Equal(t, ReasonCooldown, v.Reason)
	// 1.0s remaining rounds to a whole number
	assert.Equal(t, "Please wait 1 before sending your next message.", v.Text)
}

func TestCanSend_CooldownWaitTimeFractional(t *testing.T) {
	f := newTestFilter(DefaultConfig())
	defer f.Close()
	id := uuid.New()

	require.True(t, f.CanSend(id, "first message", base).Allowed)

	// 1.5s cooldown, 0.25s elapsed -> 1.25s remaining -> ceil to 1.3
	v := f.CanSend(id, "second message", base.Add(250*time.Millisecond))
	require.False(t, v.Allowed)
	assert.Equal(t, ReasonCooldown, v.Reason)
	assert.Contains(t, v.Text, "1.3")
}

func TestCanSend_CooldownExpired(t *testing.T) {
	f := newTestFilter(Config{CooldownSeconds: 1.5})
	defer f.Close()
	id := uuid.New()

	require.True(t, f.CanSend(id, "first", base).Allowed)
	assert.True(t, f.CanSend(id, "completely different words", base.Add(2*time.Second)).Allowed)
}

func TestCanSend_CooldownDisabled(t *testing.T) {
	f := newTestFilter(Config{CooldownSeconds: 0})
	defer f.Close()
	id := uuid.New()

	require.True(t, f.CanSend(id, "first", base).Allowed)
	assert.True(t, f.CanSend(id, "unrelated text entirely", base.Add(time.Millisecond)).Allowed)
}

func TestCanSend_BurstDenies(t *testing.T) {
	cfg := Config{SpamWindowSeconds: 3.0, SpamMaxMessages: 4}
	f := newTestFilter(cfg)
	defer f.Close()
	id := uuid.New()

	for i := 0; i < 4; i++ {
		v := f.CanSend(id, fmt.Sprintf("message number %d", i), base.Add(time.Duration(i)*100*time.Millisecond))
		require.True(t, v.Allowed, "message %d should pass", i)
	}

	v := f.CanSend(id, "one too many", base.Add(500*time.Millisecond))
	require.False(t, v.Allowed)
	assert.Equal(t, ReasonBurst, v.Reason)
	assert.Equal(t, "You are sending too many messages at once.", v.Text)
}

func TestCanSend_BurstSpreadBeyondWindow(t *testing.T) {
	cfg := Config{SpamWindowSeconds: 3.0, SpamMaxMessages: 4}
	f := newTestFilter(cfg)
	defer f.Close()
	id := uuid.New()

	// Five messages four seconds apart never accumulate in a 3s window.
	for i := 0; i < 5; i++ {
		v := f.CanSend(id, fmt.Sprintf("spread out message %d", i), base.Add(time.Duration(i)*4*time.Second))
		assert.True(t, v.Allowed, "message %d", i)
	}
}

func TestCanSend_BurstCountsCooldownDenials(t *testing.T) {
	cfg := Config{CooldownSeconds: 10, SpamWindowSeconds: 3.0, SpamMaxMessages: 2}
	f := newTestFilter(cfg)
	defer f.Close()
	id := uuid.New()

	require.True(t, f.CanSend(id, "first", base).Allowed)

	// Rapid retries are denied by cooldown but still fill the window.
	v := f.CanSend(id, "retry a", base.Add(100*time.Millisecond))
	assert.Equal(t, ReasonCooldown, v.Reason)
	v = f.CanSend(id, "retry b", base.Add(200*time.Millisecond))
	assert.Equal(t, ReasonCooldown, v.Reason)
	v = f.CanSend(id, "retry c", base.Add(300*time.Millisecond))
	require.False(t, v.Allowed)
	assert.Equal(t, ReasonCooldown, v.Reason)
}

func TestCanSend_BurstDisabled(t *testing.T) {
	f := newTestFilter(Config{SpamWindowSeconds: 0, SpamMaxMessages: 0})
	defer f.Close()
	id := uuid.New()

	for i := 0; i < 20; i++ {
		v := f.CanSend(id, fmt.Sprintf("distinct message body %d", i), base.Add(time.Duration(i)*time.Millisecond))
		require.True(t, v.Allowed)
	}
}

func TestCanSend_RepeatExact(t *testing.T) {
	f := newTestFilter(Config{RepeatMinLength: 4, RepeatSimilarity: 0.9})
	defer f.Close()
	id := uuid.New()

	require.True(t, f.CanSend(id, "gg gg", base).Allowed)

	v := f.CanSend(id, "gg gg", base.Add(time.Second))
	require.False(t, v.Allowed)
	assert.Equal(t, ReasonRepeat, v.Reason)
	assert.Equal(t, "Please do not repeat the same (or similar) message.", v.Text)
}

func TestCanSend_RepeatNearDuplicate(t *testing.T) {
	f := newTestFilter(Config{RepeatMinLength: 4, RepeatSimilarity: 0.9})
	defer f.Close()
	id := uuid.New()

	require.True(t, f.CanSend(id, "everyone come to spawn", base).Allowed)

	// One character off: similarity 22/23 > 0.9
	v := f.CanSend(id, "everyone come to spawns", base.Add(time.Second))
	require.False(t, v.Allowed)
	assert.Equal(t, ReasonRepeat, v.Reason)
}

func TestCanSend_RepeatDifferentMessageAllowed(t *testing.T) {
	f := newTestFilter(Config{RepeatMinLength: 4, RepeatSimilarity: 0.9})
	defer f.Close()
	id := uuid.New()

	require.True(t, f.CanSend(id, "everyone come to spawn", base).Allowed)
	assert.True(t, f.CanSend(id, "who wants to trade diamonds", base.Add(time.Second)).Allowed)
}

func TestCanSend_RepeatColorCodesIgnored(t *testing.T) {
	f := newTestFilter(Config{RepeatMinLength: 4, RepeatSimilarity: 0.9})
	defer f.Close()
	id := uuid.New()

	require.True(t, f.CanSend(id, "&cHello!!", base).Allowed)

	// Normalizes to the same "hello" as the first message.
	v := f.CanSend(id, "Hello  !!", base.Add(time.Second))
	require.False(t, v.Allowed)
	assert.Equal(t, ReasonRepeat, v.Reason)
}

func TestCanSend_RepeatBelowMinLength(t *testing.T) {
	f := newTestFilter(Config{RepeatMinLength: 4, RepeatSimilarity: 0.9})
	defer f.Close()
	id := uuid.New()

	require.True(t, f.CanSend(id, "gg", base).Allowed)
	assert.True(t, f.CanSend(id, "gg", base.Add(time.Second)).Allowed)
}

func TestCanSend_RepeatEmptyNormalizedNeverTriggers(t *testing.T) {
	f := newTestFilter(Config{RepeatMinLength: 0, RepeatSimilarity: 0.9})
	defer f.Close()
	id := uuid.New()

	require.True(t, f.CanSend(id, "!!!", base).Allowed)
	assert.True(t, f.CanSend(id, "???", base.Add(time.Second)).Allowed)
}

func TestCanSend_RepeatDisabled(t *testing.T) {
	f := newTestFilter(Config{RepeatMinLength: 4, RepeatSimilarity: 0})
	defer f.Close()
	id := uuid.New()

	require.True(t, f.CanSend(id, "same exact message", base).Allowed)
	assert.True(t, f.CanSend(id, "same exact message", base.Add(time.Second)).Allowed)
}

func TestCanSend_DenyDoesNotCommitHistory(t *testing.T) {
	f := newTestFilter(Config{CooldownSeconds: 1.0, RepeatMinLength: 4, RepeatSimilarity: 0.9})
	defer f.Close()
	id := uuid.New()

	require.True(t, f.CanSend(id, "original message", base).Allowed)

	// Denied by cooldown; must not update lastMessage.
	denied := f.CanSend(id, "another message", base.Add(500*time.Millisecond))
	require.False(t, denied.Allowed)

	// 1.1s after the original send the cooldown has expired. If the denied
	// send had committed, this would still be inside the cooldown.
	v := f.CanSend(id, "a third different message", base.Add(1100*time.Millisecond))
	assert.True(t, v.Allowed)
}

func TestCanSend_PlayersIndependent(t *testing.T) {
	f := newTestFilter(DefaultConfig())
	defer f.Close()

	a, b := uuid.New(), uuid.New()
	require.True(t, f.CanSend(a, "hello world", base).Allowed)

	// A different player immediately sending the same text is unaffected.
	v := f.CanSend(b, "hello world", base.Add(10*time.Millisecond))
	assert.True(t, v.Allowed)
}

func TestCanSend_ConcurrentSamePlayer(t *testing.T) {
	f := newTestFilter(Config{CooldownSeconds: 1.5})
	defer f.Close()
	id := uuid.New()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v := f.CanSend(id, fmt.Sprintf("concurrent message %d", i), base)
			if v.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	// Only one of the simultaneous sends can win the cooldown.
	assert.Equal(t, 1, allowed)
}

func TestRemove_ClearsHistory(t *testing.T) {
	f := newTestFilter(DefaultConfig())
	defer f.Close()
	id := uuid.New()

	require.True(t, f.CanSend(id, "hello world again", base).Allowed)
	f.Remove(id)

	// With no history the same message inside the cooldown is allowed.
	assert.True(t, f.CanSend(id, "hello world again", base.Add(10*time.Millisecond)).Allowed)
}

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		remaining float64
		want      string
	}{
		{1.0, "1"},
		{0.95, "1"},
		{1.21, "1.3"},
		{0.11, "0.2"},
		{2.0, "2"},
		{0.5, "0.5"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatSeconds(tt.remaining), "remaining=%v", tt.remaining)
	}
}
