// ABOUTME: Signed-message capability adapters for the host chat event API.
// ABOUTME: A pre-authenticated message can be relayed but never blanked.

package relay

import "github.com/h2ph/prism-relay/internal/presence"

// ChatEvent is an outbound chat message as delivered by the host event
// system. Signed reflects whatever signing metadata the host API exposes;
// on API versions without message signing it is always false.
type ChatEvent struct {
	Player  *presence.Player
	Content string
	Signed  bool
}

// Authenticator answers whether a chat message arrived cryptographically
// signed by the client. The concrete adapter is selected once at startup to
// match the host API version in use.
type Authenticator interface {
	MessageIsPreAuthenticated(ev *ChatEvent) bool
}

// SignedAdapter is the adapter for host API versions that expose message
// signing on the chat event.
type SignedAdapter struct{}

func (SignedAdapter) MessageIsPreAuthenticated(ev *ChatEvent) bool {
	return ev != nil && ev.Signed
}

// LegacyAdapter is the adapter for host API versions predating message
// signing; nothing is ever pre-authenticated.
type LegacyAdapter struct{}

func (LegacyAdapter) MessageIsPreAuthenticated(*ChatEvent) bool {
	return false
}
