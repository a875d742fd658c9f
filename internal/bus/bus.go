// ABOUTME: Relay bus abstraction connecting independent proxy instances.
// ABOUTME: Topic-addressed publish/subscribe, at-most-once, best-effort delivery.

package bus

import "context"

// Topics shared by all proxy instances.
const (
	// TopicTeamChat carries team-scoped chat messages between instances.
	TopicTeamChat = "prism:team_chat"

	// TopicPlayerUpdate carries player IDs whose cached team state must be
	// reloaded (team changes made on a backend server).
	TopicPlayerUpdate = "prism:player_update"
)

// Bus is the shared channel between proxy instances. Delivery is
// at-most-once and unordered across publishers; a publish failure must never
// fail the caller's chat path, so callers log the returned error and move on.
//
// Subscribe spawns a dedicated listener bound to the process lifetime.
// Handlers for the same topic are invoked serially; listeners for different
// topics run independently.
type Bus interface {
	Publish(ctx context.Context, topic, payload string) error
	Subscribe(topic string, handler func(payload string))
	Close() error
}
