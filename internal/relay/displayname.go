// ABOUTME: Display-name resolution composing an external cosmetic prefix.
// ABOUTME: Prefix lookup failures always fall back to the bare username.

package relay

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/h2ph/prism-relay/internal/presence"
)

// PrefixProvider resolves a player's cosmetic chat prefix (rank decorations
// and the like) from an external source.
type PrefixProvider interface {
	Prefix(ctx context.Context, id uuid.UUID) (string, error)
}

// NopPrefix is the provider used when no cosmetic system is wired in.
type NopPrefix struct{}

func (NopPrefix) Prefix(context.Context, uuid.UUID) (string, error) {
	return "", nil
}

var hexColorRe = regexp.MustCompile(`(?i)&?#[0-9a-f]{6}`)

// displayName resolves the name shown for a player in relayed chat:
// normalized prefix plus username, or the bare username when the prefix is
// empty or the lookup fails.
func (r *Router) displayName(ctx context.Context, p *presence.Player) string {
	prefix, err := r.prefix.Prefix(ctx, p.ID)
	if err != nil || strings.TrimSpace(prefix) == "" {
		return p.Name
	}

	normalized := normalizeLegacyPrefix(prefix)
	if strings.TrimSpace(normalized) == "" {
		return p.Name
	}

	spacer := " "
	if strings.HasSuffix(normalized, " ") {
		spacer = ""
	}
	return normalized + spacer + p.Name
}

// normalizeLegacyPrefix maps section-sign codes to ampersand form and
// ensures hex colors carry the ampersand marker.
func normalizeLegacyPrefix(input string) string {
	normalized := strings.ReplaceAll(input, "§", "&")
	return hexColorRe.ReplaceAllStringFunc(normalized, func(match string) string {
		if strings.HasPrefix(match, "&") {
			return match
		}
		return "&" + match
	})
}
