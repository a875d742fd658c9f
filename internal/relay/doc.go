// Package relay is the cross-instance chat core: it filters outbound
// messages, classifies them as global or team scope, fans them out to local
// players and exchanges team chat with other proxy instances over the relay
// bus, deduplicating by origin instance.
package relay
