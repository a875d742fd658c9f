// Package playercache caches team membership for online players so that
// classifying a chat message never costs a database round-trip.
package playercache
