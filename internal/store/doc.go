// Package store persists player and team data behind the Store interface.
//
// The proxy core treats the store as a collaborator: the player cache reads
// the three team lookups, the relay records connect/disconnect sessions, and
// everything else (team creation, membership changes) is written by backend
// servers or the admin CLI. The SQLite implementation auto-creates its
// schema on open.
package store
