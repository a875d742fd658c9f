// Package directory maintains the shared Redis view of which players are
// online where, keyed by the prism:player:* namespace.
package directory
