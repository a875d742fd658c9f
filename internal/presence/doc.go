// Package presence is the proxy-local view of online players: who is
// connected, which backend server they are on, and how to deliver text to
// them. The host proxy registers and unregisters sessions; the relay reads.
package presence
