// Package config handles configuration loading for prism-relay.
//
// Configuration is loaded from YAML files with environment variable
// expansion. Missing or invalid chat-filter thresholds fall back to the
// documented defaults and are never fatal.
//
// # Configuration Sections
//
// Health/status endpoint:
//
//	server:
//	  http_addr: "127.0.0.1:8195"
//
// Database:
//
//	database:
//	  path: "/var/lib/prism/relay.db"
//
// Shared Redis (relay bus and session directory):
//
//	redis:
//	  addr: "localhost:6379"
//	  username: ""
//	  password: "${PRISM_REDIS_PASSWORD}"
//
// Chat filter thresholds (zero disables a check):
//
//	chat:
//	  cooldown-seconds: 1.5
//	  spam-window-seconds: 3.0
//	  spam-max-messages: 4
//	  repeat-min-length: 4
//	  repeat-similarity: 0.9
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
package config
