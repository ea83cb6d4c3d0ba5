// Package credential persists the session's opaque bearer token.
//
// # Overview
//
// The token lives in a single process-wide slot that survives restarts, the
// terminal equivalent of a browser's localStorage entry. Exactly one component
// (the session manager) holds a Store and may write it; every other consumer,
// such as the outbound request layer, is handed a Reader.
//
// # Drivers
//
//   - file:   one file, mode 0600 (default: ~/.config/legisbot/token)
//   - sqlite: single-row key/value table via modernc.org/sqlite
//   - redis:  one key via go-redis, shared across machines
//   - memory: ephemeral, for tests
//
// An absent token is not an error: Load returns "" and nil.
package credential
