// Package history reads past chat sessions and renders them for the CLI,
// the TUI and as a standalone HTML export. Fetch never fails: a backend
// error yields an empty history.
package history
