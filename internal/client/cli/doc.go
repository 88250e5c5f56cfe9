// Package cli provides the interactive gistkeeper command-line client.
//
// It wires configuration, the local SQLite store, the knowledge service and,
// when a remote is configured, the sync coordinator. The REPL lets the user
// add, list, show, edit and delete records, and drives synchronization:
// manual sync, resolving a pending decision, and managing the encrypted
// access token.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// Sync events (decisions and results) are printed as they arrive.
package cli
