// Package client contains client-side building blocks shared by the sync
// subsystem.
//
// # Overview
//
// The package provides:
//  1. The transport contract of the remote replica (see the Remote
//     interface). Concrete transports live under internal/client/remote.
//  2. Transport sentinel errors (ErrNotFound, ErrUnauthorized,
//     ErrUnavailable, ErrRateLimited) and IsRetryable, which the sync
//     coordinator uses to decide whether to back off and retry.
//  3. Local persistence bootstrap utilities (InitDatabase, RunMigrations,
//     NewRepositories), wiring an SQLite database and applying embedded
//     goose migrations.
//
// Concurrency & Contexts
//
// Remote implementations must be safe for concurrent use. All operations
// accept context.Context and must honor cancellation/timeouts.
package client
