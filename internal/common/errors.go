// Package common defines shared constants and sentinel errors used across
// the gistkeeper client layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Validation errors: a dataset that is structurally incomplete must never
	// be used as a comparison input.
	ErrInvalidDataset = errors.New("invalid dataset")
	ErrInvalidKind    = errors.New("invalid record kind")
	ErrMissingPayload = errors.New("pending change has no payload")
	ErrInvalidRecord  = errors.New("invalid record")

	// Programming errors. Never retried.
	ErrUnknownStrategy  = errors.New("unknown resolution strategy")
	ErrUnknownOperation = errors.New("unknown change operation")

	// Coordinator flow control.
	ErrSyncInProgress  = errors.New("sync already in progress")
	ErrDecisionPending = errors.New("a sync decision is awaiting user input")
	ErrNoPendingChoice = errors.New("no sync decision is pending")
	ErrTooFrequent     = errors.New("sync requested too frequently")
	ErrSyncDisabled    = errors.New("remote sync is not configured")
	ErrLedgerChanged   = errors.New("local changes were recorded during sync")
)
