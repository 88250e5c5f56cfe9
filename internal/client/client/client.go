package client

import (
	"context"

	"github.com/dmitrijs2005/gistkeeper/internal/client/models"
)

// Remote is the transport contract of the shared remote replica: one blob
// holding the whole dataset, optionally accompanied by precomputed
// statistics. Implementations map their own failures onto the sentinel
// errors of this package and never interpret datasets beyond decoding them.
type Remote interface {
	// FetchDataset downloads and validates the full remote dataset.
	FetchDataset(ctx context.Context) (*models.Dataset, error)

	// FetchStatistics returns the remote statistics without transferring
	// the dataset when the remote stores them separately. Implementations
	// fall back to downloading the dataset otherwise.
	FetchStatistics(ctx context.Context) (*models.Statistics, error)

	// PushDataset overwrites the remote dataset (and its statistics).
	PushDataset(ctx context.Context, ds *models.Dataset) error

	// Name identifies the backend in logs, e.g. "gist" or "s3".
	Name() string
}
