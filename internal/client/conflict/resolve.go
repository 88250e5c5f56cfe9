package conflict

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/gistkeeper/internal/client/models"
	"github.com/dmitrijs2005/gistkeeper/internal/common"
)

// Resolver applies a resolution strategy. Its only state is the clock used
// to stamp the resolved dataset.
type Resolver struct {
	now func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock overrides the clock used for LastSync stamps.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{now: time.Now}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve returns a new dataset; neither input is modified.
//
//   - remote: the remote dataset as is
//   - local: the local dataset as is
//   - merge: MergeByIDAndTime per collection, remote metadata
//
// In every case Metadata.LastSync is set to now. Any other strategy fails
// with common.ErrUnknownStrategy.
func (r *Resolver) Resolve(local, remote *models.Dataset, strategy models.Strategy) (*models.Dataset, error) {
	local, remote = orEmpty(local), orEmpty(remote)

	var out *models.Dataset
	switch strategy {
	case models.StrategyRemote:
		out = remote.Clone()
	case models.StrategyLocal:
		out = local.Clone()
	case models.StrategyMerge:
		out = Merge(local, remote)
	default:
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownStrategy, strategy)
	}

	now := r.now().UTC()
	out.Metadata.LastSync = &now
	return out, nil
}

// Merge combines both datasets collection by collection. The result carries
// a copy of the remote metadata.
func Merge(local, remote *models.Dataset) *models.Dataset {
	l, r := orEmpty(local).Clone(), orEmpty(remote).Clone()
	out := &models.Dataset{
		Resources:    MergeByIDAndTime(l.Resources, r.Resources),
		Questions:    MergeByIDAndTime(l.Questions, r.Questions),
		SubQuestions: MergeByIDAndTime(l.SubQuestions, r.SubQuestions),
		Answers:      MergeByIDAndTime(l.Answers, r.Answers),
		Metadata:     r.Metadata,
	}
	return out
}

// MergeByIDAndTime walks local then remote records. The first record seen
// for an id is kept unless a later one wins:
//
//   - both timestamped: the later one wins only if strictly newer
//   - only the later one timestamped: it wins
//   - otherwise the first seen (local) record stays
//
// Ids present on one side only always survive. The output keeps first-seen
// order.
func MergeByIDAndTime[T models.Record](local, remote []T) []T {
	out := make([]T, 0, len(local)+len(remote))
	index := make(map[string]int, len(local)+len(remote))

	for _, list := range [][]T{local, remote} {
		for _, rec := range list {
			i, ok := index[rec.RecordID()]
			if !ok {
				index[rec.RecordID()] = len(out)
				out = append(out, rec)
				continue
			}
			if newer(rec, out[i]) {
				out[i] = rec
			}
		}
	}
	return out
}

func newer(incoming, existing models.Record) bool {
	it, iok := incoming.LastModified()
	et, eok := existing.LastModified()
	switch {
	case iok && eok:
		return it.After(et)
	case iok:
		return true
	}
	return false
}
