package comparator

import (
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/gistkeeper/internal/client/models"
	"github.com/mitchellh/hashstructure/v2"
)

// Equality selects how IsIdentical decides that two datasets are the same.
type Equality string

const (
	// EqualityCount compares collection sizes only. It is cheap and misses
	// edits that keep the counts unchanged.
	EqualityCount Equality = "count"
	// EqualityHash compares an order-independent content hash per collection.
	EqualityHash Equality = "hash"
)

// ParseEquality accepts "count", "hash" or the empty string (count).
func ParseEquality(s string) (Equality, error) {
	switch Equality(s) {
	case "", EqualityCount:
		return EqualityCount, nil
	case EqualityHash:
		return EqualityHash, nil
	}
	return "", fmt.Errorf("unknown equality mode %q", s)
}

// Comparator bundles the configurable parts of dataset comparison.
type Comparator struct {
	Mode Equality
}

// New returns a comparator using mode.
func New(mode Equality) *Comparator {
	return &Comparator{Mode: mode}
}

// IsIdentical reports whether local and remote hold the same data under the
// configured equality mode. Metadata is ignored in both modes.
func (c *Comparator) IsIdentical(local, remote *models.Dataset) bool {
	if c == nil || c.Mode != EqualityHash {
		return IsIdentical(local, remote)
	}

	lh, err := ContentHash(local)
	if err != nil {
		return false
	}
	rh, err := ContentHash(remote)
	if err != nil {
		return false
	}
	return lh.Equal(rh)
}

// IsIdentical is the count-only equality.
func IsIdentical(local, remote *models.Dataset) bool {
	return Statistics(local).SameCounts(Statistics(remote))
}

// ContentHashes is one hash per collection.
type ContentHashes map[models.Kind]uint64

// ContentHash hashes every collection of ds independently of record order.
// Records are hashed through their JSON form so timestamps compare by
// instant as written on the wire.
func ContentHash(ds *models.Dataset) (ContentHashes, error) {
	if ds == nil {
		ds = models.NewDataset()
	}
	out := make(ContentHashes, len(models.AllKinds))
	opts := &hashstructure.HashOptions{SlicesAsSets: true}

	for _, k := range models.AllKinds {
		recs := ds.Records(k)
		docs := make([]string, 0, len(recs))
		for _, r := range recs {
			b, err := json.Marshal(r)
			if err != nil {
				return nil, fmt.Errorf("encode %s %s: %w", k, r.RecordID(), err)
			}
			docs = append(docs, string(b))
		}
		h, err := hashstructure.Hash(docs, hashstructure.FormatV2, opts)
		if err != nil {
			return nil, fmt.Errorf("hash %s: %w", k, err)
		}
		out[k] = h
	}
	return out, nil
}

// Equal reports whether every collection hash matches.
func (h ContentHashes) Equal(o ContentHashes) bool {
	if len(h) != len(o) {
		return false
	}
	for k, v := range h {
		if o[k] != v {
			return false
		}
	}
	return true
}
