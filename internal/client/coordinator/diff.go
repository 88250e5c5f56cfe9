package coordinator

import (
	"github.com/dmitrijs2005/gistkeeper/internal/client/conflict"
	"github.com/dmitrijs2005/gistkeeper/internal/client/models"
)

// diffCounts tallies, per kind, what turning before into after adds,
// changes and removes.
func diffCounts(before, after *models.Dataset) map[models.Kind]models.KindCounts {
	out := make(map[models.Kind]models.KindCounts, len(models.AllKinds))
	for _, k := range models.AllKinds {
		prev := make(map[string]models.Record, before.Count(k))
		for _, r := range before.Records(k) {
			prev[r.RecordID()] = r
		}

		var kc models.KindCounts
		for _, r := range after.Records(k) {
			old, ok := prev[r.RecordID()]
			switch {
			case !ok:
				kc.Added++
			case conflict.ItemsAreDifferent(old, r):
				kc.Updated++
			}
			delete(prev, r.RecordID())
		}
		kc.Deleted = len(prev)
		out[k] = kc
	}
	return out
}
