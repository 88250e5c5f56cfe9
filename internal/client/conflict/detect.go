// Package conflict decides whether a local and a remote replica diverged on
// both sides and resolves the divergence with a user-chosen strategy.
//
// Resolution works at whole-record granularity. The merge strategy is a
// union merge keyed by record id with last-write-wins on UpdatedAt; it has no
// notion of deletion, so a record removed on one side comes back if the
// other side still holds it.
package conflict

import (
	"github.com/dmitrijs2005/gistkeeper/internal/client/comparator"
	"github.com/dmitrijs2005/gistkeeper/internal/client/models"
	"github.com/google/go-cmp/cmp"
)

// DetectConflict reports whether both replicas moved since the last
// confirmed sync. Local movement is a non-empty ledger; remote movement is
// differing counts or a remote last-sync strictly later than the local one.
// Items are only enumerated for a real conflict.
func DetectConflict(local, remote *models.Dataset, pending []*models.PendingChange) models.ConflictInfo {
	local, remote = orEmpty(local), orEmpty(remote)
	info := models.ConflictInfo{
		LocalChangeCount: len(pending),
		RemoteHasChanges: RemoteHasChanges(local, remote),
	}
	info.HasConflict = info.LocalChangeCount > 0 && info.RemoteHasChanges
	if !info.HasConflict {
		return info
	}

	type key struct {
		kind models.Kind
		id   string
	}
	seen := make(map[key]struct{}, len(pending))

	for _, c := range pending {
		k := key{c.Kind, c.RecordID}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}

		l, lok := local.Find(c.Kind, c.RecordID)
		r, rok := remote.Find(c.Kind, c.RecordID)
		if !lok || !rok || !ItemsAreDifferent(l, r) {
			continue
		}
		info.Items = append(info.Items, models.ConflictItem{
			Kind:   c.Kind,
			ID:     c.RecordID,
			Local:  l,
			Remote: r,
		})
	}
	return info
}

// RemoteHasChanges is the remote half of DetectConflict. A remote that
// carries a last-sync time while the local replica has none counts as
// changed.
func RemoteHasChanges(local, remote *models.Dataset) bool {
	ls, rs := comparator.Statistics(local), comparator.Statistics(remote)
	if !ls.SameCounts(rs) {
		return true
	}
	switch {
	case rs.LastModified == nil:
		return false
	case ls.LastModified == nil:
		return true
	}
	return rs.LastModified.After(*ls.LastModified)
}

// ItemsAreDifferent compares two versions of a record. When both carry an
// UpdatedAt the timestamps decide; otherwise the full values are compared.
func ItemsAreDifferent(a, b models.Record) bool {
	at, aok := a.LastModified()
	bt, bok := b.LastModified()
	if aok && bok {
		return !at.Equal(bt)
	}
	return !cmp.Equal(a, b)
}

func orEmpty(ds *models.Dataset) *models.Dataset {
	if ds == nil {
		return models.NewDataset()
	}
	return ds
}
