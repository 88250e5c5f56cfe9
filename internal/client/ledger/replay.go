package ledger

import (
	"fmt"

	"github.com/dmitrijs2005/gistkeeper/internal/client/models"
	"github.com/dmitrijs2005/gistkeeper/internal/common"
)

// Replay applies pending changes in order to a copy of base. Creates and
// updates upsert their payload, deletes remove the id if present. base is
// not modified.
func Replay(base *models.Dataset, pending []*models.PendingChange) (*models.Dataset, error) {
	out := base.Clone()
	if out == nil {
		out = models.NewDataset()
	}

	for _, c := range pending {
		switch c.Operation {
		case models.OpCreate, models.OpUpdate:
			if len(c.Payload) == 0 {
				return nil, fmt.Errorf("%w: change %s", common.ErrMissingPayload, c.ID)
			}
			rec, err := models.DecodeRecord(c.Kind, c.Payload)
			if err != nil {
				return nil, fmt.Errorf("change %s: %w", c.ID, err)
			}
			if err := out.Put(rec); err != nil {
				return nil, err
			}
		case models.OpDelete:
			out.Remove(c.Kind, c.RecordID)
		default:
			return nil, fmt.Errorf("%w: %q", common.ErrUnknownOperation, c.Operation)
		}
	}
	return out, nil
}

// DeletedIDs returns, per kind, the ids whose last pending change is a
// delete. A record deleted and then re-created is not included.
func DeletedIDs(pending []*models.PendingChange) map[models.Kind]map[string]struct{} {
	out := make(map[models.Kind]map[string]struct{})
	for _, c := range pending {
		ids := out[c.Kind]
		if ids == nil {
			ids = make(map[string]struct{})
			out[c.Kind] = ids
		}
		if c.Operation == models.OpDelete {
			ids[c.RecordID] = struct{}{}
		} else {
			delete(ids, c.RecordID)
		}
	}
	for k, ids := range out {
		if len(ids) == 0 {
			delete(out, k)
		}
	}
	return out
}
