package conflict

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gistkeeper/internal/client/models"
)

// RecommendedStrategy suggests merge for a true conflict, local when only
// local changes exist and remote otherwise.
func RecommendedStrategy(info models.ConflictInfo) models.Strategy {
	switch {
	case info.HasConflict:
		return models.StrategyMerge
	case info.LocalChangeCount > 0 && !info.RemoteHasChanges:
		return models.StrategyLocal
	}
	return models.StrategyRemote
}

func ConflictDescription(info models.ConflictInfo) string {
	if !info.HasConflict {
		switch {
		case info.LocalChangeCount > 0:
			return fmt.Sprintf("No conflict: %d local change(s) to upload.", info.LocalChangeCount)
		case info.RemoteHasChanges:
			return "No conflict: the remote has newer data."
		}
		return "No conflict: both sides are in sync."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Both sides changed: %d local change(s) pending and the remote was updated.", info.LocalChangeCount)
	if len(info.Items) == 0 {
		b.WriteString(" No record was edited on both sides.")
		return b.String()
	}
	fmt.Fprintf(&b, " %d record(s) differ:", len(info.Items))
	for _, it := range info.Items {
		fmt.Fprintf(&b, "\n  - %s %s", it.Kind, it.ID)
	}
	return b.String()
}

func StrategyDescription(s models.Strategy) string {
	switch s {
	case models.StrategyRemote:
		return "Use remote: replace local data with the remote copy and drop pending local changes."
	case models.StrategyLocal:
		return "Use local: overwrite the remote copy with local data."
	case models.StrategyMerge:
		return "Merge: keep records from both sides; the newer version wins where both have one."
	}
	return fmt.Sprintf("Unknown strategy %q.", s)
}
