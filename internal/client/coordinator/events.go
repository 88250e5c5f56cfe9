package coordinator

import (
	"context"

	"github.com/dmitrijs2005/gistkeeper/internal/client/conflict"
	"github.com/dmitrijs2005/gistkeeper/internal/client/models"
)

type EventType string

const (
	// EventDecision asks the user to pick a strategy; see Coordinator.Decide.
	EventDecision EventType = "decision"
	// EventResult reports a finished attempt, successful or not.
	EventResult EventType = "result"
)

type Event struct {
	Type       EventType
	Comparison models.ComparisonResult
	Conflict   models.ConflictInfo
	// Recommended is set for decisions.
	Recommended models.Strategy
	// Result is set for results.
	Result *models.SyncResult
}

func decisionEvent(d *decision) Event {
	return Event{
		Type:        EventDecision,
		Comparison:  d.comparison,
		Conflict:    d.conflict,
		Recommended: conflict.RecommendedStrategy(d.conflict),
	}
}

func (c *Coordinator) publish(ctx context.Context, e Event) {
	select {
	case c.events <- e:
	default:
		c.log.Warn(ctx, "event dropped, consumer is not keeping up", "type", e.Type)
	}
}
