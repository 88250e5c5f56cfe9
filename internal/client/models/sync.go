package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gistkeeper/internal/common"
)

// Statistics is a cheap projection of a dataset: one count per collection
// plus the dataset's last-modified (last-sync) timestamp.
type Statistics struct {
	Resources    int        `json:"resources"`
	Questions    int        `json:"questions"`
	SubQuestions int        `json:"subQuestions"`
	Answers      int        `json:"answers"`
	LastModified *time.Time `json:"lastModified,omitempty"`
}

// Count returns the count for kind.
func (s Statistics) Count(kind Kind) int {
	switch kind {
	case KindResources:
		return s.Resources
	case KindQuestions:
		return s.Questions
	case KindSubQuestions:
		return s.SubQuestions
	case KindAnswers:
		return s.Answers
	}
	return 0
}

// SameCounts reports whether every collection count matches.
func (s Statistics) SameCounts(o Statistics) bool {
	return s.Resources == o.Resources &&
		s.Questions == o.Questions &&
		s.SubQuestions == o.SubQuestions &&
		s.Answers == o.Answers
}

// Delta holds remote minus local counts per collection.
type Delta struct {
	Resources    int `json:"resources"`
	Questions    int `json:"questions"`
	SubQuestions int `json:"subQuestions"`
	Answers      int `json:"answers"`
}

// Get returns the delta for kind.
func (d Delta) Get(kind Kind) int {
	switch kind {
	case KindResources:
		return d.Resources
	case KindQuestions:
		return d.Questions
	case KindSubQuestions:
		return d.SubQuestions
	case KindAnswers:
		return d.Answers
	}
	return 0
}

// Recommendation is the comparator's advisory action.
type Recommendation string

const (
	RecommendPull  Recommendation = "pull"
	RecommendPush  Recommendation = "push"
	RecommendMerge Recommendation = "merge"
	RecommendSkip  Recommendation = "skip"
)

// Strategy is the resolution applied to a detected divergence.
type Strategy string

const (
	StrategyLocal  Strategy = "local"
	StrategyRemote Strategy = "remote"
	StrategyMerge  Strategy = "merge"
)

// ParseStrategy maps user input onto a Strategy. Pull and push are accepted
// as synonyms for remote and local.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "local", "push":
		return StrategyLocal, nil
	case "remote", "pull":
		return StrategyRemote, nil
	case "merge":
		return StrategyMerge, nil
	}
	return "", fmt.Errorf("%w: %q", common.ErrUnknownStrategy, s)
}

// ComparisonResult is derived from two Statistics snapshots.
type ComparisonResult struct {
	HasChanges     bool           `json:"hasChanges"`
	Local          Statistics     `json:"local"`
	Remote         Statistics     `json:"remote"`
	Delta          Delta          `json:"delta"`
	Recommendation Recommendation `json:"recommendation"`
}

// Operation tags a pending change.
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Valid reports whether op is create, update or delete.
func (op Operation) Valid() bool {
	return op == OpCreate || op == OpUpdate || op == OpDelete
}

// PendingChange is one entry of the change ledger: the intent of a local
// mutation that the remote has not confirmed yet.
type PendingChange struct {
	ID        string          `json:"id"`
	Operation Operation       `json:"operation"`
	Kind      Kind            `json:"kind"`
	RecordID  string          `json:"recordId"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// ConflictItem is a record changed locally whose remote copy differs.
type ConflictItem struct {
	Kind   Kind
	ID     string
	Local  Record
	Remote Record
}

// ConflictInfo is recomputed on demand and never persisted.
type ConflictInfo struct {
	HasConflict      bool
	LocalChangeCount int
	RemoteHasChanges bool
	Items            []ConflictItem
}

// KindCounts tallies what a sync did to one collection.
type KindCounts struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`
}

// SyncResult reports the outcome of one sync attempt.
type SyncResult struct {
	Success bool
	// Action is the recommendation or strategy that was applied, or "skip".
	Action string
	Counts map[Kind]KindCounts
	Err    error
	// Authoritative names the side ("local" or "remote") that the next
	// attempt should treat as the source of truth.
	Authoritative string
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Total sums added, updated and deleted across all kinds.
func (r *SyncResult) Total() KindCounts {
	var t KindCounts
	for _, c := range r.Counts {
		t.Added += c.Added
		t.Updated += c.Updated
		t.Deleted += c.Deleted
	}
	return t
}
