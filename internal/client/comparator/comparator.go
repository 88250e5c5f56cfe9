// Package comparator derives a sync recommendation from two statistics
// snapshots. Every function here is pure: nothing performs I/O and no input
// is mutated.
package comparator

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gistkeeper/internal/client/models"
)

// Statistics projects a dataset onto its per-collection counts and carries
// over the dataset's last-sync timestamp.
func Statistics(ds *models.Dataset) models.Statistics {
	if ds == nil {
		return models.Statistics{}
	}
	s := models.Statistics{
		Resources:    len(ds.Resources),
		Questions:    len(ds.Questions),
		SubQuestions: len(ds.SubQuestions),
		Answers:      len(ds.Answers),
	}
	if ds.Metadata.LastSync != nil {
		ls := *ds.Metadata.LastSync
		s.LastModified = &ls
	}
	return s
}

// Compare computes remote minus local per collection and the resulting
// recommendation.
func Compare(local, remote models.Statistics) models.ComparisonResult {
	d := models.Delta{
		Resources:    remote.Resources - local.Resources,
		Questions:    remote.Questions - local.Questions,
		SubQuestions: remote.SubQuestions - local.SubQuestions,
		Answers:      remote.Answers - local.Answers,
	}
	rec := Recommend(d)
	return models.ComparisonResult{
		HasChanges:     rec != models.RecommendSkip,
		Local:          local,
		Remote:         remote,
		Delta:          d,
		Recommendation: rec,
	}
}

// Recommend maps a delta onto pull, push, merge or skip. The result depends
// only on the signs of the four components.
func Recommend(d models.Delta) models.Recommendation {
	var remoteAhead, localAhead int
	for _, k := range models.AllKinds {
		switch v := d.Get(k); {
		case v > 0:
			remoteAhead++
		case v < 0:
			localAhead++
		}
	}

	switch {
	case remoteAhead == 0 && localAhead == 0:
		return models.RecommendSkip
	case remoteAhead > 0 && localAhead == 0:
		return models.RecommendPull
	case localAhead > 0 && remoteAhead == 0:
		return models.RecommendPush
	case remoteAhead > 0 && localAhead > 0:
		return models.RecommendMerge
	}
	return models.RecommendPull
}

// ShouldSync reports whether a sync attempt is warranted: the counts differ,
// the replica has never synced, or the remote moved after the last sync.
func ShouldSync(localLastSync, remoteLastModified *time.Time, result models.ComparisonResult) bool {
	if result.HasChanges || localLastSync == nil {
		return true
	}
	return remoteLastModified != nil && remoteLastModified.After(*localLastSync)
}

// CompletenessScore awards 25 points per non-empty collection. It is a UI
// hint only.
func CompletenessScore(s models.Statistics) int {
	score := 0
	for _, k := range models.AllKinds {
		if s.Count(k) > 0 {
			score += 25
		}
	}
	return score
}

// Summary renders a comparison result for people.
func Summary(r models.ComparisonResult) string {
	if !r.HasChanges {
		return "Local and remote data match."
	}

	var parts []string
	for _, k := range models.AllKinds {
		v := r.Delta.Get(k)
		switch {
		case v > 0:
			parts = append(parts, fmt.Sprintf("%s: remote has %d more", k, v))
		case v < 0:
			parts = append(parts, fmt.Sprintf("%s: local has %d more", k, -v))
		}
	}

	var action string
	switch r.Recommendation {
	case models.RecommendPull:
		action = "download remote changes"
	case models.RecommendPush:
		action = "upload local changes"
	case models.RecommendMerge:
		action = "merge both sides"
	default:
		action = "nothing to do"
	}

	return fmt.Sprintf("%s. Recommended: %s.", strings.Join(parts, "; "), action)
}
