package resolver

import (
	"fmt"

	"scene-editor/internal/asset"
	"scene-editor/internal/cache"
)

// Aggregate is the single progress figure summarizing many independent
// asset downloads. It is derived state: always recomputed from the
// tracked ids' cache entries, never mutated independently.
type Aggregate struct {
	Active   bool
	Progress int // 0..100
	Error    string
	Tracked  []asset.ID
}

// Settled reports whether every tracked entry reached a terminal state.
func (a Aggregate) Settled() bool { return !a.Active }

// Compute derives an aggregate from cache entries. Progress is the
// integer arithmetic mean of per-asset contributions (cached 100,
// downloading its reported percent, absent/error 0). Active is true
// while any entry has not settled. Error is only reported once
// everything settled: the single failing entry's message, or a count
// when several failed.
func Compute(entries []cache.Entry) Aggregate {
	agg := Aggregate{}
	if len(entries) == 0 {
		agg.Progress = 100
		return agg
	}
	sum := 0
	var failures []cache.Entry
	for _, e := range entries {
		agg.Tracked = append(agg.Tracked, e.ID)
		switch e.Status {
		case cache.StatusCached:
			sum += 100
		case cache.StatusDownloading:
			sum += e.Progress
			agg.Active = true
		case cache.StatusError:
			failures = append(failures, e)
		default: // absent: contributes 0, still pending
			agg.Active = true
		}
	}
	agg.Progress = sum / len(entries)
	if !agg.Active {
		switch len(failures) {
		case 0:
		case 1:
			agg.Error = failures[0].Error
		default:
			agg.Error = fmt.Sprintf("%d assets failed", len(failures))
		}
	}
	return agg
}
