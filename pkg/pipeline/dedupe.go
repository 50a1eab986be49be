package pipeline

import (
	"context"

	"github.com/sprachlab/lerngraph/pkg/common"
	"github.com/sprachlab/lerngraph/pkg/logger"
)

func metaToMap(m common.CandidateMeta) map[string]string {
	out := make(map[string]string)
	if m.Gender != "" {
		out["gender"] = m.Gender
	}
	if m.Plural != "" {
		out["plural"] = m.Plural
	}
	if m.POSHint != "" {
		out["pos_hint"] = m.POSHint
	}
	if m.CEFRGuess != "" {
		out["cefr_guess"] = m.CEFRGuess
	}
	return out
}

// mergeMeta combines stored and candidate metadata non-destructively:
// existing keys are never overwritten, empty incoming values are dropped.
func mergeMeta(existing, incoming map[string]string) map[string]string {
	merged := make(map[string]string, len(existing)+len(incoming))
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range incoming {
		if v == "" {
			continue
		}
		if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}
	return merged
}

// bestWindowMatch scores the candidate's canonical form against every
// window member. Highest similarity wins; ties go to the item created
// earliest, so repeated ingests keep converging on the same item.
func bestWindowMatch(canonical string, window []common.Item) (common.Item, float64) {
	normalized := normalizeForMatch(canonical)

	var (
		best    common.Item
		bestSim float64
		found   bool
	)
	for _, item := range window {
		sim := similarity(normalized, normalizeForMatch(item.CanonicalForm))
		switch {
		case sim > bestSim:
			best, bestSim, found = item, sim, true
		case sim == bestSim && found && item.CreatedAt.Before(best.CreatedAt):
			best = item
		}
	}
	return best, bestSim
}

// dedupe resolves each canonicalized candidate against the per-type window
// of recently created items. A failed window read is logged and treated as
// an empty window; the run still completes and reports its stats.
func (p *Pipeline) dedupe(
	ctx context.Context,
	candidates []common.Candidate,
	stats *common.Stats,
) []common.ResolvedCandidate {
	windows := make(map[common.ItemType][]common.Item)
	for _, t := range common.ItemTypes {
		needed := false
		for _, c := range candidates {
			if c.Type == t {
				needed = true
				break
			}
		}
		if !needed {
			continue
		}
		window, err := p.store.RecentItems(ctx, t, p.cfg.DedupeWindow)
		if err != nil {
			logger.Warn("recent-items read failed, deduplicating against empty window",
				"type", t,
				"error", err,
			)
			window = nil
		}
		windows[t] = window
	}

	resolved := make([]common.ResolvedCandidate, 0, len(candidates))
	for _, c := range candidates {
		rc := common.ResolvedCandidate{
			Type:          c.Type,
			SurfaceForm:   c.SurfaceForm,
			CanonicalForm: c.Canonical,
			Gloss:         c.Gloss,
			Evidence:      c.Evidence,
		}

		match, sim := bestWindowMatch(c.Canonical, windows[c.Type])
		if sim >= p.cfg.SimilarityThreshold {
			rc.Resolution = common.ResolvedExisting
			rc.ItemID = match.ID
			rc.Meta = mergeMeta(match.Meta, metaToMap(c.Meta))
			stats.Merged++
		} else {
			// Created is counted by the planner, which collapses
			// same-canonical candidates within the run first.
			rc.Resolution = common.ResolvedNew
			rc.Meta = metaToMap(c.Meta)
		}
		resolved = append(resolved, rc)
	}
	return resolved
}
