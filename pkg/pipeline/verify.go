package pipeline

import (
	"strings"

	"github.com/sprachlab/lerngraph/internal/util"
	"github.com/sprachlab/lerngraph/pkg/common"
	"github.com/sprachlab/lerngraph/pkg/logger"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var germanLower = cases.Lower(language.German)

// normalizeForMatch lowercases with German casing rules and collapses
// whitespace. Both sides of every containment and similarity comparison go
// through this.
func normalizeForMatch(s string) string {
	return util.CollapseWhitespace(germanLower.String(s))
}

// verifyCandidate proves the surface form literally occurs in its evidence
// sentence, falling back to the whole text when the evidence sentence does
// not contain it. The check is exact after normalization: its purpose is
// distinguishing "model invented this" from "model copied this", so no
// fuzzy tolerance applies here.
func verifyCandidate(c common.Candidate, src common.SourceText) bool {
	surface := normalizeForMatch(c.SurfaceForm)
	if surface == "" {
		return false
	}
	if strings.Contains(normalizeForMatch(c.Evidence.Sentence), surface) {
		return true
	}
	return strings.Contains(normalizeForMatch(src.Text), surface)
}

// verify is the hallucination gate: candidates whose surface form cannot be
// found in the source are dropped and counted, never escalated.
func (p *Pipeline) verify(
	candidates []common.Candidate,
	src common.SourceText,
	stats *common.Stats,
) []common.Candidate {
	kept := make([]common.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if !verifyCandidate(c, src) {
			stats.RejectedHallucination++
			logger.Debug("rejected hallucinated candidate",
				"surface_form", c.SurfaceForm,
				"sentence_idx", c.Evidence.SentenceIdx,
			)
			continue
		}
		kept = append(kept, c)
	}
	return kept
}
