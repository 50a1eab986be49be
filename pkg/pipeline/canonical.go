package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/sprachlab/lerngraph/pkg/ai"
	"github.com/sprachlab/lerngraph/pkg/common"
	"github.com/sprachlab/lerngraph/pkg/logger"
)

type lemmaEntry struct {
	Idx   int    `json:"idx" jsonschema_description:"Index of the surface form this lemma belongs to"`
	Lemma string `json:"lemma" jsonschema_description:"Dictionary citation form of the surface form"`
}

type lemmaResponse struct {
	Lemmas []lemmaEntry `json:"lemmas" jsonschema_description:"One lemma per input surface form, same indices"`
}

// plausibleLemma rejects blank or runaway lemmatization results. A lemma
// much longer than its surface form signals a malformed generation, not a
// dictionary form.
func plausibleLemma(lemma, surface string) bool {
	lemma = strings.TrimSpace(lemma)
	if lemma == "" {
		return false
	}
	surfaceWords := len(strings.Fields(surface))
	lemmaWords := len(strings.Fields(lemma))
	return lemmaWords <= surfaceWords*3+2
}

// canonicalize finalizes each candidate's canonical form.
//
// In pass-through mode the model's proposed canonical is kept as given. In
// normalized mode one batched lemmatization call covers all word-type
// candidates; chunks and patterns always pass through since their citation
// form is the chunk itself. Implausible or missing lemmas fall back to
// pass-through for that candidate only, and a failed lemmatization call
// degrades the whole batch to pass-through instead of dropping anything.
func (p *Pipeline) canonicalize(
	ctx context.Context,
	candidates []common.Candidate,
) []common.Candidate {
	if p.cfg.CanonicalMode == CanonicalPassthrough || len(candidates) == 0 {
		return candidates
	}

	wordIdx := make([]int, 0, len(candidates))
	for i, c := range candidates {
		if c.Type == common.ItemTypeWord {
			wordIdx = append(wordIdx, i)
		}
	}
	if len(wordIdx) == 0 {
		return candidates
	}

	var lines strings.Builder
	for n, i := range wordIdx {
		if n > 0 {
			lines.WriteString("\n")
		}
		fmt.Fprintf(&lines, "%d. %s", n, candidates[i].SurfaceForm)
	}
	prompt := fmt.Sprintf(ai.LemmaPromptBatch, lines.String())

	callCtx, cancel := context.WithTimeout(ctx, p.cfg.CallTimeout)
	defer cancel()

	var res lemmaResponse
	err := p.client.GenerateCompletionWithFormat(
		callCtx,
		"lemmatization",
		"Dictionary citation forms for German surface forms.",
		prompt,
		&res,
	)
	if err != nil {
		logger.Warn("lemmatization call failed, keeping proposed canonical forms", "error", err)
		return candidates
	}

	lemmas := make(map[int]string, len(res.Lemmas))
	for _, entry := range res.Lemmas {
		lemmas[entry.Idx] = entry.Lemma
	}

	for n, i := range wordIdx {
		lemma, ok := lemmas[n]
		if !ok || !plausibleLemma(lemma, candidates[i].SurfaceForm) {
			continue
		}
		candidates[i].Canonical = strings.TrimSpace(lemma)
	}

	return candidates
}
