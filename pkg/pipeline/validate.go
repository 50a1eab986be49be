package pipeline

import (
	"strings"
	"unicode"

	"github.com/sprachlab/lerngraph/pkg/common"
)

// Closed-class German tokens that carry no learning value on their own:
// coordinating connectors, bare articles, bare pronouns.
var lowValueDeny = map[string]bool{
	// connectors
	"und": true, "oder": true, "aber": true, "denn": true,
	"sondern": true, "doch": true, "sowie": true,
	// articles
	"der": true, "die": true, "das": true,
	"ein": true, "eine": true, "einen": true, "einem": true,
	"einer": true, "eines": true,
	"dem": true, "den": true, "des": true,
	// pronouns
	"ich": true, "du": true, "er": true, "sie": true, "es": true,
	"wir": true, "ihr": true, "man": true,
	"mich": true, "dich": true, "sich": true, "uns": true, "euch": true,
	"mir": true, "dir": true, "ihm": true, "ihn": true, "ihnen": true,
	"wer": true, "wen": true, "wem": true, "was": true,
}

// Known place and person names the extraction models keep proposing.
// Bounded heuristic list, not a gazetteer.
var properNounDeny = map[string]bool{
	"berlin": true, "hamburg": true, "münchen": true, "köln": true,
	"frankfurt": true, "stuttgart": true, "leipzig": true, "dresden": true,
	"wien": true, "zürich": true, "bern": true, "salzburg": true,
	"deutschland": true, "österreich": true, "schweiz": true,
	"europa": true, "amerika": true, "frankreich": true, "italien": true,
	"anna": true, "hans": true, "peter": true, "maria": true,
	"thomas": true, "julia": true, "max": true, "lena": true,
	"michael": true, "laura": true, "felix": true, "sophie": true,
	"müller": true, "schmidt": true, "schneider": true, "weber": true,
}

type validationOutcome int

const (
	candidateValid validationOutcome = iota
	candidateBlank
	candidateLowValue
	candidateProperNoun
)

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// looksLikeProperNoun flags single capitalized words with no common-noun
// metadata that do not open their evidence sentence. German capitalizes
// every noun, so sentence position and the gender annotation are the only
// cheap signals separating "Anna" from "Antwort".
func looksLikeProperNoun(c common.Candidate) bool {
	surface := strings.TrimSpace(c.SurfaceForm)
	if surface == "" || strings.ContainsRune(surface, ' ') {
		return false
	}

	first := []rune(surface)[0]
	if !unicode.IsUpper(first) {
		return false
	}
	if c.Meta.Gender != "" || c.Meta.Plural != "" {
		return false
	}
	if strings.HasPrefix(strings.TrimSpace(c.Evidence.Sentence), surface) {
		return false
	}
	return true
}

func validateCandidate(c common.Candidate) validationOutcome {
	if isBlank(c.SurfaceForm) || isBlank(c.Canonical) {
		return candidateBlank
	}

	key := strings.ToLower(strings.TrimSpace(c.SurfaceForm))
	if lowValueDeny[key] {
		return candidateLowValue
	}
	if properNounDeny[key] {
		return candidateProperNoun
	}
	if looksLikeProperNoun(c) {
		return candidateProperNoun
	}
	return candidateValid
}

// validate applies the cheap deterministic filters before any expensive
// stage runs. It never fails; rejected candidates are dropped and counted.
func (p *Pipeline) validate(candidates []common.Candidate, stats *common.Stats) []common.Candidate {
	kept := make([]common.Candidate, 0, len(candidates))
	for _, c := range candidates {
		switch validateCandidate(c) {
		case candidateBlank:
			stats.RejectedBlank++
		case candidateLowValue, candidateProperNoun:
			stats.RejectedLowValue++
		default:
			kept = append(kept, c)
		}
	}
	return kept
}
