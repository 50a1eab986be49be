package pipeline

import (
	"testing"

	"github.com/sprachlab/lerngraph/pkg/common"
)

func wordCandidate(surface, canonical string) common.Candidate {
	return common.Candidate{
		Type:        common.ItemTypeWord,
		SurfaceForm: surface,
		Canonical:   canonical,
		Evidence: common.Evidence{
			SentenceIdx: 0,
			Sentence:    "Gestern traf ich " + surface + " in der Stadt.",
		},
	}
}

func TestValidateCandidate(t *testing.T) {
	tests := []struct {
		name      string
		candidate common.Candidate
		want      validationOutcome
	}{
		{
			name:      "blank surface form",
			candidate: wordCandidate("   ", "warten"),
			want:      candidateBlank,
		},
		{
			name:      "blank canonical",
			candidate: wordCandidate("wartete", " \t"),
			want:      candidateBlank,
		},
		{
			name:      "connector is low value",
			candidate: wordCandidate("und", "und"),
			want:      candidateLowValue,
		},
		{
			name:      "article is low value",
			candidate: wordCandidate("die", "die"),
			want:      candidateLowValue,
		},
		{
			name:      "pronoun is low value",
			candidate: wordCandidate("sich", "sich"),
			want:      candidateLowValue,
		},
		{
			name:      "known city is a proper noun",
			candidate: wordCandidate("Berlin", "Berlin"),
			want:      candidateProperNoun,
		},
		{
			name:      "known first name is a proper noun",
			candidate: wordCandidate("Anna", "Anna"),
			want:      candidateProperNoun,
		},
		{
			name:      "capitalized word without noun metadata mid-sentence",
			candidate: wordCandidate("Bertelsmann", "Bertelsmann"),
			want:      candidateProperNoun,
		},
		{
			name: "capitalized noun with gender metadata survives",
			candidate: func() common.Candidate {
				c := wordCandidate("Entscheidung", "Entscheidung")
				c.Meta.Gender = "die"
				return c
			}(),
			want: candidateValid,
		},
		{
			name: "sentence-initial capitalized word survives the heuristic",
			candidate: common.Candidate{
				Type:        common.ItemTypeWord,
				SurfaceForm: "Warten",
				Canonical:   "warten",
				Evidence: common.Evidence{
					Sentence: "Warten gehört zum Alltag.",
				},
			},
			want: candidateValid,
		},
		{
			name: "lowercase verb survives",
			candidate: common.Candidate{
				Type:        common.ItemTypeWord,
				SurfaceForm: "wartete",
				Canonical:   "warten",
				Evidence: common.Evidence{
					Sentence: "Ich wartete auf den Bus.",
				},
			},
			want: candidateValid,
		},
		{
			name: "multi-word chunk is never flagged as a proper noun",
			candidate: common.Candidate{
				Type:        common.ItemTypeChunk,
				SurfaceForm: "Eine Entscheidung treffen",
				Canonical:   "eine Entscheidung treffen",
				Evidence: common.Evidence{
					Sentence: "Er musste Eine Entscheidung treffen.",
				},
			},
			want: candidateValid,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := validateCandidate(tc.candidate); got != tc.want {
				t.Fatalf("validateCandidate() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestValidate_Counts(t *testing.T) {
	p := &Pipeline{cfg: DefaultConfig()}
	stats := common.Stats{}

	candidates := []common.Candidate{
		wordCandidate("", ""),
		wordCandidate("und", "und"),
		wordCandidate("Berlin", "Berlin"),
		{
			Type:        common.ItemTypeChunk,
			SurfaceForm: "warten auf",
			Canonical:   "warten auf",
			Evidence:    common.Evidence{Sentence: "Ich warte auf den Bus."},
		},
	}

	kept := p.validate(candidates, &stats)
	if len(kept) != 1 || kept[0].SurfaceForm != "warten auf" {
		t.Fatalf("expected only the chunk to survive, got %#v", kept)
	}
	if stats.RejectedBlank != 1 {
		t.Errorf("RejectedBlank = %d, want 1", stats.RejectedBlank)
	}
	if stats.RejectedLowValue != 2 {
		t.Errorf("RejectedLowValue = %d, want 2", stats.RejectedLowValue)
	}
}
