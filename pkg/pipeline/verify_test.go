package pipeline

import (
	"testing"

	"github.com/sprachlab/lerngraph/pkg/common"
)

func TestNormalizeForMatch(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "lowercases", input: "Warten Auf", want: "warten auf"},
		{name: "collapses whitespace", input: "  warten \t auf\n", want: "warten auf"},
		{name: "german sharp s and umlauts", input: "GRÜSSE", want: "grüsse"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := normalizeForMatch(tc.input); got != tc.want {
				t.Fatalf("normalizeForMatch(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestVerifyCandidate(t *testing.T) {
	src := BuildSourceText("Ich warte auf den Bus. Die Katze schläft tief.")

	tests := []struct {
		name      string
		candidate common.Candidate
		want      bool
	}{
		{
			name: "hallucinated word is rejected",
			candidate: common.Candidate{
				Type:        common.ItemTypeWord,
				SurfaceForm: "Hund",
				Canonical:   "Hund",
				Evidence:    common.Evidence{SentenceIdx: 0, Sentence: src.Sentences[0].Text},
			},
			want: false,
		},
		{
			name: "copied chunk passes",
			candidate: common.Candidate{
				Type:        common.ItemTypeChunk,
				SurfaceForm: "warte auf",
				Canonical:   "warten auf",
				Evidence:    common.Evidence{SentenceIdx: 0, Sentence: src.Sentences[0].Text},
			},
			want: true,
		},
		{
			name: "case and spacing differences are normalized away",
			candidate: common.Candidate{
				Type:        common.ItemTypeWord,
				SurfaceForm: "KATZE",
				Canonical:   "Katze",
				Evidence:    common.Evidence{SentenceIdx: 1, Sentence: src.Sentences[1].Text},
			},
			want: true,
		},
		{
			name: "wrong evidence sentence falls back to whole text",
			candidate: common.Candidate{
				Type:        common.ItemTypeWord,
				SurfaceForm: "schläft",
				Canonical:   "schlafen",
				Evidence:    common.Evidence{SentenceIdx: 0, Sentence: src.Sentences[0].Text},
			},
			want: true,
		},
		{
			name: "empty surface form is rejected",
			candidate: common.Candidate{
				Type:        common.ItemTypeWord,
				SurfaceForm: "  ",
				Evidence:    common.Evidence{SentenceIdx: 0, Sentence: src.Sentences[0].Text},
			},
			want: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := verifyCandidate(tc.candidate, src); got != tc.want {
				t.Fatalf("verifyCandidate(%q) = %v, want %v", tc.candidate.SurfaceForm, got, tc.want)
			}
		})
	}
}

func TestVerify_CountsHallucinations(t *testing.T) {
	p := &Pipeline{cfg: DefaultConfig()}
	stats := common.Stats{}
	src := BuildSourceText("Ich warte auf den Bus.")

	candidates := []common.Candidate{
		{
			Type:        common.ItemTypeWord,
			SurfaceForm: "Hund",
			Canonical:   "Hund",
			Evidence:    common.Evidence{SentenceIdx: 0, Sentence: src.Sentences[0].Text},
		},
		{
			Type:        common.ItemTypeChunk,
			SurfaceForm: "warte auf",
			Canonical:   "warten auf",
			Evidence:    common.Evidence{SentenceIdx: 0, Sentence: src.Sentences[0].Text},
		},
	}

	kept := p.verify(candidates, src, &stats)
	if len(kept) != 1 || kept[0].SurfaceForm != "warte auf" {
		t.Fatalf("expected only the grounded chunk to survive, got %#v", kept)
	}
	if stats.RejectedHallucination != 1 {
		t.Fatalf("RejectedHallucination = %d, want 1", stats.RejectedHallucination)
	}
}
