package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/sprachlab/lerngraph/pkg/common"
)

func TestPlausibleLemma(t *testing.T) {
	tests := []struct {
		name    string
		lemma   string
		surface string
		want    bool
	}{
		{name: "normal lemma", lemma: "warten", surface: "wartete", want: true},
		{name: "blank lemma", lemma: "  ", surface: "wartete", want: false},
		{name: "chunk lemma", lemma: "warten auf", surface: "wartete auf", want: true},
		{
			name:    "runaway generation",
			lemma:   "warten auf den bus der heute morgen kam",
			surface: "wartete",
			want:    false,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := plausibleLemma(tc.lemma, tc.surface); got != tc.want {
				t.Fatalf("plausibleLemma(%q, %q) = %v, want %v", tc.lemma, tc.surface, got, tc.want)
			}
		})
	}
}

func TestCanonicalize_PassthroughKeepsProposedForms(t *testing.T) {
	client := &fakeAIClient{}
	cfg := DefaultConfig()
	cfg.CanonicalMode = CanonicalPassthrough
	p := &Pipeline{client: client, cfg: cfg}

	candidates := []common.Candidate{
		{Type: common.ItemTypeWord, SurfaceForm: "wartete", Canonical: "warten"},
		{Type: common.ItemTypeChunk, SurfaceForm: "wartete auf", Canonical: "warten auf"},
	}

	got := p.canonicalize(context.Background(), candidates)
	if got[0].Canonical != "warten" || got[1].Canonical != "warten auf" {
		t.Fatalf("pass-through changed canonical forms: %#v", got)
	}
	if client.formatCalls != 0 {
		t.Fatalf("pass-through mode made %d model calls, want 0", client.formatCalls)
	}
}

func TestCanonicalize_NormalizedBatchesWordsOnly(t *testing.T) {
	client := &fakeAIClient{
		onFormat: func(name, prompt string, out any) error {
			res, ok := out.(*lemmaResponse)
			if !ok {
				return errors.New("unexpected output type")
			}
			res.Lemmas = []lemmaEntry{
				{Idx: 0, Lemma: "Haus"},
				{Idx: 1, Lemma: "laufen"},
			}
			return nil
		},
	}
	cfg := DefaultConfig()
	cfg.CanonicalMode = CanonicalNormalized
	p := &Pipeline{client: client, cfg: cfg}

	candidates := []common.Candidate{
		{Type: common.ItemTypeWord, SurfaceForm: "Häusern", Canonical: "Häusern"},
		{Type: common.ItemTypeWord, SurfaceForm: "lief", Canonical: "lief"},
		{Type: common.ItemTypeChunk, SurfaceForm: "wartete auf", Canonical: "warten auf"},
	}

	got := p.canonicalize(context.Background(), candidates)
	if client.formatCalls != 1 {
		t.Fatalf("expected one batched lemmatization call, got %d", client.formatCalls)
	}
	if got[0].Canonical != "Haus" {
		t.Errorf("first word canonical = %q, want Haus", got[0].Canonical)
	}
	if got[1].Canonical != "laufen" {
		t.Errorf("second word canonical = %q, want laufen", got[1].Canonical)
	}
	if got[2].Canonical != "warten auf" {
		t.Errorf("chunk must pass through, got %q", got[2].Canonical)
	}
}

func TestCanonicalize_ImplausibleLemmaFallsBackPerCandidate(t *testing.T) {
	client := &fakeAIClient{
		onFormat: func(name, prompt string, out any) error {
			res := out.(*lemmaResponse)
			res.Lemmas = []lemmaEntry{
				{Idx: 0, Lemma: ""},
				{Idx: 1, Lemma: "ein sehr langer satz der kein lemma mehr ist wirklich nicht"},
				{Idx: 2, Lemma: "warten"},
			}
			return nil
		},
	}
	cfg := DefaultConfig()
	cfg.CanonicalMode = CanonicalNormalized
	p := &Pipeline{client: client, cfg: cfg}

	candidates := []common.Candidate{
		{Type: common.ItemTypeWord, SurfaceForm: "Häusern", Canonical: "Häusern"},
		{Type: common.ItemTypeWord, SurfaceForm: "lief", Canonical: "lief"},
		{Type: common.ItemTypeWord, SurfaceForm: "wartete", Canonical: "wartete"},
	}

	got := p.canonicalize(context.Background(), candidates)
	if got[0].Canonical != "Häusern" {
		t.Errorf("blank lemma must fall back, got %q", got[0].Canonical)
	}
	if got[1].Canonical != "lief" {
		t.Errorf("runaway lemma must fall back, got %q", got[1].Canonical)
	}
	if got[2].Canonical != "warten" {
		t.Errorf("valid lemma must apply, got %q", got[2].Canonical)
	}
}

func TestCanonicalize_CallFailureDegradesToPassthrough(t *testing.T) {
	client := &fakeAIClient{
		onFormat: func(name, prompt string, out any) error {
			return errors.New("provider down")
		},
	}
	cfg := DefaultConfig()
	cfg.CanonicalMode = CanonicalNormalized
	p := &Pipeline{client: client, cfg: cfg}

	candidates := []common.Candidate{
		{Type: common.ItemTypeWord, SurfaceForm: "Häusern", Canonical: "Häusern"},
	}

	got := p.canonicalize(context.Background(), candidates)
	if len(got) != 1 || got[0].Canonical != "Häusern" {
		t.Fatalf("failed call must not drop candidates: %#v", got)
	}
}
