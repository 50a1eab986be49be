package pipeline

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/sprachlab/lerngraph/pkg/common"
)

func TestMergeMeta(t *testing.T) {
	existing := map[string]string{"gender": "die", "cefr_guess": "B1"}
	incoming := map[string]string{"gender": "das", "plural": "Entscheidungen", "pos_hint": ""}

	got := mergeMeta(existing, incoming)
	want := map[string]string{
		"gender":     "die",
		"cefr_guess": "B1",
		"plural":     "Entscheidungen",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("mergeMeta() = %#v, want %#v", got, want)
	}
}

func TestBestWindowMatch_TieBreakEarliestCreated(t *testing.T) {
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	window := []common.Item{
		{ID: "newer", Type: common.ItemTypeChunk, CanonicalForm: "warten auf", CreatedAt: newer},
		{ID: "older", Type: common.ItemTypeChunk, CanonicalForm: "warten auf", CreatedAt: older},
	}

	match, sim := bestWindowMatch("warten auf", window)
	if sim != 1 {
		t.Fatalf("similarity = %v, want 1", sim)
	}
	if match.ID != "older" {
		t.Fatalf("tie must resolve to earliest created item, got %q", match.ID)
	}
}

func TestDedupe_MergeAndCreate(t *testing.T) {
	created := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeStore{
		items: map[common.ItemType][]common.Item{
			common.ItemTypeChunk: {
				{
					ID:            "chunk-1",
					Type:          common.ItemTypeChunk,
					CanonicalForm: "ein Buch kaufen",
					Meta:          map[string]string{"cefr_guess": "A2"},
					CreatedAt:     created,
				},
			},
		},
	}
	p := &Pipeline{store: store, cfg: DefaultConfig()}
	stats := common.Stats{}

	candidates := []common.Candidate{
		{
			Type:        common.ItemTypeChunk,
			SurfaceForm: "kaufe ein Buch",
			Canonical:   "ein Buch kaufen",
			Meta:        common.CandidateMeta{POSHint: "verb", CEFRGuess: "B1"},
		},
		{
			Type:        common.ItemTypeChunk,
			SurfaceForm: "warte auf",
			Canonical:   "warten auf",
		},
	}

	resolved := p.dedupe(context.Background(), candidates, &stats)
	if len(resolved) != 2 {
		t.Fatalf("expected 2 resolved candidates, got %d", len(resolved))
	}

	merged := resolved[0]
	if merged.Resolution != common.ResolvedExisting || merged.ItemID != "chunk-1" {
		t.Fatalf("expected merge into chunk-1, got %+v", merged)
	}
	if merged.Meta["cefr_guess"] != "A2" {
		t.Errorf("existing metadata overwritten: %#v", merged.Meta)
	}
	if merged.Meta["pos_hint"] != "verb" {
		t.Errorf("new metadata not proposed: %#v", merged.Meta)
	}

	fresh := resolved[1]
	if fresh.Resolution != common.ResolvedNew || fresh.ItemID != "" {
		t.Fatalf("expected new resolution without ID, got %+v", fresh)
	}

	if stats.Merged != 1 {
		t.Errorf("Merged = %d, want 1", stats.Merged)
	}
}

func TestDedupe_BelowThresholdCreates(t *testing.T) {
	store := &fakeStore{
		items: map[common.ItemType][]common.Item{
			common.ItemTypeWord: {
				{ID: "w1", Type: common.ItemTypeWord, CanonicalForm: "Hund"},
			},
		},
	}
	p := &Pipeline{store: store, cfg: DefaultConfig()}
	stats := common.Stats{}

	resolved := p.dedupe(context.Background(), []common.Candidate{
		{Type: common.ItemTypeWord, SurfaceForm: "Katze", Canonical: "Katze"},
	}, &stats)

	if resolved[0].Resolution != common.ResolvedNew {
		t.Fatalf("dissimilar candidate must resolve new, got %+v", resolved[0])
	}
	if stats.Merged != 0 {
		t.Errorf("Merged = %d, want 0", stats.Merged)
	}
}

func TestDedupe_WindowReadFailureResolvesNew(t *testing.T) {
	store := &fakeStore{recentErr: errors.New("db down")}
	p := &Pipeline{store: store, cfg: DefaultConfig()}
	stats := common.Stats{}

	resolved := p.dedupe(context.Background(), []common.Candidate{
		{Type: common.ItemTypeWord, SurfaceForm: "Katze", Canonical: "Katze"},
	}, &stats)

	if len(resolved) != 1 || resolved[0].Resolution != common.ResolvedNew {
		t.Fatalf("window failure must degrade to empty window, got %#v", resolved)
	}
}

func TestDedupe_QueriesOnlyNeededTypes(t *testing.T) {
	store := &fakeStore{}
	p := &Pipeline{store: store, cfg: DefaultConfig()}
	stats := common.Stats{}

	p.dedupe(context.Background(), []common.Candidate{
		{Type: common.ItemTypeWord, SurfaceForm: "Katze", Canonical: "Katze"},
	}, &stats)

	if got := store.recentTypes; !reflect.DeepEqual(got, []common.ItemType{common.ItemTypeWord}) {
		t.Fatalf("expected one window read for word, got %#v", got)
	}
}
