package common

import "time"

// ItemType classifies a learnable unit.
//
// Valid values:
//   - "word"    → a single lexical item
//   - "chunk"   → a multi-word expression or collocation
//   - "pattern" → an abstract grammatical structure
type ItemType = string

const (
	ItemTypeWord    ItemType = "word"
	ItemTypeChunk   ItemType = "chunk"
	ItemTypePattern ItemType = "pattern"
)

// ItemTypes lists every recognized item type in a stable order.
var ItemTypes = []ItemType{ItemTypeWord, ItemTypeChunk, ItemTypePattern}

// Sentence is one segment of the source text, with its position in the
// original string so evidence can be displayed in context later.
type Sentence struct {
	Idx   int    `json:"idx"`
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// SourceText is the immutable input of one extraction run together with
// its ordered sentences. It lives only for the duration of that run.
type SourceText struct {
	Text      string     `json:"text"`
	Sentences []Sentence `json:"sentences"`
}

// Evidence links a candidate back to the sentence it was extracted from.
// SentenceIdx is a global index into SourceText.Sentences.
type Evidence struct {
	SentenceIdx int    `json:"sentence_idx"`
	Sentence    string `json:"sentence"`
}

// CandidateMeta carries the optional linguistic annotations the model may
// attach to a candidate.
type CandidateMeta struct {
	Gender    string `json:"gender,omitempty"`
	Plural    string `json:"plural,omitempty"`
	POSHint   string `json:"pos_hint,omitempty"`
	CEFRGuess string `json:"cefr_guess,omitempty"`
}

// Candidate is the raw, untrusted unit proposed by the generative step.
// It is created by the extraction orchestrator and either promoted or
// dropped by each later pipeline stage; it is never persisted directly.
//
// SurfaceForm is the text exactly as it appeared in the source and is the
// value the hallucination gate checks. Canonical is the model's proposed
// dictionary form; the canonical-form stage finalizes it.
type Candidate struct {
	Type        ItemType      `json:"type"`
	SurfaceForm string        `json:"surface_form"`
	Canonical   string        `json:"canonical"`
	Gloss       string        `json:"english_gloss"`
	Meta        CandidateMeta `json:"meta"`
	Evidence    Evidence      `json:"evidence"`
}

// EdgeProposal is a directed relation between two candidates, addressed by
// canonical form. It becomes a persisted edge only once both endpoints
// have resolved to item identities.
type EdgeProposal struct {
	SrcCanonical string   `json:"src_canonical"`
	DstCanonical string   `json:"dst_canonical"`
	RelationType string   `json:"type"`
	Weight       *float64 `json:"weight"`
}

// Item is a persisted learnable unit. The storage layer owns the record;
// the pipeline owns its identity resolution: it never asks the store to
// create two items whose canonical forms are near-duplicates within the
// dedup window.
type Item struct {
	ID            string            `json:"id"`
	Type          ItemType          `json:"type"`
	CanonicalForm string            `json:"canonical_form"`
	Meta          map[string]string `json:"meta"`
	CreatedAt     time.Time         `json:"created_at"`
}

// Resolution says how a canonicalized candidate maps onto the item corpus.
type Resolution string

const (
	ResolvedNew      Resolution = "new"
	ResolvedExisting Resolution = "existing"
)

// ResolvedCandidate is a candidate that survived every gate: validated,
// verified against its evidence sentence, canonicalized, and resolved
// against the dedup window. SurfaceForm is retained unchanged for
// provenance; CanonicalForm is the identity used downstream.
type ResolvedCandidate struct {
	Type          ItemType          `json:"type"`
	SurfaceForm   string            `json:"surface_form"`
	CanonicalForm string            `json:"canonical_form"`
	Gloss         string            `json:"english_gloss"`
	Meta          map[string]string `json:"meta"`
	Evidence      Evidence          `json:"evidence"`
	Resolution    Resolution        `json:"resolution"`
	ItemID        string            `json:"item_id"`
}

// MutationKind discriminates the operations in a mutation list.
type MutationKind string

const (
	MutationUpsertItem MutationKind = "upsert_item"
	MutationUpsertEdge MutationKind = "upsert_edge"
)

// Mutation is one entry of the ordered list handed to the graph store.
// Item upserts always precede edge upserts so every edge references
// resolved item IDs.
type Mutation struct {
	Kind MutationKind `json:"kind"`

	Item *ItemMutation `json:"item,omitempty"`
	Edge *EdgeMutation `json:"edge,omitempty"`
}

// ItemMutation creates a new item or merges metadata into an existing one.
// For merges the metadata merge is non-destructive: keys already present
// on the stored item are never overwritten by empty values.
type ItemMutation struct {
	ID            string            `json:"id"`
	Type          ItemType          `json:"type"`
	CanonicalForm string            `json:"canonical_form"`
	Meta          map[string]string `json:"meta"`
	Existing      bool              `json:"existing"`
}

// EdgeMutation upserts a directed, typed edge between two resolved items.
type EdgeMutation struct {
	ID           string   `json:"id"`
	SourceID     string   `json:"source_id"`
	TargetID     string   `json:"target_id"`
	RelationType string   `json:"relation_type"`
	Weight       *float64 `json:"weight"`
}

// Stats accumulates the counted outcomes of one pipeline run. Rejections
// are normal results of the pipeline, not errors; a run always reports
// them explicitly.
type Stats struct {
	Extracted             int  `json:"extracted"`
	RejectedBlank         int  `json:"rejected_blank"`
	RejectedLowValue      int  `json:"rejected_low_value"`
	RejectedHallucination int  `json:"rejected_hallucination"`
	Merged                int  `json:"merged"`
	Created               int  `json:"created"`
	FailedBatches         int  `json:"failed_batches"`
	FallbackUsed          bool `json:"fallback_used"`
}

// Result is the sole output of one extraction run: the resolved
// candidates, the edge proposals whose endpoints both resolved, the
// ordered mutation list for the store, and the run statistics.
type Result struct {
	Items     []ResolvedCandidate `json:"items"`
	Edges     []EdgeProposal      `json:"edges"`
	Mutations []Mutation          `json:"mutations"`
	Stats     Stats               `json:"stats"`
}
