package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/sprachlab/lerngraph/pkg/ai"
	"github.com/sprachlab/lerngraph/pkg/common"
	"github.com/sprachlab/lerngraph/pkg/logger"
	"github.com/sprachlab/lerngraph/pkg/store"
)

// Pipeline turns unreliable generative extraction output into a verified,
// deduplicated mutation list for the knowledge graph. The AI client and the
// store are injected at construction; no stage resolves them from global
// state.
type Pipeline struct {
	client ai.LexAIClient
	store  store.GraphStore
	cfg    Config
}

// New constructs a Pipeline and validates the config once.
func New(client ai.LexAIClient, graphStore store.GraphStore, cfg Config) (*Pipeline, error) {
	if client == nil {
		return nil, errors.New("pipeline: nil AI client")
	}
	if graphStore == nil {
		return nil, errors.New("pipeline: nil graph store")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{
		client: client,
		store:  graphStore,
		cfg:    cfg,
	}, nil
}

// ExtractAndVerify runs the whole pipeline over one text: split, batched
// extraction, validation, hallucination verification, canonicalization,
// deduplication and mutation planning. It always returns a Result with full
// stats; the only error it returns is cancellation or an ExtractionError,
// when batched extraction mostly failed and the whole-text fallback failed
// too.
func (p *Pipeline) ExtractAndVerify(ctx context.Context, text string) (*common.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.PipelineTimeout)
	defer cancel()

	start := time.Now()
	stats := common.Stats{}

	src := BuildSourceText(text)
	logger.Debug("starting extraction run",
		"chars", len(text),
		"sentences", len(src.Sentences),
	)

	candidates, edgeProposals, err := p.extract(ctx, src, &stats)
	if err != nil {
		return nil, err
	}

	candidates = p.validate(candidates, &stats)
	candidates = p.verify(candidates, src, &stats)
	candidates = p.canonicalize(ctx, candidates)

	resolved := p.dedupe(ctx, candidates, &stats)

	mutations, edges, err := planMutations(resolved, edgeProposals, &stats)
	if err != nil {
		return nil, err
	}

	logger.Info("extraction run finished",
		"extracted", stats.Extracted,
		"rejected_blank", stats.RejectedBlank,
		"rejected_low_value", stats.RejectedLowValue,
		"rejected_hallucination", stats.RejectedHallucination,
		"merged", stats.Merged,
		"created", stats.Created,
		"failed_batches", stats.FailedBatches,
		"fallback_used", stats.FallbackUsed,
		"duration", time.Since(start).Round(time.Millisecond),
	)

	return &common.Result{
		Items:     resolved,
		Edges:     edges,
		Mutations: mutations,
		Stats:     stats,
	}, nil
}
