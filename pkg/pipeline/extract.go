package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sprachlab/lerngraph/internal/util"
	"github.com/sprachlab/lerngraph/pkg/ai"
	"github.com/sprachlab/lerngraph/pkg/common"
	"github.com/sprachlab/lerngraph/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// ExtractionError is the only failure the pipeline propagates: batched
// extraction mostly failed and the whole-text fallback failed too.
type ExtractionError struct {
	Batches int
	Failed  int
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed: %d of %d batches failed and fallback did not recover: %v",
		e.Failed, e.Batches, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

type wireSentence struct {
	Idx  int    `json:"idx" jsonschema_description:"Index of the sentence within this batch"`
	Text string `json:"text" jsonschema_description:"The sentence text"`
}

type wireEvidence struct {
	SentenceIdx int    `json:"sentence_idx" jsonschema_description:"Index of the sentence the item appears in"`
	Sentence    string `json:"sentence" jsonschema_description:"The sentence text the item appears in, copied verbatim"`
}

type wireMeta struct {
	Gender    string `json:"gender" jsonschema_description:"Article for nouns: der, die or das; empty otherwise"`
	Plural    string `json:"plural" jsonschema_description:"Plural form for nouns; empty otherwise"`
	POSHint   string `json:"pos_hint" jsonschema_description:"Coarse part of speech: noun, verb, adj or adv; empty if unclear"`
	CEFRGuess string `json:"cefr_guess" jsonschema_description:"Rough CEFR level A1..C2; empty if unclear"`
}

type wireItem struct {
	Type         string       `json:"type" jsonschema_description:"One of: word, chunk, pattern"`
	Canonical    string       `json:"canonical" jsonschema_description:"Dictionary citation form of the item"`
	SurfaceForm  string       `json:"surface_form" jsonschema_description:"The exact wording as it appears in the text"`
	EnglishGloss string       `json:"english_gloss" jsonschema_description:"Short English translation or explanation"`
	Meta         wireMeta     `json:"meta" jsonschema_description:"Optional linguistic annotations"`
	Evidence     wireEvidence `json:"evidence" jsonschema_description:"Where the item occurs in the given sentences"`
}

type wireEdge struct {
	SrcCanonical string   `json:"src_canonical" jsonschema_description:"Canonical form of the source item"`
	DstCanonical string   `json:"dst_canonical" jsonschema_description:"Canonical form of the target item"`
	Type         string   `json:"type" jsonschema_description:"Relation type, e.g. collocates_with, derived_from"`
	Weight       *float64 `json:"weight" jsonschema_description:"Optional relation strength between 0 and 1"`
}

type extractResponse struct {
	Sentences []wireSentence `json:"sentences" jsonschema_description:"The sentences of this batch, echoed back"`
	Items     []wireItem     `json:"items" jsonschema_description:"Learnable items found in the sentences"`
	Edges     []wireEdge     `json:"edges" jsonschema_description:"Relations between extracted items"`
}

type batchResult struct {
	candidates []common.Candidate
	edges      []common.EdgeProposal
}

// extractBatch runs one structured extraction call over a batch of
// sentences. Evidence indices come back batch-local and are remapped to
// global indices using the batch's known offset, so the merged order never
// depends on call completion order.
func extractBatch(
	ctx context.Context,
	client ai.LexAIClient,
	src common.SourceText,
	sentences []common.Sentence,
	maxItemsPerType int,
) (batchResult, error) {
	if len(sentences) == 0 {
		return batchResult{}, nil
	}
	base := sentences[0].Idx

	types := strings.Join(common.ItemTypes, ", ")
	prompt := fmt.Sprintf(
		ai.ExtractPromptLexical,
		types,
		renderSentences(sentences, base),
		types,
	)
	prompt = fmt.Sprintf("%s\nReturn at most %d items per type.", prompt, maxItemsPerType)

	var res extractResponse
	err := client.GenerateCompletionWithFormat(
		ctx,
		"lexical_extraction",
		"Extract learnable words, chunks and patterns from German text.",
		prompt,
		&res,
	)
	if err != nil {
		return batchResult{}, err
	}

	perType := make(map[string]int)
	candidates := make([]common.Candidate, 0, len(res.Items))
	for _, item := range res.Items {
		if perType[item.Type] >= maxItemsPerType {
			continue
		}
		perType[item.Type]++

		localIdx := item.Evidence.SentenceIdx
		globalIdx := base + localIdx
		sentence := item.Evidence.Sentence
		if localIdx >= 0 && localIdx < len(sentences) {
			// trust our own sentence text over the model's echo
			sentence = sentences[localIdx].Text
		} else {
			globalIdx = base
			if sentence == "" && len(sentences) > 0 {
				sentence = sentences[0].Text
			}
		}

		candidates = append(candidates, common.Candidate{
			Type:        item.Type,
			SurfaceForm: item.SurfaceForm,
			Canonical:   item.Canonical,
			Gloss:       item.EnglishGloss,
			Meta: common.CandidateMeta{
				Gender:    item.Meta.Gender,
				Plural:    item.Meta.Plural,
				POSHint:   item.Meta.POSHint,
				CEFRGuess: item.Meta.CEFRGuess,
			},
			Evidence: common.Evidence{
				SentenceIdx: globalIdx,
				Sentence:    sentence,
			},
		})
	}

	edges := make([]common.EdgeProposal, 0, len(res.Edges))
	for _, edge := range res.Edges {
		if strings.TrimSpace(edge.SrcCanonical) == "" || strings.TrimSpace(edge.DstCanonical) == "" {
			continue
		}
		edges = append(edges, common.EdgeProposal{
			SrcCanonical: edge.SrcCanonical,
			DstCanonical: edge.DstCanonical,
			RelationType: edge.Type,
			Weight:       edge.Weight,
		})
	}

	return batchResult{candidates: candidates, edges: edges}, nil
}

// batchSentences partitions sentences into ordered batches of batchSize.
// Text shorter than minChars is not worth batching and becomes one batch.
func batchSentences(src common.SourceText, batchSize, minChars int) [][]common.Sentence {
	if len(src.Sentences) == 0 {
		return nil
	}
	if len(src.Text) < minChars {
		return [][]common.Sentence{src.Sentences}
	}
	batches := make([][]common.Sentence, 0, (len(src.Sentences)+batchSize-1)/batchSize)
	for i := 0; i < len(src.Sentences); i += batchSize {
		end := min(i+batchSize, len(src.Sentences))
		batches = append(batches, src.Sentences[i:end])
	}
	return batches
}

// extract produces the merged candidate list for the whole text. Per-batch
// failures are logged and counted, never propagated; when failed batches
// outnumber successful ones, a single whole-text fallback call runs with an
// extended timeout. Only a failing fallback escalates, as ExtractionError.
func (p *Pipeline) extract(
	ctx context.Context,
	src common.SourceText,
	stats *common.Stats,
) ([]common.Candidate, []common.EdgeProposal, error) {
	batches := batchSentences(src, p.cfg.BatchSize, p.cfg.MinBatchingChars)
	if len(batches) == 0 {
		return nil, nil, nil
	}

	results := make([]*batchResult, len(batches))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.MaxParallelBatches)
	for i, batch := range batches {
		g.Go(func() error {
			res, err := util.RetryWithContext(gCtx, p.cfg.MaxRetries, func(rCtx context.Context) (batchResult, error) {
				callCtx, cancel := context.WithTimeout(rCtx, p.cfg.CallTimeout)
				defer cancel()
				return extractBatch(callCtx, p.client, src, batch, p.cfg.MaxItemsPerType)
			})
			if err != nil {
				logger.Warn("extraction batch failed",
					"batch", i,
					"sentences", len(batch),
					"error", err,
				)
				return nil
			}
			results[i] = &res
			return nil
		})
	}
	// goroutines only return nil; Wait orders the results writes
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	failed := 0
	candidates := make([]common.Candidate, 0)
	edges := make([]common.EdgeProposal, 0)
	for _, res := range results {
		if res == nil {
			failed++
			continue
		}
		candidates = append(candidates, res.candidates...)
		edges = append(edges, res.edges...)
	}
	stats.FailedBatches = failed

	if failed*2 > len(batches) {
		logger.Warn("majority of extraction batches failed, retrying with whole text",
			"failed", failed,
			"batches", len(batches),
		)
		stats.FallbackUsed = true

		fbCtx, cancel := context.WithTimeout(ctx, p.cfg.FallbackTimeout)
		defer cancel()
		res, err := extractBatch(fbCtx, p.client, src, src.Sentences, p.cfg.MaxItemsPerType)
		if err != nil {
			return nil, nil, &ExtractionError{
				Batches: len(batches),
				Failed:  failed,
				Err:     err,
			}
		}
		candidates = res.candidates
		edges = res.edges
	}

	// ascending global sentence order, provider order kept within a sentence
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].Evidence.SentenceIdx < candidates[b].Evidence.SentenceIdx
	})

	stats.Extracted = len(candidates)
	return candidates, edges, nil
}
