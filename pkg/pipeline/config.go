package pipeline

import (
	"fmt"
	"time"

	"github.com/sprachlab/lerngraph/internal/util"

	"github.com/go-playground/validator"
)

// CanonicalMode selects how canonical forms are produced.
//
// Valid values:
//   - "passthrough" → keep the model's proposed canonical form as given
//   - "normalized"  → one batched lemmatization call finalizes word forms
type CanonicalMode string

const (
	CanonicalPassthrough CanonicalMode = "passthrough"
	CanonicalNormalized  CanonicalMode = "normalized"
)

// Config enumerates every pipeline option. There are no hidden defaults in
// pipeline logic; construction validates the whole struct once.
type Config struct {
	// BatchSize is the number of sentences per extraction call.
	BatchSize int `validate:"min=1"`
	// MaxItemsPerType caps candidates per type per extraction call.
	MaxItemsPerType int `validate:"min=1"`
	// MaxParallelBatches bounds concurrent extraction calls in flight.
	MaxParallelBatches int `validate:"min=1"`
	// MaxRetries is the attempt count per extraction call.
	MaxRetries int `validate:"min=1"`
	// MinBatchingChars is the text length below which splitting is skipped
	// and the whole text becomes a single batch.
	MinBatchingChars int `validate:"min=0"`

	// SimilarityThreshold is the dedup merge threshold over canonical forms.
	SimilarityThreshold float64 `validate:"gte=0,lte=1"`
	// DedupeWindow is the number of most recent items compared per type.
	DedupeWindow int `validate:"min=1"`

	CanonicalMode CanonicalMode `validate:"oneof=passthrough normalized"`

	// CallTimeout bounds each per-batch extraction call.
	CallTimeout time.Duration `validate:"min=1"`
	// FallbackTimeout bounds the single whole-text fallback call.
	FallbackTimeout time.Duration `validate:"min=1"`
	// PipelineTimeout bounds one whole ExtractAndVerify run.
	PipelineTimeout time.Duration `validate:"min=1"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:          2,
		MaxItemsPerType:    5,
		MaxParallelBatches: 4,
		MaxRetries:         2,
		MinBatchingChars:   100,

		SimilarityThreshold: 0.85,
		DedupeWindow:        100,

		CanonicalMode: CanonicalPassthrough,

		CallTimeout:     30 * time.Second,
		FallbackTimeout: 90 * time.Second,
		PipelineTimeout: 10 * time.Minute,
	}
}

// ConfigFromEnv starts from the defaults and overrides from the process
// environment.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	cfg.BatchSize = util.GetEnvInt("PIPELINE_BATCH_SIZE", cfg.BatchSize)
	cfg.MaxItemsPerType = util.GetEnvInt("PIPELINE_MAX_ITEMS_PER_TYPE", cfg.MaxItemsPerType)
	cfg.MaxParallelBatches = util.GetEnvInt("PIPELINE_MAX_PARALLEL_BATCHES", cfg.MaxParallelBatches)
	cfg.MaxRetries = util.GetEnvInt("PIPELINE_MAX_RETRIES", cfg.MaxRetries)
	cfg.MinBatchingChars = util.GetEnvInt("PIPELINE_MIN_BATCHING_CHARS", cfg.MinBatchingChars)

	cfg.SimilarityThreshold = util.GetEnvFloat("PIPELINE_SIMILARITY_THRESHOLD", cfg.SimilarityThreshold)
	cfg.DedupeWindow = util.GetEnvInt("PIPELINE_DEDUPE_WINDOW", cfg.DedupeWindow)

	cfg.CanonicalMode = CanonicalMode(util.GetEnvString("PIPELINE_CANONICAL_MODE", string(cfg.CanonicalMode)))

	cfg.CallTimeout = time.Duration(util.GetEnvInt("PIPELINE_CALL_TIMEOUT_SECONDS",
		int(cfg.CallTimeout/time.Second))) * time.Second
	cfg.FallbackTimeout = time.Duration(util.GetEnvInt("PIPELINE_FALLBACK_TIMEOUT_SECONDS",
		int(cfg.FallbackTimeout/time.Second))) * time.Second
	cfg.PipelineTimeout = time.Duration(util.GetEnvInt("PIPELINE_TIMEOUT_SECONDS",
		int(cfg.PipelineTimeout/time.Second))) * time.Second

	return cfg
}

// Validate checks the config once at startup.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid pipeline config: %w", err)
	}
	return nil
}
