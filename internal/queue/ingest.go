package queue

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/sprachlab/lerngraph/pkg/common"
	"github.com/sprachlab/lerngraph/pkg/leaselock"
	"github.com/sprachlab/lerngraph/pkg/logger"
	"github.com/sprachlab/lerngraph/pkg/pipeline"
	"github.com/sprachlab/lerngraph/pkg/store"

	"github.com/rabbitmq/amqp091-go"
)

// IngestJobMsg is the payload published onto the ingest queue. SourceID
// identifies the text being ingested and keys the per-source lease.
type IngestJobMsg struct {
	SourceID string `json:"source_id"`
	Text     string `json:"text"`
}

type ingestCompletedMsg struct {
	SourceID string       `json:"source_id"`
	Stats    common.Stats `json:"stats"`
}

// ProcessIngestMessage runs the extraction pipeline over one ingest job
// and applies the resulting mutations to the store. A non-nil error sends
// the message to the retry queue; ErrBusy from the lease is deliberately
// returned so contended jobs retry instead of being dropped.
func ProcessIngestMessage(
	ctx context.Context,
	p *pipeline.Pipeline,
	graphStore store.GraphStore,
	locks *leaselock.Client,
	ch *amqp091.Channel,
	msg string,
) error {
	data := new(IngestJobMsg)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return err
	}

	if data.Text == "" {
		logger.Warn("[Queue] Ingest job with empty text, nothing to do", "source_id", data.SourceID)
		return nil
	}

	run := func(ctx context.Context) error {
		result, err := p.ExtractAndVerify(ctx, data.Text)
		if err != nil {
			var extErr *pipeline.ExtractionError
			if errors.As(err, &extErr) {
				logger.Error(
					"[Queue] Extraction failed",
					"source_id", data.SourceID,
					"batches", extErr.Batches,
					"failed", extErr.Failed,
				)
			}
			return err
		}

		if err := graphStore.ApplyMutations(ctx, result.Mutations); err != nil {
			return err
		}

		logger.Info(
			"[Queue] Ingest complete",
			"source_id", data.SourceID,
			"items", len(result.Items),
			"edges", len(result.Edges),
			"extracted", result.Stats.Extracted,
			"merged", result.Stats.Merged,
			"created", result.Stats.Created,
		)

		if ch != nil {
			event, err := json.Marshal(ingestCompletedMsg{
				SourceID: data.SourceID,
				Stats:    result.Stats,
			})
			if err == nil {
				if err := PublishTopic(ch, ResultTopic, event); err != nil {
					logger.Warn("[Queue] Failed to publish completion event", "source_id", data.SourceID, "err", err)
				}
			}
		}

		return nil
	}

	if locks == nil || data.SourceID == "" {
		return run(ctx)
	}

	return locks.WithLease(ctx, "ingest:"+data.SourceID, leaselock.Options{}, run)
}
