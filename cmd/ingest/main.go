package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"os"

	"github.com/sprachlab/lerngraph/internal/queue"
	"github.com/sprachlab/lerngraph/internal/util"

	"github.com/sprachlab/lerngraph/pkg/ai"
	oai "github.com/sprachlab/lerngraph/pkg/ai/ollama"
	gai "github.com/sprachlab/lerngraph/pkg/ai/openai"
	"github.com/sprachlab/lerngraph/pkg/logger"
	"github.com/sprachlab/lerngraph/pkg/logger/console"
	"github.com/sprachlab/lerngraph/pkg/pipeline"
	"github.com/sprachlab/lerngraph/pkg/store"
	"github.com/sprachlab/lerngraph/pkg/store/memory"
	graphstore "github.com/sprachlab/lerngraph/pkg/store/pgx"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/jackc/pgx/v5/pgxpool"
)

func newAIClient() ai.LexAIClient {
	adapter := util.GetEnv("AI_ADAPTER")

	switch adapter {
	case "ollama":
		client, err := oai.NewLexOllamaClient(oai.NewLexOllamaClientParams{
			ExtractionModel: util.GetEnv("AI_EXTRACT_MODEL"),
			LemmaModel:      util.GetEnv("AI_LEMMA_MODEL"),

			BaseURL: util.GetEnv("AI_CHAT_URL"),
			ApiKey:  util.GetEnv("AI_CHAT_KEY"),

			MaxConcurrentRequests: int64(util.GetEnvInt("AI_MAX_CONCURRENT", 2)),
		})
		if err != nil {
			logger.Fatal("Could not create Ollama client", "err", err)
		}
		return client
	default:
		return gai.NewLexOpenAIClient(gai.NewLexOpenAIClientParams{
			ExtractionModel: util.GetEnv("AI_EXTRACT_MODEL"),
			LemmaModel:      util.GetEnv("AI_LEMMA_MODEL"),

			ChatURL: util.GetEnv("AI_CHAT_URL"),
			ChatKey: util.GetEnv("AI_CHAT_KEY"),
		})
	}
}

func readInput(path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

func main() {
	util.LoadEnv()

	filePath := flag.String("file", "-", "text file to ingest, - for stdin")
	sourceID := flag.String("source", "", "source ID for the ingest job (random if empty)")
	storeKind := flag.String("store", "memory", "graph store: memory or postgres")
	enqueue := flag.Bool("enqueue", false, "publish the job to the ingest queue instead of running locally")
	flag.Parse()

	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.New(console.Params{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	ctx := context.Background()

	text, err := readInput(*filePath)
	if err != nil {
		logger.Fatal("Failed to read input", "file", *filePath, "err", err)
	}

	source := *sourceID
	if source == "" {
		source, err = gonanoid.New()
		if err != nil {
			logger.Fatal("Failed to generate source ID", "err", err)
		}
	}

	if *enqueue {
		job, err := json.Marshal(queue.IngestJobMsg{SourceID: source, Text: text})
		if err != nil {
			logger.Fatal("Failed to encode job", "err", err)
		}

		conn := queue.Init()
		defer conn.Close()

		ch, err := conn.Channel()
		if err != nil {
			logger.Fatal("Failed to open channel", "err", err)
		}
		defer ch.Close()

		if err := queue.PublishFIFO(ch, queue.IngestQueue, job); err != nil {
			logger.Fatal("Failed to publish ingest job", "err", err)
		}
		logger.Info("Ingest job queued", "source_id", source, "bytes", len(text))
		return
	}

	var graphStore store.GraphStore
	switch *storeKind {
	case "postgres":
		pgConn, err := pgxpool.New(ctx, util.GetEnv("DATABASE_URL"))
		if err != nil {
			logger.Fatal("Unable to connect to database", "err", err)
		}
		defer pgConn.Close()
		graphStore = graphstore.NewGraphDBStoreWithConnection(pgConn)
	case "memory":
		graphStore = memory.New()
	default:
		logger.Fatal("Unknown store kind", "store", *storeKind)
	}

	pipe, err := pipeline.New(newAIClient(), graphStore, pipeline.ConfigFromEnv())
	if err != nil {
		logger.Fatal("Invalid pipeline configuration", "err", err)
	}

	result, err := pipe.ExtractAndVerify(ctx, text)
	if err != nil {
		logger.Fatal("Extraction failed", "source_id", source, "err", err)
	}

	if err := graphStore.ApplyMutations(ctx, result.Mutations); err != nil {
		logger.Fatal("Failed to apply mutations", "source_id", source, "err", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logger.Fatal("Failed to encode result", "err", err)
	}
}
