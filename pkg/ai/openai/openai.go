package openai

import (
	"math"
	"sync"

	"github.com/sprachlab/lerngraph/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// LexOpenAIClient implements ai.LexAIClient against any OpenAI-compatible
// chat completion endpoint.
//
// A LexOpenAIClient should be created using NewLexOpenAIClient.
type LexOpenAIClient struct {
	extractionModel string
	lemmaModel      string

	chatURL string
	chatKey string

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	ChatClient *openai.Client
}

// NewLexOpenAIClientParams defines the configuration for creating a new
// LexOpenAIClient. ChatURL may be empty to use the official OpenAI endpoint.
type NewLexOpenAIClientParams struct {
	ExtractionModel string
	LemmaModel      string

	ChatURL string
	ChatKey string
}

// NewLexOpenAIClient creates and returns a new client configured with the
// provided parameters.
//
// Example:
//
//	params := openai.NewLexOpenAIClientParams{
//		ExtractionModel: "gpt-4o-mini",
//		LemmaModel:      "gpt-4o-mini",
//		ChatKey:         os.Getenv("OPENAI_API_KEY"),
//	}
//	client := openai.NewLexOpenAIClient(params)
func NewLexOpenAIClient(
	params NewLexOpenAIClientParams,
) *LexOpenAIClient {
	return &LexOpenAIClient{
		extractionModel: params.ExtractionModel,
		lemmaModel:      params.LemmaModel,

		chatURL: params.ChatURL,
		chatKey: params.ChatKey,

		metricsLock: sync.Mutex{},
		metrics:     ai.ModelMetrics{},

		ChatClient: newOpenaiClient(params.ChatURL, params.ChatKey),
	}
}

func newOpenaiClient(
	baseURL string,
	apiKey string,
) *openai.Client {
	if apiKey == "" {
		return nil
	}
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}

	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)

	return &client
}

// ResetMetrics clears all accumulated token and timing metrics to zero.
func (c *LexOpenAIClient) ResetMetrics() {
	c.metricsLock.Lock()
	c.metrics = ai.ModelMetrics{}
	c.metricsLock.Unlock()
}

// GetMetrics returns the accumulated token usage and timing since the last reset.
func (c *LexOpenAIClient) GetMetrics() ai.ModelMetrics {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	return c.metrics
}

func (c *LexOpenAIClient) modifyMetrics(m ai.ModelMetrics) {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()

	c.metrics.InputTokens += m.InputTokens
	c.metrics.OutputTokens += m.OutputTokens
	c.metrics.TotalTokens += m.TotalTokens
	c.metrics.DurationMs += m.DurationMs

	if c.metrics.DurationMs > 0 {
		tokensPerSecond := (float64(c.metrics.TotalTokens) * 1000.0) / float64(c.metrics.DurationMs)
		c.metrics.TokenPerSecond = float32(math.Round(tokensPerSecond*100) / 100)
	}
}
