package ollama

import (
	"net/http"
	"net/url"
	"sync"

	"github.com/sprachlab/lerngraph/pkg/ai"

	"github.com/ollama/ollama/api"
	"golang.org/x/sync/semaphore"
)

// LexOllamaClient implements ai.LexAIClient against a locally-hosted Ollama
// server. Extraction and lemmatization can run on different models.
type LexOllamaClient struct {
	extractionModel string
	lemmaModel      string

	reqLock *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	baseURL    *url.URL
	apiKey     string
	httpClient *http.Client

	Client *api.Client
}

// NewLexOllamaClientParams contains configuration options for creating a new
// LexOllamaClient.
type NewLexOllamaClientParams struct {
	ExtractionModel string
	LemmaModel      string

	BaseURL string
	ApiKey  string

	MaxConcurrentRequests int64
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone so original request isn't modified
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		// don't overwrite if already set
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

// NewLexOllamaClient creates an Ollama-backed client. It connects to the
// server at BaseURL (or the Ollama default if empty) and caps in-flight
// requests at MaxConcurrentRequests.
func NewLexOllamaClient(
	params NewLexOllamaClientParams,
) (*LexOllamaClient, error) {
	var (
		u   *url.URL
		err error
	)

	if params.BaseURL != "" {
		u, err = url.Parse(params.BaseURL)
		if err != nil {
			return nil, err
		}
	}

	httpClient := &http.Client{
		Transport: &headerTransport{
			headers: map[string]string{
				"Authorization": "Bearer " + params.ApiKey,
			},
			rt: http.DefaultTransport,
		},
	}

	cli := api.NewClient(u, httpClient)

	maxConcurrent := params.MaxConcurrentRequests
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	return &LexOllamaClient{
		extractionModel: params.ExtractionModel,
		lemmaModel:      params.LemmaModel,

		reqLock: semaphore.NewWeighted(maxConcurrent),

		metricsLock: sync.Mutex{},
		metrics:     ai.ModelMetrics{},

		baseURL:    u,
		apiKey:     params.ApiKey,
		httpClient: httpClient,

		Client: cli,
	}, nil
}
