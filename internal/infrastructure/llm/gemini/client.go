package gemini

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/olegsavin/invoice-assistant/internal/infrastructure/resilience"
)

// Client talks to the Gemini REST API. All calls share one rate limiter and
// one resilience executor, so extraction, intent resolution and embedding
// compete for the same request budget.
type Client struct {
	baseURL    string
	apiKey     string
	genModel   string
	embedModel string
	httpClient *http.Client
	limiter    *rate.Limiter
	exec       *resilience.Executor
}

type Options struct {
	BaseURL           string
	APIKey            string
	GenerationModel   string
	EmbeddingModel    string
	RequestsPerSecond float64
	Resilience        resilience.Config
	Logger            *slog.Logger
}

func New(opts Options) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     opts.APIKey,
		genModel:   opts.GenerationModel,
		embedModel: opts.EmbeddingModel,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		exec:       resilience.NewExecutorWithLogger(opts.Resilience, opts.Logger),
	}
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMIMEType string  `json:"responseMimeType,omitempty"`
	Temperature      float64 `json:"temperature"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (c *Client) generateJSON(ctx context.Context, operation, prompt string) (string, error) {
	return c.generate(ctx, operation, prompt, "application/json")
}

func (c *Client) generateText(ctx context.Context, operation, prompt string) (string, error) {
	return c.generate(ctx, operation, prompt, "")
}

func (c *Client) generate(ctx context.Context, operation, prompt, mimeType string) (string, error) {
	reqBody := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: &generationConfig{
			ResponseMIMEType: mimeType,
			Temperature:      0,
		},
	}

	var resp generateResponse
	path := "/models/" + c.genModel + ":generateContent"
	if err := c.postJSON(ctx, path, reqBody, &resp, operation); err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", &EmptyResponseError{Operation: operation}
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return strings.TrimSpace(sb.String()), nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
