package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/hyperjump/docqa/internal/guard"
	"github.com/hyperjump/docqa/internal/models"
	"github.com/hyperjump/docqa/internal/restclient"
	"github.com/hyperjump/docqa/pkg/utils"
	"go.uber.org/zap"
)

// GeminiProvider calls the Gemini embedContent REST endpoint.
type GeminiProvider struct {
	client *restclient.Client
	apiKey string
	model  string
	guard  *guard.Guard
	logger *zap.Logger
}

var _ Provider = (*GeminiProvider)(nil)

// GeminiOptions configures a GeminiProvider.
type GeminiOptions struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	Guard   *guard.Guard
	Logger  *zap.Logger
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiEmbedRequest struct {
	Model                string        `json:"model"`
	Content              geminiContent `json:"content"`
	OutputDimensionality int           `json:"outputDimensionality,omitempty"`
}

type geminiValues struct {
	Values []float64 `json:"values"`
}

// geminiEmbedResponse covers the response shapes seen across Gemini API
// versions and compatible proxies.
type geminiEmbedResponse struct {
	Embedding  *geminiValues  `json:"embedding"`
	Embeddings []geminiValues `json:"embeddings"`
	Results    []struct {
		Embedding geminiValues `json:"embedding"`
	} `json:"results"`
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (r *geminiEmbedResponse) values() []float64 {
	switch {
	case r.Embedding != nil && len(r.Embedding.Values) > 0:
		return r.Embedding.Values
	case len(r.Embeddings) > 0 && len(r.Embeddings[0].Values) > 0:
		return r.Embeddings[0].Values
	case len(r.Results) > 0 && len(r.Results[0].Embedding.Values) > 0:
		return r.Results[0].Embedding.Values
	case len(r.Data) > 0 && len(r.Data[0].Embedding) > 0:
		return r.Data[0].Embedding
	}
	return nil
}

// NewGeminiProvider returns ErrNotConfigured without an API key.
func NewGeminiProvider(opts GeminiOptions) (*GeminiProvider, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("gemini: %w", ErrNotConfigured)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if opts.Model == "" {
		opts.Model = "embedding-001"
	}
	return &GeminiProvider{
		client: restclient.New(opts.BaseURL, nil, opts.Timeout),
		apiKey: opts.APIKey,
		model:  opts.Model,
		guard:  opts.Guard,
		logger: utils.OrNop(opts.Logger),
	}, nil
}

// Name returns "gemini".
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Embed requests a dims-length embedding. If the API rejects the requested
// dimensionality, it retries once without it.
func (p *GeminiProvider) Embed(ctx context.Context, text string, dims int) ([]float64, error) {
	var vec []float64
	err := p.guard.Do(ctx, func(ctx context.Context) error {
		v, err := p.embed(ctx, text, dims)
		vec = v
		return err
	})
	return vec, err
}

func (p *GeminiProvider) embed(ctx context.Context, text string, dims int) ([]float64, error) {
	endpoint := fmt.Sprintf("/v1beta/models/%s:embedContent?key=%s", url.PathEscape(p.model), url.QueryEscape(p.apiKey))
	req := geminiEmbedRequest{
		Model:                "models/" + p.model,
		Content:              geminiContent{Parts: []geminiPart{{Text: text}}},
		OutputDimensionality: dims,
	}

	data, status, err := p.client.Post(ctx, endpoint, req, nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		p.logger.Debug("gemini embed rejected outputDimensionality, retrying",
			zap.Int("status", status), zap.String("body", utils.Truncate(string(data), 500)))
		req.OutputDimensionality = 0
		data, status, err = p.client.Post(ctx, endpoint, req, nil)
		if err != nil {
			return nil, err
		}
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("gemini embed: %w", &restclient.StatusError{StatusCode: status, Body: string(data)})
	}

	var resp geminiEmbedResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("gemini embed: decode response: %w", err)
	}
	if v := resp.values(); v != nil {
		return v, nil
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("gemini embed: %s: %w", resp.Error.Message, models.ErrUpstreamUnavailable)
	}
	return nil, fmt.Errorf("gemini embed: %w", errEmptyVector)
}
