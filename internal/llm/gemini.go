package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	defaultGeminiModel    = "gemini-2.0-flash"
	defaultEmbeddingModel = "text-embedding-004"
)

// GeminiGateway implements Gateway using the Google GenAI SDK with
// schema-constrained JSON decoding.
type GeminiGateway struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// NewGeminiGateway creates a gateway for the Gemini API. An empty model
// selects the default.
func NewGeminiGateway(ctx context.Context, apiKey, model string, logger *zap.Logger) (*GeminiGateway, error) {
	if model == "" {
		model = defaultGeminiModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiGateway{client: client, model: model, logger: logger}, nil
}

// Complete sends one completion request constrained to JSON output and
// decodes the response into req.Out.
func (g *GeminiGateway) Complete(ctx context.Context, req Request) error {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}
	if req.Schema != nil {
		cfg.ResponseSchema = req.Schema
	}
	if req.Temperature > 0 {
		cfg.Temperature = genai.Ptr(req.Temperature)
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return fmt.Errorf("gemini completion failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return &SchemaError{Provider: "gemini", Err: fmt.Errorf("empty response")}
	}
	if err := json.Unmarshal([]byte(text), req.Out); err != nil {
		g.logger.Warn("gemini response failed to parse", zap.Error(err))
		return &SchemaError{Provider: "gemini", Raw: text, Err: err}
	}
	return nil
}

var _ Gateway = (*GeminiGateway)(nil)

// GeminiEmbedder generates embedding vectors through the same GenAI client.
type GeminiEmbedder struct {
	client *genai.Client
	model  string
}

// NewGeminiEmbedder creates an embedder. An empty model selects
// text-embedding-004 (768 dimensions).
func NewGeminiEmbedder(ctx context.Context, apiKey, model string) (*GeminiEmbedder, error) {
	if model == "" {
		model = defaultEmbeddingModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiEmbedder{client: client, model: model}, nil
}

// Embed generates an embedding vector for the given text.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Models.EmbedContent(ctx, e.model, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to embed content: %w", err)
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return resp.Embeddings[0].Values, nil
}

var _ Embedder = (*GeminiEmbedder)(nil)
