package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const defaultExaBaseURL = "https://api.exa.ai"

// ExaClient implements Gateway against the Exa search API. One POST to
// /search per call, contents included so callers get page text without a
// second fetch.
type ExaClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewExaClient creates a client for the Exa API. An empty baseURL selects
// the public endpoint.
func NewExaClient(apiKey, baseURL string, logger *zap.Logger) *ExaClient {
	if baseURL == "" {
		baseURL = defaultExaBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExaClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

type exaSearchRequest struct {
	Query      string      `json:"query"`
	Type       string      `json:"type,omitempty"`
	NumResults int         `json:"numResults,omitempty"`
	Contents   exaContents `json:"contents"`
}

type exaContents struct {
	Text bool `json:"text"`
}

type exaSearchResponse struct {
	Results []struct {
		URL   string `json:"url"`
		Title string `json:"title"`
		Text  string `json:"text"`
	} `json:"results"`
}

// Search executes one search call. Provider failures surface as
// *ProviderError; an empty result list is returned as ([], nil).
func (c *ExaClient) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	if opts.NumResults <= 0 {
		opts.NumResults = 5
	}
	if opts.Mode == "" {
		opts.Mode = ModeAuto
	}

	body, err := json.Marshal(exaSearchRequest{
		Query:      query,
		Type:       string(opts.Mode),
		NumResults: opts.NumResults,
		Contents:   exaContents{Text: true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: "exa", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("search provider rejected request",
			zap.Int("status", resp.StatusCode),
			zap.String("query", query))
		return nil, &ProviderError{
			Provider:   "exa",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", bytes.TrimSpace(msg)),
		}
	}

	var parsed exaSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &ProviderError{Provider: "exa", Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	results := make([]Result, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		results = append(results, Result{URL: r.URL, Title: r.Title, Text: r.Text})
	}

	c.logger.Debug("search completed",
		zap.String("query", query),
		zap.Int("results", len(results)))
	return results, nil
}
