package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"valuescout/internal/config"
	"valuescout/internal/logging"
	"valuescout/internal/model"
)

// clientPool caches one genai client per credential.
// The credential is re-read from the environment on every call, so a key
// rotated at runtime is picked up without a restart.
type clientPool struct {
	mu      sync.RWMutex
	clients map[string]*genai.Client
}

func newClientPool() *clientPool {
	return &clientPool{clients: make(map[string]*genai.Client)}
}

func (p *clientPool) get(ctx context.Context) (*genai.Client, error) {
	apiKey := config.APIKey()
	if apiKey == "" {
		return nil, errEnvironmentAuth()
	}

	p.mu.RLock()
	client, ok := p.clients[apiKey]
	p.mu.RUnlock()
	if ok {
		return client, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if client, ok := p.clients[apiKey]; ok {
		return client, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	// Old keys are dropped so the map never grows past the live credential
	p.clients = map[string]*genai.Client{apiKey: client}
	return client, nil
}

// GeminiClient generates text with Gemini, optionally grounded on Google Search
type GeminiClient struct {
	config *config.GeminiConfig
	pool   *clientPool
	logger *zap.Logger
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(cfg *config.GeminiConfig, logger *zap.Logger) *GeminiClient {
	logger = logging.OrNop(logger)
	return &GeminiClient{
		config: cfg,
		pool:   newClientPool(),
		logger: logger,
	}
}

// IsEnabled returns whether a credential is currently present in the environment
func (c *GeminiClient) IsEnabled() bool {
	return config.APIKey() != ""
}

// Generate performs a single generation call
func (c *GeminiClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	client, err := c.pool.get(ctx)
	if err != nil {
		return nil, err
	}

	temp := float32(c.config.Temperature)
	generateConfig := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: int32(c.config.MaxOutputTokens),
	}

	// Search grounding does not accept a JSON response MIME type
	if req.Grounding {
		generateConfig.Tools = []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		}
	} else if req.JSONOutput {
		generateConfig.ResponseMIMEType = "application/json"
	}

	resp, err := client.Models.GenerateContent(ctx, c.config.Model, genai.Text(req.Prompt), generateConfig)
	if err != nil {
		return nil, wrapGenAIError(err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return &GenerateResponse{}, nil
	}

	candidate := resp.Candidates[0]
	var text strings.Builder
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part != nil && part.Text != "" {
				text.WriteString(part.Text)
			}
		}
	}

	citations := groundingCitations(candidate)
	if resp.UsageMetadata != nil {
		c.logger.Debug("gemini call finished",
			zap.String("model", c.config.Model),
			zap.Bool("grounding", req.Grounding),
			zap.Int32("prompt_tokens", resp.UsageMetadata.PromptTokenCount),
			zap.Int32("output_tokens", resp.UsageMetadata.CandidatesTokenCount),
			zap.Int("citations", len(citations)),
		)
	}

	return &GenerateResponse{
		Text:      text.String(),
		Citations: citations,
	}, nil
}

func groundingCitations(candidate *genai.Candidate) []model.Source {
	if candidate == nil || candidate.GroundingMetadata == nil {
		return nil
	}

	sources := make([]model.Source, 0, len(candidate.GroundingMetadata.GroundingChunks))
	for _, chunk := range candidate.GroundingMetadata.GroundingChunks {
		if chunk == nil {
			continue
		}
		switch {
		case chunk.Web != nil:
			sources = append(sources, model.Source{Title: chunk.Web.Title, URI: chunk.Web.URI})
		case chunk.Maps != nil:
			sources = append(sources, model.Source{Title: chunk.Maps.Title, URI: chunk.Maps.URI})
		case chunk.RetrievedContext != nil:
			sources = append(sources, model.Source{Title: chunk.RetrievedContext.Title, URI: chunk.RetrievedContext.URI})
		}
	}
	return sources
}

// wrapGenAIError turns a genai API failure into a BackendError carrying its status
func wrapGenAIError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &BackendError{StatusCode: apiErr.Code, Status: apiErr.Status, Message: apiErr.Message, Err: err}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &BackendError{StatusCode: apiErrPtr.Code, Status: apiErrPtr.Status, Message: apiErrPtr.Message, Err: err}
	}
	return &BackendError{Message: err.Error(), Err: err}
}

// GeminiEmbedder creates query embeddings for the mission store
type GeminiEmbedder struct {
	config *config.GeminiConfig
	pool   *clientPool
}

// NewGeminiEmbedder creates a new embedder
func NewGeminiEmbedder(cfg *config.GeminiConfig) *GeminiEmbedder {
	return &GeminiEmbedder{
		config: cfg,
		pool:   newClientPool(),
	}
}

// Embed generates an embedding for a single text
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	client, err := e.pool.get(ctx)
	if err != nil {
		return nil, err
	}

	embedConfig := &genai.EmbedContentConfig{TaskType: "SEMANTIC_SIMILARITY"}
	if e.config.EmbeddingDimensions > 0 {
		dims := int32(e.config.EmbeddingDimensions)
		embedConfig.OutputDimensionality = &dims
	}

	contents := []*genai.Content{
		genai.NewContentFromText(text, genai.RoleUser),
	}

	result, err := client.Models.EmbedContent(ctx, e.config.EmbeddingModel, contents, embedConfig)
	if err != nil {
		return nil, fmt.Errorf("embed failed: %w", wrapGenAIError(err))
	}

	if result == nil || len(result.Embeddings) == 0 || result.Embeddings[0] == nil {
		return nil, fmt.Errorf("no embeddings returned")
	}

	return result.Embeddings[0].Values, nil
}
