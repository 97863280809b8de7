package embedding

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	ollama "github.com/ollama/ollama/api"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/errs"
)

// OllamaModel is the embedding client for a local Ollama server.
type OllamaModel struct {
	client *ollama.Client
	model  string
}

// NewOllamaModel creates an Ollama embedding client. baseURL defaults to
// the local server.
func NewOllamaModel(model, baseURL string) (*OllamaModel, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	// Timeout so a stalled server surfaces as ProviderError, never a hang.
	hc := &http.Client{Timeout: 120 * time.Second}

	return &OllamaModel{client: ollama.NewClient(parsedURL, hc), model: model}, nil
}

// Embed generates the vector for a single text.
func (m *OllamaModel) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := m.client.Embed(ctx, &ollama.EmbedRequest{
		Model: m.model,
		Input: text,
	})
	if err != nil {
		return nil, &errs.ProviderError{Provider: ProviderOllama, Message: err.Error()}
	}
	if len(resp.Embeddings) == 0 {
		return nil, &errs.ProviderError{Provider: ProviderOllama, Message: "no embeddings returned"}
	}
	return resp.Embeddings[0], nil
}

// EmbedBatch generates vectors for a batch of texts.
func (m *OllamaModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := m.client.Embed(ctx, &ollama.EmbedRequest{
		Model: m.model,
		Input: texts,
	})
	if err != nil {
		return nil, &errs.ProviderError{Provider: ProviderOllama, Message: err.Error()}
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, &errs.ProviderError{Provider: ProviderOllama, Message: "embedding count does not match input count"}
	}
	return resp.Embeddings, nil
}

// Dimensions is model-dependent for Ollama; the store validates batch
// consistency instead.
func (m *OllamaModel) Dimensions() int { return 0 }

func (m *OllamaModel) Name() string { return ProviderOllama }
