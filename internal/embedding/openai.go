package embedding

import (
	"context"
	"errors"

	openai "github.com/meguminnnnnnnnn/go-openai"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/errs"
)

// OpenAIModel is the embedding client for the OpenAI API.
type OpenAIModel struct {
	client *openai.Client
	model  string
}

// NewOpenAIModel creates an OpenAI embedding client. An optional baseURL
// points the client at an OpenAI-compatible endpoint.
func NewOpenAIModel(model, apiKey, baseURL string) (*OpenAIModel, error) {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = "text-embedding-3-small"
	}
	return &OpenAIModel{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

// Embed generates the vector for a single text.
func (m *OpenAIModel) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch generates vectors for a batch of texts. Non-success upstream
// responses surface as ProviderError with the upstream status and message.
func (m *OpenAIModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	req := openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(m.model),
	}

	resp, err := m.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, asProviderError(ProviderOpenAI, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, &errs.ProviderError{
			Provider: ProviderOpenAI,
			Message:  "embedding count does not match input count",
		}
	}

	embeddings := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		embeddings[i] = d.Embedding
	}
	return embeddings, nil
}

// Dimensions reports the fixed output length of the configured model.
func (m *OpenAIModel) Dimensions() int {
	if m.model == "text-embedding-3-large" {
		return 3072
	}
	// text-embedding-3-small and text-embedding-ada-002
	return 1536
}

func (m *OpenAIModel) Name() string { return ProviderOpenAI }

// asProviderError maps client errors onto the taxonomy, keeping the
// upstream status and message instead of swallowing them.
func asProviderError(provider string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &errs.ProviderError{Provider: provider, Status: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &errs.ProviderError{Provider: provider, Status: reqErr.HTTPStatusCode, Message: reqErr.Error()}
	}
	return &errs.ProviderError{Provider: provider, Message: err.Error()}
}
