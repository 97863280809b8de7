package embedding

import (
	"context"

	"github.com/google/generative-ai-go/genai"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/errs"
	"google.golang.org/api/option"
)

// GoogleModel is the embedding client for the Google GenAI API.
type GoogleModel struct {
	model *genai.EmbeddingModel
}

// NewGoogleModel creates a GenAI embedding client.
func NewGoogleModel(modelName, apiKey string) (*GoogleModel, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = "text-embedding-004"
	}
	return &GoogleModel{model: client.EmbeddingModel(modelName)}, nil
}

// Embed generates the vector for a single text.
func (m *GoogleModel) Embed(ctx context.Context, text string) ([]float32, error) {
	res, err := m.model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, &errs.ProviderError{Provider: ProviderGemini, Message: err.Error()}
	}
	return res.Embedding.Values, nil
}

// EmbedBatch generates vectors for a batch of texts in one upstream call.
func (m *GoogleModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	batch := m.model.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}

	res, err := m.model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, &errs.ProviderError{Provider: ProviderGemini, Message: err.Error()}
	}

	embeddings := make([][]float32, 0, len(res.Embeddings))
	for _, emb := range res.Embeddings {
		embeddings = append(embeddings, emb.Values)
	}
	return embeddings, nil
}

func (m *GoogleModel) Dimensions() int { return 768 }
func (m *GoogleModel) Name() string    { return ProviderGemini }
