package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	openai "github.com/meguminnnnnnnnn/go-openai"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/errs"
)

// OpenAI is a chat-completion client for the OpenAI API.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates an OpenAI chat client. An optional baseURL points the
// client at an OpenAI-compatible endpoint.
func NewOpenAI(model, apiKey, baseURL string) (*OpenAI, error) {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

// Generate returns a single text completion for the prompt.
func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	return o.complete(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	})
}

// GenerateVision sends the prompt together with page images as inline
// base64 payloads.
func (o *OpenAI) GenerateVision(ctx context.Context, prompt string, images [][]byte) (string, error) {
	if len(images) == 0 {
		return o.Generate(ctx, prompt)
	}

	parts := []openai.ChatMessagePart{
		{Type: openai.ChatMessagePartTypeText, Text: prompt},
	}
	for _, img := range images {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL: fmt.Sprintf("data:image/png;base64,%s", base64.StdEncoding.EncodeToString(img)),
			},
		})
	}

	return o.complete(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, MultiContent: parts},
	})
}

func (o *OpenAI) complete(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: messages,
	})
	if err != nil {
		return "", chatProviderError(err)
	}
	if len(resp.Choices) == 0 {
		return "", &errs.ProviderError{Provider: "openai", Message: "no choices returned"}
	}
	return resp.Choices[0].Message.Content, nil
}

func chatProviderError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &errs.ProviderError{Provider: "openai", Status: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &errs.ProviderError{Provider: "openai", Status: reqErr.HTTPStatusCode, Message: reqErr.Error()}
	}
	return &errs.ProviderError{Provider: "openai", Message: err.Error()}
}
