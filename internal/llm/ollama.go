package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	ollama "github.com/ollama/ollama/api"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/errs"
)

// Ollama is a chat-completion client for a local Ollama server.
type Ollama struct {
	client *ollama.Client
	model  string
}

// NewOllama creates an Ollama chat client. baseURL defaults to the local
// server.
func NewOllama(model, baseURL string) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	hc := &http.Client{Timeout: 300 * time.Second}

	return &Ollama{client: ollama.NewClient(parsedURL, hc), model: model}, nil
}

// Generate returns a single text completion for the prompt.
func (o *Ollama) Generate(ctx context.Context, prompt string) (string, error) {
	return o.chat(ctx, ollama.Message{Role: "user", Content: prompt})
}

// GenerateVision sends the prompt together with page images.
func (o *Ollama) GenerateVision(ctx context.Context, prompt string, images [][]byte) (string, error) {
	msg := ollama.Message{Role: "user", Content: prompt}
	for _, img := range images {
		msg.Images = append(msg.Images, ollama.ImageData(img))
	}
	return o.chat(ctx, msg)
}

func (o *Ollama) chat(ctx context.Context, msg ollama.Message) (string, error) {
	stream := false
	var sb strings.Builder

	err := o.client.Chat(ctx, &ollama.ChatRequest{
		Model:    o.model,
		Messages: []ollama.Message{msg},
		Stream:   &stream,
	}, func(resp ollama.ChatResponse) error {
		sb.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", &errs.ProviderError{Provider: "ollama", Message: err.Error()}
	}
	return sb.String(), nil
}
