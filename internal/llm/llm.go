package llm

import (
	"context"
	"fmt"

	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/config"
)

// LLM is the common interface of the chat-completion backends used for
// tree reasoning and answer synthesis.
type LLM interface {
	// Generate returns a single text completion for the prompt.
	Generate(ctx context.Context, prompt string) (string, error)

	// GenerateVision grounds the prompt in rendered page images. Backends
	// without vision support fall back to text-only generation.
	GenerateVision(ctx context.Context, prompt string, images [][]byte) (string, error)
}

// NewClient creates the configured chat-completion client. An empty
// provider returns (nil, nil): answer synthesis is then unavailable and
// callers surface a ConfigurationError when it is actually needed.
func NewClient(cfg config.LLMConfig) (LLM, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAI(cfg.OpenAI.Model, cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL)
	case "ollama":
		return NewOllama(cfg.Ollama.Model, cfg.Ollama.BaseURL)
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
