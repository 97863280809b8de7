package embedding

import (
	"errors"
	"fmt"
	"sync"

	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/config"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/errs"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/pkg/logger"
)

// NewModel creates the embedding backend for indexing new documents. A
// remote provider with a missing credential, or an unknown/chat-only
// provider tag, resolves to the local fallback rather than an error: the
// fallback is the designed recovery path for the no-credential mode, and
// the resolved provider tag is what gets stored on the document.
func NewModel(cfg config.EmbeddingConfig, log *logger.Logger) (Embedding, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.OpenAI.APIKey == "" {
			log.Warn("no OpenAI API key configured, using local fallback embeddings")
			return NewLocalModel(), nil
		}
		return NewOpenAIModel(cfg.OpenAI.Model, cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL)
	case ProviderGemini:
		if cfg.Gemini.APIKey == "" {
			log.Warn("no Gemini API key configured, using local fallback embeddings")
			return NewLocalModel(), nil
		}
		return NewGoogleModel(cfg.Gemini.Model, cfg.Gemini.APIKey)
	case ProviderOllama:
		return NewOllamaModel(cfg.Ollama.Model, cfg.Ollama.BaseURL)
	case ProviderLocal, "":
		return NewLocalModel(), nil
	default:
		// Chat-only backends have no embeddings capability.
		log.Warn(fmt.Sprintf("provider %q has no embeddings capability, using local fallback embeddings", cfg.Provider))
		return NewLocalModel(), nil
	}
}

// Resolver hands out embedding backends by provider tag at query time. It
// is strict where NewModel is lenient: a stored tag whose credential is no
// longer configured is a ConfigurationError, because silently falling back
// to a different provider family would degrade ranking against the stored
// vectors.
type Resolver struct {
	cfg config.EmbeddingConfig
	log *logger.Logger

	mu    sync.Mutex
	cache map[string]Embedding
}

// NewResolver creates a Resolver over the configured providers.
func NewResolver(cfg config.EmbeddingConfig, log *logger.Logger) *Resolver {
	return &Resolver{cfg: cfg, log: log, cache: make(map[string]Embedding)}
}

// Default returns the backend used for indexing new documents, with the
// fallback semantics of NewModel.
func (r *Resolver) Default() (Embedding, error) {
	model, err := NewModel(r.cfg, r.log)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok := r.cache[model.Name()]; ok {
		return cached, nil
	}
	r.cache[model.Name()] = model
	return model, nil
}

// ModelForIndexing returns the backend for a requested provider tag at
// embedding-generation time, where a missing credential or unknown tag
// resolves to the local fallback instead of failing. The fallback's own
// tag is what ends up stored on the document.
func (r *Resolver) ModelForIndexing(provider string) (Embedding, error) {
	if provider == "" {
		return r.Default()
	}
	model, err := r.ModelFor(provider)
	if err == nil {
		return model, nil
	}
	var cfgErr *errs.ConfigurationError
	if errors.As(err, &cfgErr) {
		r.log.Warn(fmt.Sprintf("provider %q unavailable (%s), using local fallback embeddings", provider, cfgErr.Reason))
		return r.ModelFor(ProviderLocal)
	}
	return nil, err
}

// ModelFor returns the backend for a document's stored provider tag.
func (r *Resolver) ModelFor(provider string) (Embedding, error) {
	r.mu.Lock()
	if cached, ok := r.cache[provider]; ok {
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	var (
		model Embedding
		err   error
	)
	switch provider {
	case ProviderLocal:
		model = NewLocalModel()
	case ProviderOpenAI:
		if r.cfg.OpenAI.APIKey == "" {
			return nil, &errs.ConfigurationError{
				Setting: "embedding.openai.apiKey",
				Reason:  "document was indexed with openai embeddings but no credential is configured",
			}
		}
		model, err = NewOpenAIModel(r.cfg.OpenAI.Model, r.cfg.OpenAI.APIKey, r.cfg.OpenAI.BaseURL)
	case ProviderGemini:
		if r.cfg.Gemini.APIKey == "" {
			return nil, &errs.ConfigurationError{
				Setting: "embedding.gemini.apiKey",
				Reason:  "document was indexed with gemini embeddings but no credential is configured",
			}
		}
		model, err = NewGoogleModel(r.cfg.Gemini.Model, r.cfg.Gemini.APIKey)
	case ProviderOllama:
		model, err = NewOllamaModel(r.cfg.Ollama.Model, r.cfg.Ollama.BaseURL)
	default:
		return nil, &errs.ConfigurationError{
			Setting: "embedding.provider",
			Reason:  fmt.Sprintf("unknown provider tag %q", provider),
		}
	}
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[provider] = model
	return model, nil
}
