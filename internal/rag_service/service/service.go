package service

import (
	"context"

	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/config"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/llm"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/interfaces"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/pipeline"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/pkg/logger"
)

// HealthCheck probes one backing dependency.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// RagService is the application facade over the retrieval pipelines. The
// HTTP layer talks to it exclusively in DTO terms.
type RagService struct {
	cfg      *config.AppConfig
	indexing *pipeline.IndexingPipeline
	flat     *pipeline.FlatPipeline
	tree     *pipeline.TreePipeline
	qa       *pipeline.QAPipeline
	llm      interfaces.LLM // nil when no chat provider is configured
	checks   []HealthCheck
	log      *logger.Logger
}

// NewRagService wires the facade.
func NewRagService(
	cfg *config.AppConfig,
	indexing *pipeline.IndexingPipeline,
	flat *pipeline.FlatPipeline,
	tree *pipeline.TreePipeline,
	qa *pipeline.QAPipeline,
	chat interfaces.LLM,
	checks []HealthCheck,
	log *logger.Logger,
) *RagService {
	return &RagService{
		cfg:      cfg,
		indexing: indexing,
		flat:     flat,
		tree:     tree,
		qa:       qa,
		llm:      chat,
		checks:   checks,
		log:      log,
	}
}

// EmbeddingsRequest asks for a document's text to be chunked, embedded and
// stored.
type EmbeddingsRequest struct {
	Text       string `json:"text" binding:"required"`
	Filename   string `json:"filename" binding:"required"`
	DocumentID string `json:"documentId"`
	Provider   string `json:"provider"`
	Replace    bool   `json:"replace"`
}

// EmbeddingsResponse reports what was indexed. Provider is the family that
// actually produced the vectors, which differs from the requested one when
// the local fallback applied.
type EmbeddingsResponse struct {
	Success    bool   `json:"success"`
	ChunkCount int    `json:"chunkCount"`
	DocumentID string `json:"documentId"`
	Provider   string `json:"provider"`
}

// QueryRequest is one flat similarity query. Model optionally overrides the
// configured chat model for answer synthesis.
type QueryRequest struct {
	Question   string `json:"question" binding:"required"`
	DocumentID string `json:"documentId" binding:"required"`
	TopK       int    `json:"topK"`
	Provider   string `json:"provider"`
	Model      string `json:"model"`
}

// FragmentResult is one ranked fragment in a flat query response.
type FragmentResult struct {
	ID       string  `json:"id"`
	Index    int     `json:"index"`
	Offset   int     `json:"offset"`
	Text     string  `json:"text"`
	Score    float32 `json:"score"`
	Filename string  `json:"filename,omitempty"`
}

// QueryResponse carries the ranked fragments plus, when a chat backend is
// configured, a synthesized answer grounded in them.
type QueryResponse struct {
	Answer    string           `json:"answer,omitempty"`
	Fragments []FragmentResult `json:"fragments"`
}

// TreeQueryRequest is one hierarchical query.
type TreeQueryRequest struct {
	Question   string `json:"question" binding:"required"`
	DocumentID string `json:"documentId" binding:"required"`
	Model      string `json:"model"`
}

// StatusResponse reports the readiness of a document's structural index.
type StatusResponse struct {
	DocumentID string `json:"documentId"`
	Status     string `json:"status"`
}

// GenerateEmbeddings runs the indexing pipeline.
func (s *RagService) GenerateEmbeddings(ctx context.Context, req EmbeddingsRequest) (*EmbeddingsResponse, error) {
	res, err := s.indexing.Run(ctx, pipeline.IndexRequest{
		Text:       req.Text,
		DocumentID: req.DocumentID,
		Filename:   req.Filename,
		Provider:   req.Provider,
		Replace:    req.Replace,
	})
	if err != nil {
		return nil, err
	}
	return &EmbeddingsResponse{
		Success:    true,
		ChunkCount: res.ChunkCount,
		DocumentID: res.DocumentID,
		Provider:   res.Provider,
	}, nil
}

// RetrieveFlat runs a flat similarity query and, when a chat backend is
// available, synthesizes an answer from the ranked fragments. Retrieval
// succeeding without a chat backend still returns the fragments.
func (s *RagService) RetrieveFlat(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	scored, err := s.flat.RunWithProvider(ctx, req.Question, req.DocumentID, req.Provider, req.TopK)
	if err != nil {
		return nil, err
	}

	resp := &QueryResponse{Fragments: make([]FragmentResult, 0, len(scored))}
	contexts := make([]string, 0, len(scored))
	for _, sf := range scored {
		filename, _ := sf.Fragment.Metadata["file_name"].(string)
		resp.Fragments = append(resp.Fragments, FragmentResult{
			ID:       sf.Fragment.ID,
			Index:    sf.Fragment.Index,
			Offset:   sf.Fragment.Offset,
			Text:     sf.Fragment.Text,
			Score:    sf.Score,
			Filename: filename,
		})
		contexts = append(contexts, sf.Fragment.Text)
	}

	chat, err := s.chatFor(req.Model)
	if err != nil {
		s.log.WithError(err).Warn("chat model override invalid, returning fragments only")
		chat = nil
	}
	if chat != nil {
		answer, err := s.qa.Run(ctx, chat, req.Question, contexts)
		if err != nil {
			s.log.WithError(err).Warn("answer synthesis failed, returning fragments only")
		} else {
			resp.Answer = answer
		}
	}
	return resp, nil
}

// RetrieveHierarchical runs a tree-reasoning query.
func (s *RagService) RetrieveHierarchical(ctx context.Context, req TreeQueryRequest) (*pipeline.TreeResult, error) {
	var override interfaces.LLM
	if req.Model != "" {
		chat, err := s.chatFor(req.Model)
		if err != nil {
			return nil, err
		}
		override = chat
	}
	return s.tree.Run(ctx, req.Question, req.DocumentID, override)
}

// TreeStatus reports the readiness of a document's structural index.
func (s *RagService) TreeStatus(ctx context.Context, documentID string) (*StatusResponse, error) {
	status, err := s.tree.Status(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return &StatusResponse{DocumentID: documentID, Status: string(status)}, nil
}

// Health runs every registered dependency probe and reports per-dependency
// state. The overall flag is false when any probe fails.
func (s *RagService) Health(ctx context.Context) (bool, map[string]string) {
	ok := true
	detail := make(map[string]string, len(s.checks))
	for _, check := range s.checks {
		if err := check.Check(ctx); err != nil {
			ok = false
			detail[check.Name] = err.Error()
		} else {
			detail[check.Name] = "ok"
		}
	}
	return ok, detail
}

// chatFor returns the chat backend for a request, building a one-off client
// when the request names a model different from the configured one.
func (s *RagService) chatFor(model string) (interfaces.LLM, error) {
	if model == "" {
		return s.llm, nil
	}
	cfg := s.cfg.LLM
	switch cfg.Provider {
	case "openai":
		if cfg.OpenAI.Model == model {
			return s.llm, nil
		}
		cfg.OpenAI.Model = model
	case "ollama":
		if cfg.Ollama.Model == model {
			return s.llm, nil
		}
		cfg.Ollama.Model = model
	}
	return llm.NewClient(cfg)
}
