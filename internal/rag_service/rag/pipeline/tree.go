package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/errs"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/interfaces"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/outline"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/pkg/logger"
)

// notReadyCacheTTL keeps readiness polls cheap without letting a stale
// non-ready state linger once the collaborator finishes.
const notReadyCacheTTL = 5 * time.Second

// TreePipeline answers a question by reasoning over a document's outline
// tree instead of vector similarity.
type TreePipeline struct {
	provider interfaces.TreeProvider // nil when no collaborator is configured
	cache    interfaces.TreeCache
	pages    interfaces.PageSource // nil when no page images exist
	llm      interfaces.LLM        // default chat backend, nil when unconfigured
	qa       *QAPipeline
	cacheTTL time.Duration
	log      *logger.Logger
}

// NewTreePipeline creates a TreePipeline.
func NewTreePipeline(
	provider interfaces.TreeProvider,
	cache interfaces.TreeCache,
	pages interfaces.PageSource,
	llm interfaces.LLM,
	qa *QAPipeline,
	cacheTTL time.Duration,
	log *logger.Logger,
) *TreePipeline {
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	return &TreePipeline{
		provider: provider,
		cache:    cache,
		pages:    pages,
		llm:      llm,
		qa:       qa,
		cacheTTL: cacheTTL,
		log:      log,
	}
}

// NodeRef is one outline node matched to the question, with the page range
// it maps to. PagesKnown is false for nodes without page information and
// for model-selected ids that could not be located in the tree.
type NodeRef struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	StartPage  int    `json:"startPage,omitempty"`
	EndPage    int    `json:"endPage,omitempty"`
	PagesKnown bool   `json:"pagesKnown"`
	Summary    string `json:"-"`
}

// TreeResult is the outcome of one hierarchical query.
type TreeResult struct {
	Answer         string    `json:"answer"`
	Reasoning      string    `json:"reasoning"`
	RetrievedNodes []NodeRef `json:"retrievedNodes"`
	Sources        []string  `json:"sources"`
}

// Status reports the readiness state of a document's structural index,
// consulting the cache before the collaborator. Repeated polls against a
// non-ready document are expected, idempotent and cheap.
func (p *TreePipeline) Status(ctx context.Context, documentID string) (outline.Status, error) {
	if cached, err := p.cache.GetStatus(ctx, documentID); err == nil && cached != "" {
		return cached, nil
	} else if err != nil {
		p.log.WithError(err).Warn("status cache read failed")
	}

	if p.provider == nil {
		return "", &errs.NotFoundError{Resource: "tree", ID: documentID}
	}

	status, err := p.provider.Status(ctx, documentID)
	if err != nil {
		return "", err
	}

	ttl := p.cacheTTL
	if status != outline.StatusReady && status != outline.StatusFailed {
		ttl = notReadyCacheTTL
	}
	if err := p.cache.SetStatus(ctx, documentID, status, ttl); err != nil {
		p.log.WithError(err).Warn("status cache write failed")
	}
	return status, nil
}

// Run executes a hierarchical query. llmOverride replaces the default chat
// backend for this query only.
func (p *TreePipeline) Run(ctx context.Context, question, documentID string, llmOverride interfaces.LLM) (*TreeResult, error) {
	if question == "" {
		return nil, &errs.ValidationError{Field: "question", Reason: "must not be empty"}
	}
	if documentID == "" {
		return nil, &errs.ValidationError{Field: "documentId", Reason: "must not be empty"}
	}

	llm := p.llm
	if llmOverride != nil {
		llm = llmOverride
	}
	if llm == nil {
		return nil, &errs.ConfigurationError{
			Setting: "llm.provider",
			Reason:  "hierarchical retrieval requires a configured language model",
		}
	}

	status, err := p.Status(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if status != outline.StatusReady {
		// Distinct from an empty result so the client retries instead of
		// concluding no relevant content exists.
		return nil, &errs.NotReadyError{DocumentID: documentID, State: string(status)}
	}

	tree, err := p.loadTree(ctx, documentID)
	if err != nil {
		return nil, err
	}

	sel, err := p.selectNodes(ctx, llm, question, tree)
	if err != nil {
		return nil, err
	}

	refs := p.resolveNodes(tree, sel.NodeList)

	answer, sources, err := p.synthesize(ctx, llm, question, documentID, refs)
	if err != nil {
		return nil, err
	}

	return &TreeResult{
		Answer:         answer,
		Reasoning:      sel.Thinking,
		RetrievedNodes: refs,
		Sources:        sources,
	}, nil
}

func (p *TreePipeline) loadTree(ctx context.Context, documentID string) (*outline.Node, error) {
	if cached, err := p.cache.GetTree(ctx, documentID); err == nil && cached != nil {
		return cached, nil
	} else if err != nil {
		p.log.WithError(err).Warn("tree cache read failed")
	}

	if p.provider == nil {
		return nil, &errs.NotFoundError{Resource: "tree", ID: documentID}
	}
	tree, err := p.provider.GetTree(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if err := p.cache.SetTree(ctx, documentID, tree, p.cacheTTL); err != nil {
		p.log.WithError(err).Warn("tree cache write failed")
	}
	return tree, nil
}

// selectNodes asks the model which outline nodes are relevant, reasoning
// over titles and summaries only.
func (p *TreePipeline) selectNodes(ctx context.Context, llm interfaces.LLM, question string, tree *outline.Node) (*outline.Selection, error) {
	stripped, err := tree.MarshalStripped()
	if err != nil {
		return nil, fmt.Errorf("cannot serialize outline tree: %w", err)
	}

	prompt := fmt.Sprintf(
		"You are given the structural outline of a document as JSON (node ids, titles and summaries only) and a question.\n"+
			"Select the nodes most likely to contain the answer.\n\n"+
			"Outline:\n%s\n\nQuestion: %s\n\n"+
			"Reply with a JSON object of the form {\"thinking\": \"<short justification>\", \"node_list\": [\"<node id>\", ...]} and nothing else.",
		stripped, question)

	raw, err := llm.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	sel, err := outline.ParseSelection(raw)
	if err != nil {
		p.log.WithError(err).WithPayload(map[string]interface{}{"raw": truncate(raw, 512)}).Error("node selection response unparsable")
		return nil, err
	}
	return sel, nil
}

// resolveNodes maps selected ids to page ranges via one depth-first pass,
// falling back to a direct tree search for ids missing from the table. An
// id that cannot be located at all is reported with an unknown range, not
// dropped.
func (p *TreePipeline) resolveNodes(tree *outline.Node, ids []string) []NodeRef {
	pageMap := outline.BuildPageMap(tree)

	refs := make([]NodeRef, 0, len(ids))
	for _, id := range ids {
		node, r := outline.Resolve(tree, pageMap, id)
		ref := NodeRef{ID: id, StartPage: r.Start, EndPage: r.End, PagesKnown: r.Known}
		if node != nil {
			ref.Title = node.Title
			ref.Summary = node.Summary
			if ref.Summary == "" {
				ref.Summary = node.PreSummary
			}
		} else {
			ref.Title = "(unknown node)"
			p.log.Warn(fmt.Sprintf("model selected unknown node id %q", id))
		}
		refs = append(refs, ref)
	}
	return refs
}

// synthesize grounds the answer in page images when the page source has
// them, and degrades to node summaries otherwise. Missing page content
// never fails the query outright.
func (p *TreePipeline) synthesize(ctx context.Context, llm interfaces.LLM, question, documentID string, refs []NodeRef) (string, []string, error) {
	var images [][]byte
	if p.pages != nil {
		for _, ref := range refs {
			if !ref.PagesKnown {
				continue
			}
			pages, err := p.pages.Pages(ctx, documentID, ref.StartPage, ref.EndPage)
			if err != nil {
				p.log.WithError(err).Warn("page source unavailable, falling back to summaries")
				images = nil
				break
			}
			images = append(images, pages...)
		}
	}

	sources := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref.PagesKnown {
			sources = append(sources, fmt.Sprintf("pages %d-%d: %s", ref.StartPage, ref.EndPage, ref.Title))
		} else {
			sources = append(sources, fmt.Sprintf("unknown pages: %s", ref.Title))
		}
	}

	if len(images) > 0 {
		answer, err := p.qa.RunVision(ctx, llm, question, images)
		if err != nil {
			return "", nil, err
		}
		return answer, sources, nil
	}

	contexts := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref.Summary != "" {
			contexts = append(contexts, fmt.Sprintf("%s\n%s", ref.Title, ref.Summary))
		} else if ref.Title != "" {
			contexts = append(contexts, ref.Title)
		}
	}
	answer, err := p.qa.Run(ctx, llm, question, contexts)
	if err != nil {
		return "", nil, err
	}
	return answer, sources, nil
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
