package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/errs"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/interfaces"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/outline"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/storages/treecache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	tree        *outline.Node
	status      outline.Status
	err         error
	statusCalls int
	treeCalls   int
}

func (s *stubProvider) GetTree(_ context.Context, _ string) (*outline.Node, error) {
	s.treeCalls++
	if s.err != nil {
		return nil, s.err
	}
	return s.tree, nil
}

func (s *stubProvider) Status(_ context.Context, _ string) (outline.Status, error) {
	s.statusCalls++
	if s.err != nil {
		return "", s.err
	}
	return s.status, nil
}

// stubLLM replays canned responses in order, one per Generate call.
type stubLLM struct {
	responses   []string
	err         error
	calls       int
	visionCalls int
}

func (s *stubLLM) Generate(_ context.Context, _ string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.calls >= len(s.responses) {
		return "", errors.New("no more canned responses")
	}
	resp := s.responses[s.calls]
	s.calls++
	return resp, nil
}

func (s *stubLLM) GenerateVision(ctx context.Context, prompt string, _ [][]byte) (string, error) {
	s.visionCalls++
	return s.Generate(ctx, prompt)
}

type stubPages struct {
	pages [][]byte
	err   error
}

func (s *stubPages) Pages(_ context.Context, _ string, _, _ int) ([][]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.pages, nil
}

func treeFixture() *outline.Node {
	return &outline.Node{
		ID:    "root",
		Title: "Handbook",
		Nodes: []*outline.Node{
			{ID: "n1", Title: "Onboarding", StartPage: 1, EndPage: 3, Summary: "How new hires get set up."},
			{ID: "n2", Title: "Benefits", StartPage: 4, EndPage: 9, Summary: "Insurance and leave policies."},
		},
	}
}

func newTreePipeline(provider *stubProvider, pages interfaces.PageSource, chat *stubLLM) *TreePipeline {
	log := testLogger()
	return NewTreePipeline(provider, treecache.NewMemoryCache(), pages, chat, NewQAPipeline(log), time.Minute, log)
}

func TestTreeRun_AnswersFromSummaries(t *testing.T) {
	provider := &stubProvider{tree: treeFixture(), status: outline.StatusReady}
	chat := &stubLLM{responses: []string{
		`{"thinking": "benefits covers leave", "node_list": ["n2"]}`,
		"You accrue 25 days of leave per year.",
	}}

	p := newTreePipeline(provider, nil, chat)
	res, err := p.Run(context.Background(), "how much leave do I get?", "doc-1", nil)
	require.NoError(t, err)

	assert.Equal(t, "You accrue 25 days of leave per year.", res.Answer)
	assert.Equal(t, "benefits covers leave", res.Reasoning)
	require.Len(t, res.RetrievedNodes, 1)
	assert.Equal(t, "n2", res.RetrievedNodes[0].ID)
	assert.Equal(t, 4, res.RetrievedNodes[0].StartPage)
	assert.Equal(t, 9, res.RetrievedNodes[0].EndPage)
	require.Len(t, res.Sources, 1)
	assert.Contains(t, res.Sources[0], "pages 4-9")
}

func TestTreeRun_UnknownSelectedIDReportedNotDropped(t *testing.T) {
	provider := &stubProvider{tree: treeFixture(), status: outline.StatusReady}
	chat := &stubLLM{responses: []string{
		`{"thinking": "", "node_list": ["n1", "hallucinated"]}`,
		"answer",
	}}

	p := newTreePipeline(provider, nil, chat)
	res, err := p.Run(context.Background(), "question", "doc-1", nil)
	require.NoError(t, err)

	require.Len(t, res.RetrievedNodes, 2)
	assert.True(t, res.RetrievedNodes[0].PagesKnown)
	assert.False(t, res.RetrievedNodes[1].PagesKnown)
	assert.Equal(t, "hallucinated", res.RetrievedNodes[1].ID)
}

func TestTreeRun_NotReadyStates(t *testing.T) {
	for _, status := range []outline.Status{outline.StatusSubmitted, outline.StatusIndexing, outline.StatusFailed} {
		t.Run(string(status), func(t *testing.T) {
			provider := &stubProvider{tree: treeFixture(), status: status}
			chat := &stubLLM{responses: []string{"unused"}}

			p := newTreePipeline(provider, nil, chat)
			_, err := p.Run(context.Background(), "question", "doc-1", nil)

			var notReady *errs.NotReadyError
			require.True(t, errors.As(err, &notReady), "want NotReadyError, got %v", err)
			assert.Equal(t, string(status), notReady.State)
			assert.Equal(t, "doc-1", notReady.DocumentID)
		})
	}
}

func TestTreeRun_NeverSubmitted(t *testing.T) {
	provider := &stubProvider{err: &errs.NotFoundError{Resource: "tree", ID: "doc-1"}}
	chat := &stubLLM{responses: []string{"unused"}}

	p := newTreePipeline(provider, nil, chat)
	_, err := p.Run(context.Background(), "question", "doc-1", nil)

	var nfErr *errs.NotFoundError
	require.True(t, errors.As(err, &nfErr))
	var notReady *errs.NotReadyError
	assert.False(t, errors.As(err, &notReady))
}

func TestTreeRun_NoLLMConfigured(t *testing.T) {
	provider := &stubProvider{tree: treeFixture(), status: outline.StatusReady}

	p := NewTreePipeline(provider, treecache.NewMemoryCache(), nil, nil, NewQAPipeline(testLogger()), time.Minute, testLogger())
	_, err := p.Run(context.Background(), "question", "doc-1", nil)

	var cfgErr *errs.ConfigurationError
	require.True(t, errors.As(err, &cfgErr), "want ConfigurationError, got %v", err)
}

func TestTreeRun_OverrideLLMUsed(t *testing.T) {
	provider := &stubProvider{tree: treeFixture(), status: outline.StatusReady}
	override := &stubLLM{responses: []string{
		`{"thinking": "", "node_list": ["n1"]}`,
		"override answer",
	}}

	// Default backend is nil; the per-query override alone must serve.
	p := NewTreePipeline(provider, treecache.NewMemoryCache(), nil, nil, NewQAPipeline(testLogger()), time.Minute, testLogger())
	res, err := p.Run(context.Background(), "question", "doc-1", override)
	require.NoError(t, err)
	assert.Equal(t, "override answer", res.Answer)
	assert.Equal(t, 2, override.calls)
}

func TestTreeRun_UnparsableSelectionIsParseError(t *testing.T) {
	provider := &stubProvider{tree: treeFixture(), status: outline.StatusReady}
	chat := &stubLLM{responses: []string{"I would pick the benefits section."}}

	p := newTreePipeline(provider, nil, chat)
	_, err := p.Run(context.Background(), "question", "doc-1", nil)

	var parseErr *errs.ParseError
	require.True(t, errors.As(err, &parseErr), "want ParseError, got %v", err)
}

func TestTreeRun_GroundsInPageImages(t *testing.T) {
	provider := &stubProvider{tree: treeFixture(), status: outline.StatusReady}
	chat := &stubLLM{responses: []string{
		`{"thinking": "", "node_list": ["n1"]}`,
		"answer from pages",
	}}
	pages := &stubPages{pages: [][]byte{{0x89, 0x50}, {0x89, 0x50}}}

	p := newTreePipeline(provider, pages, chat)
	res, err := p.Run(context.Background(), "question", "doc-1", nil)
	require.NoError(t, err)
	assert.Equal(t, "answer from pages", res.Answer)
	assert.Equal(t, 1, chat.visionCalls)
}

func TestTreeRun_PageSourceFailureDegradesToSummaries(t *testing.T) {
	provider := &stubProvider{tree: treeFixture(), status: outline.StatusReady}
	chat := &stubLLM{responses: []string{
		`{"thinking": "", "node_list": ["n1"]}`,
		"summary answer",
	}}
	pages := &stubPages{err: errors.New("bucket unreachable")}

	p := newTreePipeline(provider, pages, chat)
	res, err := p.Run(context.Background(), "question", "doc-1", nil)
	require.NoError(t, err)
	assert.Equal(t, "summary answer", res.Answer)
	assert.Zero(t, chat.visionCalls)
}

func TestTreeStatus_CachedAfterFirstProviderCall(t *testing.T) {
	provider := &stubProvider{tree: treeFixture(), status: outline.StatusReady}
	p := newTreePipeline(provider, nil, &stubLLM{})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		status, err := p.Status(ctx, "doc-1")
		require.NoError(t, err)
		assert.Equal(t, outline.StatusReady, status)
	}
	assert.Equal(t, 1, provider.statusCalls)
}

func TestTreeRun_TreeCachedAfterFirstQuery(t *testing.T) {
	provider := &stubProvider{tree: treeFixture(), status: outline.StatusReady}
	chat := &stubLLM{responses: []string{
		`{"thinking": "", "node_list": ["n1"]}`, "a1",
		`{"thinking": "", "node_list": ["n2"]}`, "a2",
	}}

	p := newTreePipeline(provider, nil, chat)
	ctx := context.Background()
	_, err := p.Run(ctx, "q1", "doc-1", nil)
	require.NoError(t, err)
	_, err = p.Run(ctx, "q2", "doc-1", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, provider.treeCalls)
}

func TestTreeRun_Validation(t *testing.T) {
	p := newTreePipeline(&stubProvider{status: outline.StatusReady}, nil, &stubLLM{})

	var valErr *errs.ValidationError
	_, err := p.Run(context.Background(), "", "doc-1", nil)
	require.True(t, errors.As(err, &valErr))

	_, err = p.Run(context.Background(), "question", "", nil)
	require.True(t, errors.As(err, &valErr))
}
