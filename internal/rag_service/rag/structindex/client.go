// Package structindex is the HTTP client for the structural-indexing
// collaborator, the external service that turns an uploaded document into
// an outline tree and reports its readiness.
package structindex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/errs"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/interfaces"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/outline"
)

// Client talks to the collaborator's REST surface:
// GET {base}/v1/tree/{docId} and GET {base}/v1/tree/{docId}/status.
type Client struct {
	baseURL string
	hc      *http.Client
}

// NewClient creates a collaborator client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		hc:      &http.Client{Timeout: 30 * time.Second},
	}
}

// GetTree fetches the outline tree for a document.
func (c *Client) GetTree(ctx context.Context, documentID string) (*outline.Node, error) {
	var tree outline.Node
	if err := c.get(ctx, fmt.Sprintf("%s/v1/tree/%s", c.baseURL, documentID), documentID, &tree); err != nil {
		return nil, err
	}
	return &tree, nil
}

// Status fetches the readiness state for a document. Collaborators that
// only expose a boolean readiness flag report indexing until ready.
func (c *Client) Status(ctx context.Context, documentID string) (outline.Status, error) {
	var payload struct {
		Status string `json:"status"`
		Ready  bool   `json:"ready"`
	}
	err := c.get(ctx, fmt.Sprintf("%s/v1/tree/%s/status", c.baseURL, documentID), documentID, &payload)
	if err != nil {
		return "", err
	}
	if payload.Status != "" {
		return outline.Status(payload.Status), nil
	}
	if payload.Ready {
		return outline.StatusReady, nil
	}
	return outline.StatusIndexing, nil
}

func (c *Client) get(ctx context.Context, url, documentID string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("cannot build request: %w", err)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return &errs.ProviderError{Provider: "structindex", Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errs.ProviderError{Provider: "structindex", Status: resp.StatusCode, Message: err.Error()}
	}
	if resp.StatusCode == http.StatusNotFound {
		return &errs.NotFoundError{Resource: "tree", ID: documentID}
	}
	if resp.StatusCode != http.StatusOK {
		return &errs.ProviderError{Provider: "structindex", Status: resp.StatusCode, Message: string(body)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &errs.ProviderError{Provider: "structindex", Status: resp.StatusCode, Message: "malformed response: " + err.Error()}
	}
	return nil
}

var _ interfaces.TreeProvider = (*Client)(nil)
