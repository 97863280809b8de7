// Package outline models the structural index of a document: a strict tree
// of sections/pages with titles and summaries, used for reasoning-based
// retrieval instead of vector similarity.
package outline

import "encoding/json"

// Status is the readiness state of a document's structural index.
type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusIndexing  Status = "indexing"
	StatusReady     Status = "ready"
	StatusFailed    Status = "failed"
)

// Node is one entry of the outline tree. Exactly one parent per node; page
// ranges are monotonic with depth, a child without explicit pages lies
// within its parent's inferred range.
type Node struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	StartPage  int     `json:"start_page,omitempty"`
	EndPage    int     `json:"end_page,omitempty"`
	Summary    string  `json:"summary,omitempty"`
	PreSummary string  `json:"pre_summary,omitempty"`
	Text       string  `json:"text,omitempty"`
	Nodes      []*Node `json:"nodes,omitempty"`
}

// PageRange is the inclusive page span a node covers. Known is false when
// the node carries no page information anywhere up its ancestry, or when a
// selected id could not be located in the tree at all.
type PageRange struct {
	Start int
	End   int
	Known bool
}

// Strip returns a deep copy of the tree with all raw body text removed,
// keeping ids, titles and summaries only. The copy is what gets serialized
// into the reasoning prompt, so it stays compact regardless of document
// size.
func (n *Node) Strip() *Node {
	if n == nil {
		return nil
	}
	out := &Node{
		ID:      n.ID,
		Title:   n.Title,
		Summary: n.Summary,
	}
	if out.Summary == "" {
		out.Summary = n.PreSummary
	}
	for _, child := range n.Nodes {
		out.Nodes = append(out.Nodes, child.Strip())
	}
	return out
}

// MarshalStripped serializes the pruned tree for the reasoning prompt.
func (n *Node) MarshalStripped() ([]byte, error) {
	return json.Marshal(n.Strip())
}

// FindByID searches the subtree rooted at n for the given node id.
func (n *Node) FindByID(id string) *Node {
	if n == nil {
		return nil
	}
	if n.ID == id {
		return n
	}
	for _, child := range n.Nodes {
		if found := child.FindByID(id); found != nil {
			return found
		}
	}
	return nil
}

// BuildPageMap assigns each node a page range in one depth-first pass,
// children inheriting the parent's range when they carry no explicit page
// information. The table is built once per query and keyed by node id.
func BuildPageMap(root *Node) map[string]PageRange {
	table := make(map[string]PageRange)
	assignPages(root, PageRange{}, table)
	return table
}

func assignPages(n *Node, inherited PageRange, table map[string]PageRange) {
	if n == nil {
		return
	}
	r := inherited
	if n.StartPage > 0 {
		r = PageRange{Start: n.StartPage, End: n.EndPage, Known: true}
		if r.End < r.Start {
			r.End = r.Start
		}
	}
	table[n.ID] = r
	for _, child := range n.Nodes {
		assignPages(child, r, table)
	}
}

// Resolve returns the page range for a node id selected by the model. Ids
// missing from the table fall back to a direct recursive search; a node
// that still cannot be located is reported with an unknown range rather
// than dropped.
func Resolve(root *Node, table map[string]PageRange, id string) (*Node, PageRange) {
	node := root.FindByID(id)
	if r, ok := table[id]; ok {
		return node, r
	}
	if node == nil {
		return nil, PageRange{}
	}
	if node.StartPage > 0 {
		end := node.EndPage
		if end < node.StartPage {
			end = node.StartPage
		}
		return node, PageRange{Start: node.StartPage, End: end, Known: true}
	}
	return node, PageRange{}
}
