package outline

import (
	"encoding/json"
	"strings"

	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/errs"
)

const rawSnippetLimit = 256

// ExtractJSON locates the JSON payload inside a raw model response. Models
// routinely wrap structured output in a fenced code block; the extractor
// takes the first fenced block if present, otherwise the first balanced
// {...} span. Any failure is a ParseError, never a generic error.
func ExtractJSON(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", &errs.ParseError{Reason: "empty response"}
	}

	if fenced, ok := unfence(trimmed); ok {
		trimmed = fenced
	}

	span, ok := balancedObject(trimmed)
	if !ok {
		return "", &errs.ParseError{Reason: "no JSON object found", Raw: snippet(raw)}
	}
	return span, nil
}

// Selection is the structured result of LLM node selection: the node ids
// the model judged relevant plus a short justification.
type Selection struct {
	Thinking string   `json:"thinking"`
	NodeList []string `json:"node_list"`
}

// ParseSelection decodes a node-selection response, stripping code fencing
// first. A response that survives extraction but does not decode into the
// expected shape is still a ParseError.
func ParseSelection(raw string) (*Selection, error) {
	payload, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}
	var sel Selection
	if err := json.Unmarshal([]byte(payload), &sel); err != nil {
		return nil, &errs.ParseError{Reason: err.Error(), Raw: snippet(raw)}
	}
	return &sel, nil
}

// unfence returns the content of the first ``` fenced block, tolerating a
// language tag after the opening fence.
func unfence(s string) (string, bool) {
	start := strings.Index(s, "```")
	if start < 0 {
		return "", false
	}
	rest := s[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		// Drop the language tag line ("json", "JSON", ...).
		firstLine := strings.TrimSpace(rest[:nl])
		if len(firstLine) <= 10 && !strings.ContainsAny(firstLine, "{}") {
			rest = rest[nl+1:]
		}
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		// Unterminated fence, take everything after the opening.
		return strings.TrimSpace(rest), true
	}
	return strings.TrimSpace(rest[:end]), true
}

// balancedObject returns the first balanced top-level {...} span, skipping
// braces inside string literals.
func balancedObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func snippet(raw string) string {
	if len(raw) > rawSnippetLimit {
		return raw[:rawSnippetLimit]
	}
	return raw
}
