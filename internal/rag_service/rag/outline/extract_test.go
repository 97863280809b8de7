package outline

import (
	"errors"
	"testing"

	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSelection_BareJSON(t *testing.T) {
	sel, err := ParseSelection(`{"thinking": "sections 2 and 4 cover pricing", "node_list": ["n2", "n4"]}`)
	require.NoError(t, err)
	assert.Equal(t, "sections 2 and 4 cover pricing", sel.Thinking)
	assert.Equal(t, []string{"n2", "n4"}, sel.NodeList)
}

func TestParseSelection_FencedJSON(t *testing.T) {
	raw := "Here is my selection:\n```json\n{\"thinking\": \"ok\", \"node_list\": [\"a\"]}\n```\nDone."
	sel, err := ParseSelection(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, sel.NodeList)
}

func TestParseSelection_JSONEmbeddedInProse(t *testing.T) {
	raw := `Sure! The answer is {"thinking": "x", "node_list": ["n1"]} as requested.`
	sel, err := ParseSelection(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"n1"}, sel.NodeList)
}

func TestParseSelection_BracesInsideStrings(t *testing.T) {
	raw := `{"thinking": "the {pricing} section", "node_list": ["n1"]}`
	sel, err := ParseSelection(raw)
	require.NoError(t, err)
	assert.Equal(t, "the {pricing} section", sel.Thinking)
}

func TestParseSelection_GarbageIsParseError(t *testing.T) {
	for _, raw := range []string{
		"",
		"I cannot answer that.",
		"```json\nnot json at all\n```",
		`{"thinking": "unterminated`,
	} {
		_, err := ParseSelection(raw)
		var parseErr *errs.ParseError
		require.True(t, errors.As(err, &parseErr), "input %q: want ParseError, got %v", raw, err)
	}
}

func TestParseSelection_ParseErrorIsNotProviderError(t *testing.T) {
	_, err := ParseSelection("no json here")
	var provErr *errs.ProviderError
	assert.False(t, errors.As(err, &provErr))
}

func TestExtractJSON_TakesFirstBalancedObject(t *testing.T) {
	raw := `{"a": 1} {"b": 2}`
	span, err := ExtractJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, `{"a": 1}`, span)
}

func TestExtractJSON_UnterminatedFence(t *testing.T) {
	raw := "```json\n{\"a\": 1}"
	span, err := ExtractJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, `{"a": 1}`, span)
}
