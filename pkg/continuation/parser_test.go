package continuation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTaggedParserStreamingScenario feeds chunks in order and expects
// exactly one tool call detected with {query:"asyncio", max_results:3}
// (integer via type inference).
func TestTaggedParserStreamingScenario(t *testing.T) {
	p := NewTaggedParser()
	p.Feed("Let me search.\n")
	assert.False(t, p.Ready())

	p.Feed("<function_calls>\n<invoke name=\"search_web\">\n<parameter name=\"query\">asyncio</parameter>\n<parameter name=\"max_results\">3</parameter>\n</invoke>\n</function_calls>\n")
	require.True(t, p.Ready())

	calls := p.Detect()
	require.Len(t, calls, 1)
	assert.Equal(t, "search_web", calls[0].Name)
	assert.Equal(t, "asyncio", calls[0].Arguments["query"])
	assert.Equal(t, 3, calls[0].Arguments["max_results"])
	assert.Equal(t, "Let me search.\n", p.TextBeforeCalls())
}

func TestTaggedParserMultipleInvokes(t *testing.T) {
	p := NewTaggedParser()
	p.Feed("<function_calls>" +
		"<invoke name=\"a\"><parameter name=\"x\">1</parameter></invoke>" +
		"<invoke name=\"b\"><parameter name=\"y\">2.5</parameter></invoke>" +
		"</function_calls>")
	calls := p.Detect()
	require.Len(t, calls, 2)
	assert.Equal(t, 1, calls[0].Arguments["x"])
	assert.Equal(t, 2.5, calls[1].Arguments["y"])
}

func TestTaggedParserNoCallsYieldsEmpty(t *testing.T) {
	p := NewTaggedParser()
	p.Feed("just some prose, no tools here")
	assert.False(t, p.Ready())
	assert.Empty(t, p.Detect())
}

func TestInferValueBooleanAndString(t *testing.T) {
	assert.Equal(t, true, inferValue("true"))
	assert.Equal(t, false, inferValue("false"))
	assert.Equal(t, "hello", inferValue("hello"))
	assert.Equal(t, -5, inferValue("-5"))
}
