// Package continuation implements the auto-continuation loop: the
// multi-turn tool-calling state machine that drives a single agent-style
// node through an Idle→Calling→Detect→Execute cycle, detecting tool calls
// from an XML-ish <function_calls><invoke> tagged-markup grammar with a
// forgiving, incremental section-extraction parser.
package continuation

import (
	"regexp"
	"strconv"
	"strings"
)

// ParsedCall is one detected tool invocation, tagged-markup or native.
type ParsedCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// TaggedParser incrementally accumulates streamed text chunks and detects
// complete <function_calls>...</function_calls> blocks once fed. Built to
// be streaming-safe: a chunk boundary may fall anywhere, including mid-tag.
type TaggedParser struct {
	buf strings.Builder
}

// NewTaggedParser creates an empty incremental parser.
func NewTaggedParser() *TaggedParser {
	return &TaggedParser{}
}

// Feed appends a streamed chunk. Safe to call repeatedly as chunks arrive.
func (p *TaggedParser) Feed(chunk string) {
	p.buf.WriteString(chunk)
}

var (
	functionCallsBlock = regexp.MustCompile(`(?s)<function_calls>(.*?)</function_calls>`)
	invokeBlock        = regexp.MustCompile(`(?s)<invoke name="([^"]+)">(.*?)</invoke>`)
	parameterBlock     = regexp.MustCompile(`(?s)<parameter name="([^"]+)">(.*?)</parameter>`)
	integerLiteral     = regexp.MustCompile(`^-?\d+$`)
	floatLiteral       = regexp.MustCompile(`^-?\d+\.\d+$`)
)

// Ready reports whether the buffer currently holds at least one complete
// function_calls block, i.e. enough has been fed to call Detect.
func (p *TaggedParser) Ready() bool {
	return functionCallsBlock.MatchString(p.buf.String())
}

// TextBeforeCalls returns everything accumulated before the first
// <function_calls> tag — the model's prose/thinking preceding tool use.
func (p *TaggedParser) TextBeforeCalls() string {
	text := p.buf.String()
	if idx := strings.Index(text, "<function_calls>"); idx >= 0 {
		return text[:idx]
	}
	return text
}

// Detect parses every complete <function_calls> block accumulated so far
// into ParsedCall values, type-inferring each parameter value as an
// integer, float, or string.
func (p *TaggedParser) Detect() []ParsedCall {
	var calls []ParsedCall
	blocks := functionCallsBlock.FindAllStringSubmatch(p.buf.String(), -1)
	for _, block := range blocks {
		invokes := invokeBlock.FindAllStringSubmatch(block[1], -1)
		for _, inv := range invokes {
			name := inv[1]
			args := map[string]any{}
			params := parameterBlock.FindAllStringSubmatch(inv[2], -1)
			for _, p := range params {
				args[p[1]] = inferValue(strings.TrimSpace(p[2]))
			}
			calls = append(calls, ParsedCall{Name: name, Arguments: args})
		}
	}
	return calls
}

func inferValue(raw string) any {
	switch {
	case integerLiteral.MatchString(raw):
		n, err := strconv.Atoi(raw)
		if err == nil {
			return n
		}
	case floatLiteral.MatchString(raw):
		f, err := strconv.ParseFloat(raw, 64)
		if err == nil {
			return f
		}
	case raw == "true":
		return true
	case raw == "false":
		return false
	}
	return raw
}
