// Package ctxmgr implements the context manager: token counting with a
// pluggable, provider-agnostic encoder plus three truncation strategies
// operating over a capped conversation history.
package ctxmgr

import (
	"github.com/pkoukk/tiktoken-go"

	"github.com/codeready-toolchain/deepsearch/pkg/runstate"
)

// EncoderName identifies which encoder actually counted a Usage, so a
// caller can tell a token-accurate count from an approximation.
const (
	EncoderTiktoken EncoderName = "tiktoken:cl100k_base"
	EncoderApprox   EncoderName = "approx:chars/4"
)

// EncoderName names the encoder that produced a token count.
type EncoderName string

// PerMessageOverhead and NameTagOverhead model the small per-message/name
// bookkeeping overhead every provider's chat format adds, roughly 4 tokens.
const (
	PerMessageOverhead = 4
	NameTagOverhead    = 1
)

// Counter counts tokens for a message sequence, preferring a real tiktoken
// encoding and falling back to a char/4 approximation if the encoding
// cannot be loaded (e.g. no network access to fetch BPE ranks).
type Counter struct {
	encoding *tiktoken.Tiktoken
	name     EncoderName
}

// NewCounter attempts to load the cl100k_base encoding; on failure it
// silently falls back to a character/4 approximation.
func NewCounter() *Counter {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return &Counter{name: EncoderApprox}
	}
	return &Counter{encoding: enc, name: EncoderTiktoken}
}

// EncoderUsed reports which encoder is backing this counter.
func (c *Counter) EncoderUsed() EncoderName { return c.name }

// CountText returns the token count for a raw string.
func (c *Counter) CountText(text string) int {
	if text == "" {
		return 0
	}
	if c.encoding != nil {
		return len(c.encoding.Encode(text, nil, nil))
	}
	return approxTokens(text)
}

// CountMessage returns one message's token cost including per-message and
// name-tag overhead.
func (c *Counter) CountMessage(m runstate.Message) int {
	n := PerMessageOverhead + c.CountText(m.Content)
	if m.Name != "" {
		n += NameTagOverhead + c.CountText(m.Name)
	}
	return n
}

// CountMessages returns the total token cost of a message sequence.
func (c *Counter) CountMessages(messages []runstate.Message) int {
	total := 0
	for _, m := range messages {
		total += c.CountMessage(m)
	}
	return total
}

func approxTokens(text string) int {
	n := len(text) / 4
	if n == 0 && text != "" {
		n = 1
	}
	return n
}

// ShouldTruncate returns true once usage has reached ratio·contextWindow.
func ShouldTruncate(usage int, contextWindow int, ratio float64) bool {
	if contextWindow <= 0 {
		return false
	}
	return float64(usage) >= ratio*float64(contextWindow)
}
