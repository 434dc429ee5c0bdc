package ctxmgr

import (
	"fmt"

	"github.com/codeready-toolchain/deepsearch/pkg/runstate"
)

// Strategy selects a truncation algorithm.
type Strategy string

const (
	StrategySmart  Strategy = "smart"
	StrategyFIFO   Strategy = "fifo"
	StrategyMiddle Strategy = "middle"
)

// Budget bounds a truncation pass.
type Budget struct {
	MaxTokens int
	KHead     int // system messages always preserved at the head
	KTail     int // most recent messages always preserved at the tail
}

// Manager applies a truncation Strategy against a token Counter.
type Manager struct {
	counter  *Counter
	strategy Strategy
}

// NewManager creates a context manager using the given strategy, defaulting
// to smart truncation.
func NewManager(counter *Counter, strategy Strategy) *Manager {
	if strategy == "" {
		strategy = StrategySmart
	}
	return &Manager{counter: counter, strategy: strategy}
}

// Truncate applies the configured strategy to messages, returning a new
// slice that fits budget.MaxTokens. Order is always preserved.
func (m *Manager) Truncate(messages []runstate.Message, budget Budget) []runstate.Message {
	if m.counter.CountMessages(messages) <= budget.MaxTokens {
		return messages
	}
	switch m.strategy {
	case StrategyFIFO:
		return m.truncateFIFO(messages, budget)
	case StrategyMiddle:
		return m.truncateMiddle(messages, budget)
	default:
		return m.truncateSmart(messages, budget)
	}
}

// truncateSmart preserves the first KHead system messages and the last
// KTail messages, then packs the most recent middle messages that fit the
// remainder, preserving original order.
func (m *Manager) truncateSmart(messages []runstate.Message, budget Budget) []runstate.Message {
	head, tail, middle := splitHeadTail(messages, budget.KHead, budget.KTail)

	used := m.counter.CountMessages(head) + m.counter.CountMessages(tail)
	remaining := budget.MaxTokens - used

	var packed []runstate.Message
	for i := len(middle) - 1; i >= 0; i-- {
		cost := m.counter.CountMessage(middle[i])
		if cost > remaining {
			break
		}
		packed = append([]runstate.Message{middle[i]}, packed...)
		remaining -= cost
	}

	result := make([]runstate.Message, 0, len(head)+len(packed)+len(tail))
	result = append(result, head...)
	result = append(result, packed...)
	result = append(result, tail...)
	return result
}

// truncateFIFO drops the oldest non-system message until the remainder
// fits.
func (m *Manager) truncateFIFO(messages []runstate.Message, budget Budget) []runstate.Message {
	result := append([]runstate.Message(nil), messages...)
	for m.counter.CountMessages(result) > budget.MaxTokens {
		idx := firstNonSystem(result)
		if idx == -1 {
			break // nothing left to drop but system messages
		}
		result = append(result[:idx], result[idx+1:]...)
	}
	return result
}

// truncateMiddle keeps head + tail and fills inward from both ends with
// whatever fits.
func (m *Manager) truncateMiddle(messages []runstate.Message, budget Budget) []runstate.Message {
	head, tail, middle := splitHeadTail(messages, budget.KHead, budget.KTail)
	used := m.counter.CountMessages(head) + m.counter.CountMessages(tail)
	remaining := budget.MaxTokens - used

	lo, hi := 0, len(middle)-1
	var fromFront, fromBack []runstate.Message
	for lo <= hi {
		frontCost := m.counter.CountMessage(middle[lo])
		if frontCost <= remaining {
			fromFront = append(fromFront, middle[lo])
			remaining -= frontCost
			lo++
			continue
		}
		break
	}
	for hi >= lo {
		backCost := m.counter.CountMessage(middle[hi])
		if backCost <= remaining {
			fromBack = append([]runstate.Message{middle[hi]}, fromBack...)
			remaining -= backCost
			hi--
			continue
		}
		break
	}

	result := make([]runstate.Message, 0, len(head)+len(fromFront)+len(fromBack)+len(tail))
	result = append(result, head...)
	result = append(result, fromFront...)
	result = append(result, fromBack...)
	result = append(result, tail...)
	return result
}

func splitHeadTail(messages []runstate.Message, kHead, kTail int) (head, tail, middle []runstate.Message) {
	n := len(messages)
	if kHead < 0 {
		kHead = 0
	}
	if kTail < 0 {
		kTail = 0
	}
	if kHead > n {
		kHead = n
	}
	if kTail > n-kHead {
		kTail = n - kHead
	}
	head = messages[:kHead]
	tail = messages[n-kTail:]
	middle = messages[kHead : n-kTail]
	return
}

func firstNonSystem(messages []runstate.Message) int {
	for i, m := range messages {
		if m.Role != runstate.RoleSystem {
			return i
		}
	}
	return -1
}

// SummarizeLongMessage returns a byte-equivalent truncation of msg.Content
// capped at capChars, with an explicit marker appended, preserving the
// message's role.
func SummarizeLongMessage(msg runstate.Message, capChars int) runstate.Message {
	if capChars <= 0 || len(msg.Content) <= capChars {
		return msg
	}
	truncated := msg
	truncated.Content = fmt.Sprintf("%s... [truncated %d chars]", msg.Content[:capChars], len(msg.Content)-capChars)
	truncated.Truncated = true
	return truncated
}
