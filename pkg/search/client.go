// Package search defines the search tool contract consumed by the searcher
// node: search(query, max_results) → [SearchHit], with transient errors
// retried by the tool invoker, plus a deterministic mock for tests.
package search

import (
	"context"

	"github.com/codeready-toolchain/deepsearch/pkg/runstate"
)

// Client is the external search provider contract.
type Client interface {
	Search(ctx context.Context, query string, maxResults int) ([]runstate.SearchHit, error)
}

// MockClient is a scripted Client keyed by query, used by tests to drive
// the searcher node and the cache without a real provider.
type MockClient struct {
	Responses map[string][]runstate.SearchHit
	Err       error
	Calls     []string
}

// NewMockClient creates a mock returning canned results per query.
func NewMockClient(responses map[string][]runstate.SearchHit) *MockClient {
	return &MockClient{Responses: responses}
}

func (m *MockClient) Search(ctx context.Context, query string, maxResults int) ([]runstate.SearchHit, error) {
	m.Calls = append(m.Calls, query)
	if m.Err != nil {
		return nil, m.Err
	}
	hits := m.Responses[query]
	if maxResults > 0 && len(hits) > maxResults {
		hits = hits[:maxResults]
	}
	return hits, nil
}
