package graph

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/codeready-toolchain/deepsearch/pkg/runstate"
)

// ErrCheckpointNotFound is returned by Get when no checkpoint exists for
// the given thread (and, if supplied, checkpoint id).
var ErrCheckpointNotFound = errors.New("checkpoint not found")

// Checkpointer is the pluggable persistence contract keyed by
// (thread_id, checkpoint_id). Writes are atomic per state transition;
// reads of a thread return the latest checkpoint when checkpointID is
// empty.
type Checkpointer interface {
	Setup(ctx context.Context) error
	Put(ctx context.Context, threadID, checkpointID string, run *runstate.Run) error
	Get(ctx context.Context, threadID, checkpointID string) (*runstate.Run, error)
	List(ctx context.Context, threadID string) ([]string, error)
}

type memoryRecord struct {
	checkpointID string
	run          *runstate.Run
	writtenAt    time.Time
}

// MemoryCheckpointer is the ephemeral in-memory implementation — no
// durability across process restart, used for tests and local runs.
type MemoryCheckpointer struct {
	mu   sync.Mutex
	byID map[string][]memoryRecord // threadID -> ordered records
}

// NewMemoryCheckpointer creates an empty in-memory checkpointer.
func NewMemoryCheckpointer() *MemoryCheckpointer {
	return &MemoryCheckpointer{byID: make(map[string][]memoryRecord)}
}

func (m *MemoryCheckpointer) Setup(ctx context.Context) error { return nil }

func (m *MemoryCheckpointer) Put(ctx context.Context, threadID, checkpointID string, run *runstate.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[threadID] = append(m.byID[threadID], memoryRecord{
		checkpointID: checkpointID,
		run:          run.Clone(),
		writtenAt:    nowFunc(),
	})
	return nil
}

func (m *MemoryCheckpointer) Get(ctx context.Context, threadID, checkpointID string) (*runstate.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	records, ok := m.byID[threadID]
	if !ok || len(records) == 0 {
		return nil, ErrCheckpointNotFound
	}
	if checkpointID == "" {
		return records[len(records)-1].run.Clone(), nil
	}
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].checkpointID == checkpointID {
			return records[i].run.Clone(), nil
		}
	}
	return nil, ErrCheckpointNotFound
}

func (m *MemoryCheckpointer) List(ctx context.Context, threadID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	records := m.byID[threadID]
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.checkpointID)
	}
	sort.Strings(ids)
	return ids, nil
}

// nowFunc is a seam so checkpoint ordering tests don't depend on wall-clock
// resolution; production code always uses time.Now.
var nowFunc = time.Now
