package llm

import (
	"context"
	"sync"
)

// Mock implements Client for tests and keyless local runs. Responses are
// consumed in FIFO order per operation; when a queue is empty the fallback
// for that operation is returned. Errors queued via FailNext take priority.
type Mock struct {
	mu sync.Mutex

	classifyQueue []string
	composeQueue  []string
	errQueue      []error

	ClassifyFallback string
	ComposeFallback  string

	ClassifyCalls int
	ComposeCalls  int
}

// NewMock creates a mock client with benign defaults.
func NewMock() *Mock {
	return &Mock{
		ClassifyFallback: `{"reviews": []}`,
		ComposeFallback:  `{"title": "Weekly Pulse", "overview": "No notable activity.", "actions": []}`,
	}
}

// QueueClassify appends canned classification responses.
func (m *Mock) QueueClassify(responses ...string) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.classifyQueue = append(m.classifyQueue, responses...)

	return m
}

// QueueCompose appends canned composition responses.
func (m *Mock) QueueCompose(responses ...string) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.composeQueue = append(m.composeQueue, responses...)

	return m
}

// FailNext makes the next call (either operation) return err.
func (m *Mock) FailNext(errs ...error) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.errQueue = append(m.errQueue, errs...)

	return m
}

// Classify implements Client.
func (m *Mock) Classify(_ context.Context, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ClassifyCalls++

	if err := m.popError(); err != nil {
		return "", err
	}

	if len(m.classifyQueue) > 0 {
		resp := m.classifyQueue[0]
		m.classifyQueue = m.classifyQueue[1:]

		return resp, nil
	}

	return m.ClassifyFallback, nil
}

// Compose implements Client.
func (m *Mock) Compose(_ context.Context, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ComposeCalls++

	if err := m.popError(); err != nil {
		return "", err
	}

	if len(m.composeQueue) > 0 {
		resp := m.composeQueue[0]
		m.composeQueue = m.composeQueue[1:]

		return resp, nil
	}

	return m.ComposeFallback, nil
}

func (m *Mock) popError() error {
	if len(m.errQueue) == 0 {
		return nil
	}

	err := m.errQueue[0]
	m.errQueue = m.errQueue[1:]

	return err
}

// Ensure Mock implements Client.
var _ Client = (*Mock)(nil)
