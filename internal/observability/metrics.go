package observability

import "sync"

// Operation outcomes recorded by the session store.
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeDiscarded = "discarded"
)

// Metrics provides basic in-memory counters for session operations.
type Metrics struct {
	mu            sync.Mutex
	opCount       map[string]int64
	staleDiscards int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		opCount: make(map[string]int64),
	}
}

// RecordOperation increments the counter for an operation outcome.
func (m *Metrics) RecordOperation(op, outcome string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opCount[op+"|"+outcome]++
}

// RecordStaleDiscard counts a result dropped by the staleness check.
func (m *Metrics) RecordStaleDiscard(op string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opCount[op+"|"+OutcomeDiscarded]++
	m.staleDiscards++
}

// OperationCount returns the recorded count for an operation outcome.
func (m *Metrics) OperationCount(op, outcome string) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opCount[op+"|"+outcome]
}

// StaleDiscards returns the total number of discarded stale results.
func (m *Metrics) StaleDiscards() int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.staleDiscards
}
