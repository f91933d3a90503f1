package geocode

import (
	"context"
	"errors"
	"sync"

	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/ports"
)

// MockStep is one scripted answer: either a result or an error.
type MockStep struct {
	Result ports.LookupResult
	Err    error
}

// MockLookup replays scripted answers. Addresses with their own script are
// answered from it in order; the last step repeats once the script runs out.
// Anything else gets Default.
type MockLookup struct {
	mu      sync.Mutex
	scripts map[string][]MockStep
	Default MockStep
	calls   map[string]int
	total   int
}

func NewMockLookup() *MockLookup {
	return &MockLookup{
		scripts: make(map[string][]MockStep),
		calls:   make(map[string]int),
		Default: MockStep{Err: errors.New("mock: no script for address")},
	}
}

// Script sets the answers for address.
func (m *MockLookup) Script(address string, steps ...MockStep) *MockLookup {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts[address] = steps
	return m
}

func (m *MockLookup) Lookup(ctx context.Context, req ports.LookupRequest) (ports.LookupResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.calls[req.Address]
	m.calls[req.Address] = n + 1
	m.total++

	steps, ok := m.scripts[req.Address]
	if !ok || len(steps) == 0 {
		return m.Default.Result, m.Default.Err
	}
	if n >= len(steps) {
		n = len(steps) - 1
	}
	return steps[n].Result, steps[n].Err
}

// Calls returns how many lookups were made for address.
func (m *MockLookup) Calls(address string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[address]
}

func (m *MockLookup) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total
}
