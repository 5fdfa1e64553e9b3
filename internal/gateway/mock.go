package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// MockGateway simulates an external payment provider for tests and local
// runs. It introduces a small random delay and fails a configurable share of
// calls. Initiated transactions resolve to success or failure after a few
// status checks, mimicking asynchronous provider settlement.
type MockGateway struct {
	// FailureRate is the probability of a hard call failure (0.0 to 1.0).
	FailureRate float64
	// SuccessRate is the probability an initiated transaction eventually
	// succeeds rather than fails.
	SuccessRate float64

	mu    sync.Mutex
	polls map[string]int
}

// NewMockGateway creates a MockGateway with default settings.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		FailureRate: 0.05,
		SuccessRate: 0.9,
		polls:       make(map[string]int),
	}
}

func (g *MockGateway) delay(ctx context.Context) error {
	delayMs := time.Duration(100+rand.Intn(400)) * time.Millisecond
	select {
	case <-time.After(delayMs):
		return nil
	case <-ctx.Done():
		return fmt.Errorf("gateway call canceled: %w", ctx.Err())
	}
}

// Initiate accepts the transaction and returns a fake external reference in
// pending state.
func (g *MockGateway) Initiate(ctx context.Context, req InitiateRequest) (InitiateResult, error) {
	if err := g.delay(ctx); err != nil {
		return InitiateResult{}, err
	}
	if rand.Float64() < g.FailureRate {
		return InitiateResult{}, fmt.Errorf("provider temporarily unavailable")
	}

	ref := fmt.Sprintf("MOCK-%s-%05d", time.Now().Format("20060102-150405"), rand.Intn(100000))
	return InitiateResult{ExternalRef: ref, Status: "pending"}, nil
}

// CheckStatus reports processing for the first two polls of a reference and
// then settles it.
func (g *MockGateway) CheckStatus(ctx context.Context, externalRef string) (StatusResult, error) {
	if err := g.delay(ctx); err != nil {
		return StatusResult{}, err
	}
	if rand.Float64() < g.FailureRate {
		return StatusResult{}, fmt.Errorf("provider temporarily unavailable")
	}

	g.mu.Lock()
	g.polls[externalRef]++
	polls := g.polls[externalRef]
	g.mu.Unlock()

	if polls <= 2 {
		return StatusResult{Status: "processing"}, nil
	}
	if rand.Float64() < g.SuccessRate {
		return StatusResult{Status: "success"}, nil
	}
	return StatusResult{Status: "failed"}, nil
}
