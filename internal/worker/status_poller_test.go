package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/finovo/recharge-wallet/internal/domain"
	"github.com/finovo/recharge-wallet/internal/gateway"
	"github.com/finovo/recharge-wallet/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances only when told to, so breaker timing is deterministic.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestCircuitBreakerOpensAfterMaxErrors(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	b := newCircuitBreaker(5, 5*time.Minute, clock.now)

	for i := 0; i < 4; i++ {
		b.recordFailure()
		assert.True(t, b.allow(), "below threshold after %d failures", i+1)
	}
	b.recordFailure()
	assert.True(t, b.open())
	assert.False(t, b.allow(), "open breaker inside cooldown")

	clock.advance(4 * time.Minute)
	assert.False(t, b.allow(), "cooldown not elapsed yet")

	clock.advance(time.Minute)
	assert.True(t, b.allow(), "cooled-down breaker admits a probe")
	assert.True(t, b.open(), "the probe itself does not reset the counter")

	// A failing probe keeps the breaker open; only a clean run resets it.
	b.recordFailure()
	assert.True(t, b.open())
	b.recordSuccess()
	assert.False(t, b.open())
}

func TestCircuitBreakerSuccessResets(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	b := newCircuitBreaker(3, time.Minute, clock.now)

	b.recordFailure()
	b.recordFailure()
	b.recordSuccess()
	b.recordFailure()
	b.recordFailure()
	assert.False(t, b.open(), "success cleared the streak")

	b.recordFailure()
	assert.True(t, b.open())
}

type stubReconciler struct {
	txs     []models.Transaction
	listErr error

	applied  map[uuid.UUID]string
	applyErr error
}

func (r *stubReconciler) UnresolvedProviderTransactions(ctx context.Context, cutoff time.Time, limit int32) ([]models.Transaction, error) {
	return r.txs, r.listErr
}

func (r *stubReconciler) ApplyProviderStatus(ctx context.Context, id uuid.UUID, providerStatus string) error {
	if r.applyErr != nil {
		return r.applyErr
	}
	if r.applied == nil {
		r.applied = make(map[uuid.UUID]string)
	}
	r.applied[id] = providerStatus
	return nil
}

type stubStatusGateway struct {
	result gateway.StatusResult
	err    error
	calls  int
}

func (g *stubStatusGateway) Initiate(ctx context.Context, req gateway.InitiateRequest) (gateway.InitiateResult, error) {
	return gateway.InitiateResult{}, errors.New("not used")
}

func (g *stubStatusGateway) CheckStatus(ctx context.Context, externalRef string) (gateway.StatusResult, error) {
	g.calls++
	return g.result, g.err
}

func pendingTx(ref string) models.Transaction {
	tx := models.Transaction{ID: uuid.New(), Status: domain.TxStatusPending}
	if ref != "" {
		tx.ExternalRef = &ref
	}
	return tx
}

func newTestPoller(gw gateway.Gateway, rec reconciler) *StatusPoller {
	p := NewStatusPoller(gw, rec, StatusPollerOptions{
		CallDelay: time.Millisecond,
		MaxErrors: 2,
		Cooldown:  time.Minute,
	})
	p.sleep = func(ctx context.Context, d time.Duration) {}
	return p
}

func TestPollBatchAppliesStatuses(t *testing.T) {
	first := pendingTx("EXT-1")
	second := pendingTx("EXT-2")
	unrouted := pendingTx("")
	rec := &stubReconciler{txs: []models.Transaction{first, unrouted, second}}
	gw := &stubStatusGateway{result: gateway.StatusResult{Status: domain.GatewayStatusSuccess}}
	p := newTestPoller(gw, rec)

	require.NoError(t, p.pollBatch(context.Background()))
	assert.Equal(t, 2, gw.calls, "transactions without a provider ref are skipped")
	assert.Equal(t, domain.GatewayStatusSuccess, rec.applied[first.ID])
	assert.Equal(t, domain.GatewayStatusSuccess, rec.applied[second.ID])
	_, ok := rec.applied[unrouted.ID]
	assert.False(t, ok)
}

func TestPollBatchContinuesPastProviderError(t *testing.T) {
	rec := &stubReconciler{txs: []models.Transaction{pendingTx("EXT-1"), pendingTx("EXT-2")}}
	gw := &stubStatusGateway{err: errors.New("provider down")}
	p := newTestPoller(gw, rec)

	// A single transaction's error does not fail the run.
	require.NoError(t, p.pollBatch(context.Background()))
	assert.Equal(t, 2, gw.calls, "remaining transactions are still checked")
	assert.Empty(t, rec.applied)
}

func TestPollBatchContinuesPastApplyError(t *testing.T) {
	rec := &stubReconciler{
		txs:      []models.Transaction{pendingTx("EXT-1")},
		applyErr: errors.New("db down"),
	}
	gw := &stubStatusGateway{result: gateway.StatusResult{Status: domain.GatewayStatusFailed}}
	p := newTestPoller(gw, rec)

	require.NoError(t, p.pollBatch(context.Background()))
}

func TestPollBatchFailsOnSelectionError(t *testing.T) {
	rec := &stubReconciler{listErr: errors.New("db down")}
	p := newTestPoller(&stubStatusGateway{}, rec)

	require.Error(t, p.pollBatch(context.Background()))
}

func TestRunOnceSkipsWhileBreakerOpen(t *testing.T) {
	rec := &stubReconciler{listErr: errors.New("db down")}
	gw := &stubStatusGateway{}
	p := newTestPoller(gw, rec)

	ctx := context.Background()
	p.runOnce(ctx)
	p.runOnce(ctx)
	require.True(t, p.breaker.open())

	// With the breaker open the poller does not even list transactions.
	rec.listErr = nil
	rec.txs = []models.Transaction{pendingTx("EXT-1")}
	p.runOnce(ctx)
	assert.Equal(t, 0, gw.calls)
	assert.Empty(t, rec.applied)
}

func TestRunOnceProbesAfterCooldown(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	rec := &stubReconciler{listErr: errors.New("db down")}
	gw := &stubStatusGateway{result: gateway.StatusResult{Status: domain.GatewayStatusSuccess}}
	p := NewStatusPoller(gw, rec, StatusPollerOptions{
		MaxErrors: 2,
		Cooldown:  time.Minute,
		Clock:     clock.now,
	})
	p.sleep = func(ctx context.Context, d time.Duration) {}

	ctx := context.Background()
	p.runOnce(ctx)
	p.runOnce(ctx)
	require.True(t, p.breaker.open())

	rec.listErr = nil
	tx := pendingTx("EXT-1")
	rec.txs = []models.Transaction{tx}

	clock.advance(time.Minute)
	p.runOnce(ctx)
	assert.Equal(t, domain.GatewayStatusSuccess, rec.applied[tx.ID])
	assert.False(t, p.breaker.open())
}

func TestStartStopsOnSignal(t *testing.T) {
	rec := &stubReconciler{}
	gw := &stubStatusGateway{}
	p := NewStatusPoller(gw, rec, StatusPollerOptions{PollInterval: 10 * time.Millisecond})

	stop := p.Run(context.Background())
	time.Sleep(30 * time.Millisecond)
	stop()
	stop() // idempotent

	done := make(chan struct{})
	go func() {
		// Start returns promptly once the stop channel is closed.
		p.Start(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}
