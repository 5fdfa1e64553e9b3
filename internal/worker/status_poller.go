package worker

import (
	"context"
	"sync"
	"time"

	"github.com/finovo/recharge-wallet/internal/gateway"
	"github.com/finovo/recharge-wallet/internal/models"
	"github.com/finovo/recharge-wallet/internal/observability"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// reconciler is the slice of the transaction service the poller needs.
type reconciler interface {
	UnresolvedProviderTransactions(ctx context.Context, cutoff time.Time, limit int32) ([]models.Transaction, error)
	ApplyProviderStatus(ctx context.Context, id uuid.UUID, providerStatus string) error
}

// circuitBreaker tracks consecutive failed poll runs. Once the threshold is
// reached the poller sits out until the cooldown elapses, then lets one run
// through as a probe. A clean run resets the counter.
type circuitBreaker struct {
	maxErrors int
	cooldown  time.Duration
	now       func() time.Time

	consecutiveErrors int
	lastReset         time.Time
}

func newCircuitBreaker(maxErrors int, cooldown time.Duration, now func() time.Time) *circuitBreaker {
	return &circuitBreaker{
		maxErrors: maxErrors,
		cooldown:  cooldown,
		now:       now,
		lastReset: now(),
	}
}

func (b *circuitBreaker) open() bool {
	return b.consecutiveErrors >= b.maxErrors
}

// allow reports whether a run may proceed. An open breaker admits runs again
// once the cooldown has elapsed since the last reset; only a clean run
// actually resets the counter.
func (b *circuitBreaker) allow() bool {
	if !b.open() {
		return true
	}
	return b.now().Sub(b.lastReset) >= b.cooldown
}

func (b *circuitBreaker) recordSuccess() {
	b.reset()
}

// recordFailure counts the failed run. The reset timestamp is left alone so
// the cooldown is measured from the last clean run, not the last failure.
func (b *circuitBreaker) recordFailure() {
	b.consecutiveErrors++
	if b.consecutiveErrors == b.maxErrors {
		observability.IncrementBreakerTrip()
	}
	observability.SetBreakerOpen(b.open())
}

func (b *circuitBreaker) reset() {
	b.consecutiveErrors = 0
	b.lastReset = b.now()
	observability.SetBreakerOpen(false)
}

// StatusPoller reconciles provider-held pending transactions. Each run
// selects a batch that has been quiescent past the configured window, asks
// the provider for each transaction's status, and applies the mapping.
// Individual provider errors are logged and skipped; only a run that fails
// outright counts toward the circuit breaker.
type StatusPoller struct {
	svc gateway.Gateway
	rec reconciler

	pollInterval time.Duration
	batchSize    int32
	quiescence   time.Duration
	callDelay    time.Duration
	callTimeout  time.Duration

	breaker  *circuitBreaker
	clock    func() time.Time
	sleep    func(ctx context.Context, d time.Duration)
	stopCh   chan struct{}
	stopOnce sync.Once
}

type StatusPollerOptions struct {
	PollInterval time.Duration
	BatchSize    int32
	Quiescence   time.Duration
	CallDelay    time.Duration
	CallTimeout  time.Duration
	MaxErrors    int
	Cooldown     time.Duration

	// Clock overrides time.Now for tests.
	Clock func() time.Time
}

func NewStatusPoller(gw gateway.Gateway, rec reconciler, opts StatusPollerOptions) *StatusPoller {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 30 * time.Second
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 20
	}
	if opts.Quiescence <= 0 {
		opts.Quiescence = 2 * time.Minute
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 10 * time.Second
	}
	if opts.MaxErrors <= 0 {
		opts.MaxErrors = 5
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = 5 * time.Minute
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &StatusPoller{
		svc:          gw,
		rec:          rec,
		pollInterval: opts.PollInterval,
		batchSize:    opts.BatchSize,
		quiescence:   opts.Quiescence,
		callDelay:    opts.CallDelay,
		callTimeout:  opts.CallTimeout,
		breaker:      newCircuitBreaker(opts.MaxErrors, opts.Cooldown, clock),
		clock:        clock,
		sleep:        sleepCtx,
		stopCh:       make(chan struct{}),
	}
}

// Start blocks and polls at the configured interval.
func (p *StatusPoller) Start(ctx context.Context) {
	zap.L().Info("status poller starting",
		zap.Duration("interval", p.pollInterval),
		zap.Int32("batch_size", p.batchSize),
		zap.Duration("quiescence", p.quiescence))

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("status poller context canceled")
			return
		case <-p.stopCh:
			zap.L().Info("status poller stop signal received")
			return
		case <-ticker.C:
			p.runOnce(ctx)
		}
	}
}

// Stop stops the running poll loop.
func (p *StatusPoller) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})
}

// Run starts the poller in a goroutine and returns a stop function.
func (p *StatusPoller) Run(ctx context.Context) func() {
	go p.Start(ctx)
	return p.Stop
}

func (p *StatusPoller) runOnce(ctx context.Context) {
	if !p.breaker.allow() {
		observability.IncrementPollerRun("skipped")
		zap.L().Warn("status poller run skipped, breaker open",
			zap.Int("consecutive_errors", p.breaker.consecutiveErrors))
		return
	}
	if err := p.pollBatch(ctx); err != nil {
		p.breaker.recordFailure()
		observability.IncrementPollerRun("failed")
		zap.L().Error("status poller run failed", zap.Error(err))
		return
	}
	p.breaker.recordSuccess()
	observability.IncrementPollerRun("success")
}

// pollBatch checks one batch of unresolved transactions. A failed selection
// fails the whole run; a single transaction's provider or apply error is
// logged and counted, and the rest of the batch still runs.
func (p *StatusPoller) pollBatch(ctx context.Context) error {
	cutoff := p.clock().Add(-p.quiescence)
	txs, err := p.rec.UnresolvedProviderTransactions(ctx, cutoff, p.batchSize)
	if err != nil {
		return err
	}

	for i := range txs {
		if i > 0 && p.callDelay > 0 {
			p.sleep(ctx, p.callDelay)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := p.checkOne(ctx, &txs[i]); err != nil {
			zap.L().Warn("status check failed",
				zap.String("transaction_id", txs[i].ID.String()),
				zap.Error(err))
		}
	}
	return nil
}

func (p *StatusPoller) checkOne(ctx context.Context, tx *models.Transaction) error {
	if tx.ExternalRef == nil {
		return nil
	}
	callCtx, cancel := context.WithTimeout(ctx, p.callTimeout)
	result, err := p.svc.CheckStatus(callCtx, *tx.ExternalRef)
	cancel()
	if err != nil {
		observability.IncrementPollerCheck("error")
		return err
	}
	if err := p.rec.ApplyProviderStatus(ctx, tx.ID, result.Status); err != nil {
		observability.IncrementPollerCheck("apply_error")
		return err
	}
	observability.IncrementPollerCheck(result.Status)
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
