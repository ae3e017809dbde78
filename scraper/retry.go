package scraper

import (
	"context"
	"sync"
	"time"

	"github.com/aluiziolira/go-scrape-chunk/config"
)

// retryManager re-queues failed tasks after a capped exponential backoff.
// A waiting retry holds a frontier slot so the crawl does not finish
// underneath it.
type retryManager struct {
	frontier *frontier
	cfg      *config.Config
	metrics  *Metrics
	ctx      context.Context

	mu           sync.Mutex
	timers       map[uint64]*time.Timer
	nextID       uint64
	totalRetries int
	stopped      bool
}

func newRetryManager(f *frontier, cfg *config.Config, metrics *Metrics) *retryManager {
	return &retryManager{
		frontier: f,
		cfg:      cfg,
		timers:   make(map[uint64]*time.Timer),
		metrics:  metrics,
		ctx:      context.Background(),
	}
}

// Schedule arranges another attempt for t and reports whether one was
// scheduled.
func (rm *retryManager) Schedule(t *task) bool {
	if rm.cfg.MaxRetries == 0 {
		return false
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.stopped || rm.ctx.Err() != nil {
		return false
	}
	if t.attempt >= rm.cfg.MaxRetries {
		return false
	}
	if !rm.frontier.hold() {
		return false
	}

	t.attempt++
	rm.totalRetries++
	if rm.metrics != nil {
		rm.metrics.IncRetries()
	}

	delay := rm.backoff(t.attempt)
	rm.nextID++
	id := rm.nextID
	rm.timers[id] = time.AfterFunc(delay, func() {
		rm.fireRetry(id, t)
	})
	return true
}

func (rm *retryManager) backoff(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}

	base := rm.cfg.RetryBackoff
	if base <= 0 {
		base = 100 * time.Millisecond
	}

	delay := base * time.Duration(1<<(attempt-1))
	if max := rm.cfg.RetryBackoffMax; max > 0 && delay > max {
		delay = max
	}
	return delay
}

func (rm *retryManager) fireRetry(id uint64, t *task) {
	rm.mu.Lock()
	delete(rm.timers, id)
	stopped := rm.stopped
	rm.mu.Unlock()

	if stopped || rm.ctx.Err() != nil {
		rm.frontier.release()
		return
	}
	t.status = 0
	rm.frontier.pushHeld(t)
}

// Stop cancels waiting retries and gives their frontier slots back.
func (rm *retryManager) Stop() {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.stopped {
		return
	}

	rm.stopped = true
	for id, timer := range rm.timers {
		if timer.Stop() {
			rm.frontier.release()
		}
		delete(rm.timers, id)
	}
}

func (rm *retryManager) TotalRetries() int {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.totalRetries
}

func (rm *retryManager) SetContext(ctx context.Context) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if ctx == nil {
		rm.ctx = context.Background()
		return
	}
	rm.ctx = ctx
}
