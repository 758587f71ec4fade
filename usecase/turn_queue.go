package usecase

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/febriansr/vocalis/domain"
)

const defaultTurnTimeout = 120 * time.Second

// TurnOutcome receives a queued turn's terminal result. err is non-nil only
// for inputs the pipeline rejected outright.
type TurnOutcome func(result *domain.TurnResult, err error)

type queueItem struct {
	req     *domain.TurnRequest
	deliver TurnOutcome
}

// TurnQueue serializes turns arriving from the streaming channel so the
// pipeline processes one clip at a time. A single drain goroutine claims
// items in FIFO order; it stops itself when the queue empties and is
// restarted by the next enqueue. A failing item is delivered on its own
// callback and never halts the drain.
type TurnQueue struct {
	service *TurnService
	timeout time.Duration
	logger  *zap.Logger

	mu       sync.Mutex
	items    []queueItem
	draining bool
}

// NewTurnQueue creates a queue draining into the given service. timeout
// bounds each item's processing; zero uses the default.
func NewTurnQueue(service *TurnService, timeout time.Duration, logger *zap.Logger) *TurnQueue {
	if timeout <= 0 {
		timeout = defaultTurnTimeout
	}
	return &TurnQueue{
		service: service,
		timeout: timeout,
		logger:  logger,
	}
}

// Enqueue adds a turn and returns the queue depth including it, as an
// immediate backpressure signal. The drain loop is started if stopped;
// the single-flight flag keeps two drains from ever running at once.
func (q *TurnQueue) Enqueue(req *domain.TurnRequest, deliver TurnOutcome) int {
	q.mu.Lock()
	q.items = append(q.items, queueItem{req: req, deliver: deliver})
	depth := len(q.items)
	start := !q.draining
	if start {
		q.draining = true
	}
	q.mu.Unlock()

	if start {
		go q.drain()
	}
	return depth
}

// Depth returns the number of pending items.
func (q *TurnQueue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Processing reports whether the drain loop is running.
func (q *TurnQueue) Processing() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.draining
}

// Clear drops all pending items without delivering them.
func (q *TurnQueue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	dropped := len(q.items)
	q.items = nil
	return dropped
}

func (q *TurnQueue) drain() {
	for {
		q.mu.Lock()
		if len(q.items) == 0 {
			q.draining = false
			q.mu.Unlock()
			return
		}
		item := q.items[0]
		q.items = q.items[1:]
		q.mu.Unlock()

		q.process(item)
	}
}

func (q *TurnQueue) process(item queueItem) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	result, err := q.service.RunTurn(ctx, item.req)
	if err != nil {
		q.logger.Error("Queued turn rejected", zap.Error(err))
	} else if result.Status == domain.TurnStatusFailed {
		q.logger.Error("Queued turn failed",
			zap.String("stage", string(result.FailedStage)),
			zap.String("error", result.Err))
	}

	if item.deliver != nil {
		item.deliver(result, err)
	}
}
