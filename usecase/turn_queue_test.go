package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/febriansr/vocalis/domain"
	"github.com/febriansr/vocalis/domain/entities"
	"github.com/febriansr/vocalis/domain/repositories"
)

// serialLLM echoes the incoming user message and records call order. It
// trips the test if two completions ever overlap.
type serialLLM struct {
	mu      sync.Mutex
	order   []string
	active  int32
	overlap atomic.Bool
	failOn  string
}

func (f *serialLLM) Complete(ctx context.Context, messages []repositories.ChatMessage, opts repositories.CompletionOptions) (*repositories.Completion, error) {
	if atomic.AddInt32(&f.active, 1) > 1 {
		f.overlap.Store(true)
	}
	defer atomic.AddInt32(&f.active, -1)
	time.Sleep(2 * time.Millisecond)

	last := messages[len(messages)-1].Content
	f.mu.Lock()
	f.order = append(f.order, last)
	f.mu.Unlock()

	if f.failOn != "" && last == f.failOn {
		return nil, errors.New("model overloaded")
	}
	return &repositories.Completion{Text: "echo: " + last}, nil
}

func newQueueFixture(llm repositories.ChatCompletion, timeout time.Duration) *TurnQueue {
	history := entities.NewHistory(100)
	svc := NewTurnService(&fakeSTT{}, llm, &fakeTTS{}, history, TurnServiceConfig{}, zap.NewNop())
	return NewTurnQueue(svc, timeout, zap.NewNop())
}

func TestQueueProcessesInOrder(t *testing.T) {
	llm := &serialLLM{}
	queue := newQueueFixture(llm, 0)

	var mu sync.Mutex
	var replies []string
	done := make(chan struct{}, 3)
	for i := 0; i < 3; i++ {
		message := fmt.Sprintf("turn-%d", i)
		queue.Enqueue(&domain.TurnRequest{Message: message}, func(result *domain.TurnResult, err error) {
			require.NoError(t, err)
			mu.Lock()
			replies = append(replies, result.Reply)
			mu.Unlock()
			done <- struct{}{}
		})
	}

	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("queued turn never delivered")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"echo: turn-0", "echo: turn-1", "echo: turn-2"}, replies)
	assert.Equal(t, []string{"turn-0", "turn-1", "turn-2"}, llm.order)
	assert.False(t, llm.overlap.Load(), "completions must never overlap")
}

func TestQueueDrainStopsWhenEmpty(t *testing.T) {
	queue := newQueueFixture(&serialLLM{}, 0)

	done := make(chan struct{})
	depth := queue.Enqueue(&domain.TurnRequest{Message: "hi"}, func(*domain.TurnResult, error) {
		close(done)
	})
	assert.Equal(t, 1, depth)

	<-done
	require.Eventually(t, func() bool {
		return !queue.Processing() && queue.Depth() == 0
	}, time.Second, 5*time.Millisecond, "drain loop must park after the last item")

	// A later enqueue restarts the drain.
	again := make(chan struct{})
	queue.Enqueue(&domain.TurnRequest{Message: "again"}, func(*domain.TurnResult, error) {
		close(again)
	})
	select {
	case <-again:
	case <-time.After(2 * time.Second):
		t.Fatal("drain did not restart for a new item")
	}
}

func TestQueueFailingItemDoesNotHaltDrain(t *testing.T) {
	llm := &serialLLM{failOn: "bad"}
	queue := newQueueFixture(llm, 0)

	results := make(chan *domain.TurnResult, 2)
	deliver := func(result *domain.TurnResult, err error) {
		require.NoError(t, err)
		results <- result
	}
	queue.Enqueue(&domain.TurnRequest{Message: "bad"}, deliver)
	queue.Enqueue(&domain.TurnRequest{Message: "good"}, deliver)

	first := <-results
	second := <-results
	assert.Equal(t, domain.TurnStatusFailed, first.Status)
	assert.Equal(t, domain.StageComplete, first.FailedStage)
	assert.Equal(t, domain.TurnStatusSuccess, second.Status)
	assert.Equal(t, "echo: good", second.Reply)
}

func TestQueueRejectedInputDeliversError(t *testing.T) {
	queue := newQueueFixture(&serialLLM{}, 0)

	errs := make(chan error, 1)
	queue.Enqueue(&domain.TurnRequest{Message: "   "}, func(result *domain.TurnResult, err error) {
		assert.Nil(t, result)
		errs <- err
	})

	select {
	case err := <-errs:
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	case <-time.After(2 * time.Second):
		t.Fatal("rejection never delivered")
	}
}

func TestQueueClearDropsPending(t *testing.T) {
	queue := newQueueFixture(&serialLLM{}, 0)
	// Not drained: items are stacked before any enqueue wakes a drain by
	// seeding the slice directly under the lock.
	queue.mu.Lock()
	queue.items = []queueItem{{req: &domain.TurnRequest{Message: "a"}}, {req: &domain.TurnRequest{Message: "b"}}}
	queue.mu.Unlock()

	assert.Equal(t, 2, queue.Depth())
	assert.Equal(t, 2, queue.Clear())
	assert.Equal(t, 0, queue.Depth())
}
