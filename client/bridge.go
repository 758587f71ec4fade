package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/febriansr/vocalis/domain"
)

const defaultDeliveryTimeout = 5 * time.Second

// TurnSender posts a finished clip to the server and waits for the turn's
// terminal outcome.
type TurnSender interface {
	SendAudioTurn(ctx context.Context, clip []byte, format string, opts domain.TurnOptions) (*domain.TurnResult, error)
}

// settlement is a one-shot outcome slot. Resolve wins exactly once no
// matter how many callers race it; Await either returns that outcome or
// times out.
type settlement struct {
	once sync.Once
	ch   chan outcome
}

type outcome struct {
	result *domain.TurnResult
	err    error
}

func newSettlement() *settlement {
	return &settlement{ch: make(chan outcome, 1)}
}

func (s *settlement) resolve(result *domain.TurnResult, err error) {
	s.once.Do(func() {
		s.ch <- outcome{result: result, err: err}
	})
}

func (s *settlement) await(timeout time.Duration) (*domain.TurnResult, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case o := <-s.ch:
		return o.result, o.err
	case <-timer.C:
		return nil, domain.ErrDeliveryTimeout
	}
}

// Bridge connects a recorder to the server: it finishes the capture, ships
// the clip and settles the recorder on the outcome.
type Bridge struct {
	recorder *Recorder
	sender   TurnSender
	timeout  time.Duration
	logger   *zap.Logger
}

// NewBridge wires a recorder to a sender. timeout bounds the wait for the
// server's answer; zero uses the default.
func NewBridge(recorder *Recorder, sender TurnSender, timeout time.Duration, logger *zap.Logger) *Bridge {
	if timeout <= 0 {
		timeout = defaultDeliveryTimeout
	}
	return &Bridge{
		recorder: recorder,
		sender:   sender,
		timeout:  timeout,
		logger:   logger,
	}
}

// FinishTurn stops the capture and delivers the clip. An empty capture
// never leaves the machine; it settles locally as a silent turn. The wait
// for the server is bounded: a late answer is discarded and the capture is
// marked failed so its chunks are not silently lost.
func (b *Bridge) FinishTurn(ctx context.Context, opts domain.TurnOptions) (*domain.TurnResult, error) {
	clip, err := b.recorder.Stop()
	if err != nil {
		return nil, err
	}

	if len(clip.Data) == 0 {
		b.logger.Info("Empty capture, settling locally",
			zap.String("sessionID", clip.SessionID))
		b.recorder.settle(true)
		return domain.NoSpeechResult(), nil
	}

	// The send gets its own cancellable context so a discarded late answer
	// also aborts the request instead of holding the clip in flight.
	sendCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	pending := newSettlement()
	go func() {
		result, err := b.sender.SendAudioTurn(sendCtx, clip.Data, clip.Format(), opts)
		pending.resolve(result, err)
	}()

	result, err := pending.await(b.timeout)
	if err != nil {
		b.recorder.settle(false)
		if err == domain.ErrDeliveryTimeout {
			b.logger.Warn("Turn delivery timed out",
				zap.String("sessionID", clip.SessionID),
				zap.Duration("timeout", b.timeout))
			return nil, fmt.Errorf("%w after %s", domain.ErrDeliveryTimeout, b.timeout)
		}
		return nil, err
	}

	b.recorder.settle(true)
	return result, nil
}
