package client

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/febriansr/vocalis/domain"
)

type fakeSender struct {
	result *domain.TurnResult
	err    error
	delay  time.Duration
	calls  atomic.Int32
	clip   []byte
	format string
}

func (f *fakeSender) SendAudioTurn(ctx context.Context, clip []byte, format string, opts domain.TurnOptions) (*domain.TurnResult, error) {
	f.calls.Add(1)
	f.clip = clip
	f.format = format
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.result, f.err
}

func startedRecorder(t *testing.T, chunks ...[]byte) (*Recorder, *fakeDevice) {
	t.Helper()
	device := newFakeDevice("audio/webm")
	recorder, err := NewRecorder(device, zap.NewNop())
	require.NoError(t, err)
	_, err = recorder.Start()
	require.NoError(t, err)
	for _, chunk := range chunks {
		device.feed(chunk)
	}
	return recorder, device
}

func TestBridgeDeliversClip(t *testing.T) {
	recorder, _ := startedRecorder(t, []byte("audio bytes"))
	sender := &fakeSender{
		result: &domain.TurnResult{Status: domain.TurnStatusSuccess, Reply: "hi"},
	}
	bridge := NewBridge(recorder, sender, time.Second, zap.NewNop())

	result, err := bridge.FinishTurn(context.Background(), domain.TurnOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.TurnStatusSuccess, result.Status)
	assert.Equal(t, "hi", result.Reply)
	assert.Equal(t, []byte("audio bytes"), sender.clip)
	assert.Equal(t, "webm", sender.format)
	assert.Equal(t, StateDelivered, recorder.State())

	// Delivery drops the buffered chunks.
	recorder.mu.Lock()
	buffered := len(recorder.chunks)
	recorder.mu.Unlock()
	assert.Zero(t, buffered)
}

func TestBridgeEmptyCaptureSettlesLocally(t *testing.T) {
	recorder, _ := startedRecorder(t)
	sender := &fakeSender{}
	bridge := NewBridge(recorder, sender, time.Second, zap.NewNop())

	result, err := bridge.FinishTurn(context.Background(), domain.TurnOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.TurnStatusNoSpeechDetected, result.Status)
	assert.Zero(t, sender.calls.Load(), "empty capture never reaches the network")
	assert.Equal(t, StateDelivered, recorder.State())
}

func TestBridgeDeliveryTimeout(t *testing.T) {
	recorder, _ := startedRecorder(t, []byte("audio"))
	sender := &fakeSender{
		result: &domain.TurnResult{Status: domain.TurnStatusSuccess},
		delay:  200 * time.Millisecond,
	}
	bridge := NewBridge(recorder, sender, 20*time.Millisecond, zap.NewNop())

	_, err := bridge.FinishTurn(context.Background(), domain.TurnOptions{})
	require.ErrorIs(t, err, domain.ErrDeliveryTimeout)
	assert.Equal(t, StateFailed, recorder.State())

	// The capture's chunks survive a failed delivery.
	recorder.mu.Lock()
	buffered := len(recorder.chunks)
	recorder.mu.Unlock()
	assert.Equal(t, 1, buffered)
}

// blockingSender holds the request open until its context is cancelled,
// recording that the cancellation arrived.
type blockingSender struct {
	cancelled chan struct{}
}

func (s *blockingSender) SendAudioTurn(ctx context.Context, clip []byte, format string, opts domain.TurnOptions) (*domain.TurnResult, error) {
	<-ctx.Done()
	close(s.cancelled)
	return nil, ctx.Err()
}

func TestBridgeTimeoutCancelsInFlightSend(t *testing.T) {
	recorder, _ := startedRecorder(t, []byte("audio"))
	sender := &blockingSender{cancelled: make(chan struct{})}
	bridge := NewBridge(recorder, sender, 20*time.Millisecond, zap.NewNop())

	_, err := bridge.FinishTurn(context.Background(), domain.TurnOptions{})
	require.ErrorIs(t, err, domain.ErrDeliveryTimeout)

	// The abandoned send must be aborted, not left holding the clip.
	select {
	case <-sender.cancelled:
	case <-time.After(time.Second):
		t.Fatal("in-flight send was not cancelled after the delivery timeout")
	}
}

func TestBridgeSenderError(t *testing.T) {
	recorder, _ := startedRecorder(t, []byte("audio"))
	sender := &fakeSender{err: errors.New("connection refused")}
	bridge := NewBridge(recorder, sender, time.Second, zap.NewNop())

	_, err := bridge.FinishTurn(context.Background(), domain.TurnOptions{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrDeliveryTimeout)
	assert.Equal(t, StateFailed, recorder.State())
}

func TestSettlementResolvesExactlyOnce(t *testing.T) {
	pending := newSettlement()

	first := &domain.TurnResult{Reply: "first"}
	second := &domain.TurnResult{Reply: "second"}
	go pending.resolve(first, nil)
	go pending.resolve(second, nil)

	result, err := pending.await(time.Second)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Contains(t, []string{"first", "second"}, result.Reply)

	// A second await sees nothing further.
	_, err = pending.await(20 * time.Millisecond)
	require.ErrorIs(t, err, domain.ErrDeliveryTimeout)
}

func TestBridgeRecorderCanRestartAfterDelivery(t *testing.T) {
	recorder, device := startedRecorder(t, []byte("audio"))
	sender := &fakeSender{
		result: &domain.TurnResult{Status: domain.TurnStatusSuccess},
	}
	bridge := NewBridge(recorder, sender, time.Second, zap.NewNop())

	_, err := bridge.FinishTurn(context.Background(), domain.TurnOptions{})
	require.NoError(t, err)

	// The next capture starts clean.
	sessionID, err := recorder.Start()
	require.NoError(t, err)
	assert.NotEmpty(t, sessionID)
	device.feed([]byte("next"))
	clip, err := recorder.Stop()
	require.NoError(t, err)
	assert.Equal(t, []byte("next"), clip.Data)
}
