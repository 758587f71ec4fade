package client

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/febriansr/vocalis/domain"
)

// fakeDevice records lifecycle calls and lets tests feed chunks through the
// capture callback.
type fakeDevice struct {
	mu        sync.Mutex
	supported map[string]bool
	onChunk   func([]byte)
	starts    int
	stops     int
	startErr  error
}

func newFakeDevice(supported ...string) *fakeDevice {
	m := make(map[string]bool, len(supported))
	for _, s := range supported {
		m[s] = true
	}
	return &fakeDevice{supported: m}
}

func (d *fakeDevice) Start(onChunk func(chunk []byte)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.startErr != nil {
		return d.startErr
	}
	d.starts++
	d.onChunk = onChunk
	return nil
}

func (d *fakeDevice) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stops++
	return nil
}

func (d *fakeDevice) Supports(mimeType string) bool {
	return d.supported[mimeType]
}

func (d *fakeDevice) feed(chunk []byte) {
	d.mu.Lock()
	onChunk := d.onChunk
	d.mu.Unlock()
	if onChunk != nil {
		onChunk(chunk)
	}
}

func TestRecorderMimeNegotiation(t *testing.T) {
	// The device supports two types; the higher preference wins.
	device := newFakeDevice("audio/wav", "audio/webm")
	recorder, err := NewRecorder(device, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "audio/webm", recorder.MimeType())

	// Opus-tagged webm outranks plain webm.
	device = newFakeDevice("audio/webm", "audio/webm;codecs=opus")
	recorder, err = NewRecorder(device, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "audio/webm;codecs=opus", recorder.MimeType())
}

func TestRecorderNoSupportedFormat(t *testing.T) {
	device := newFakeDevice("audio/midi")
	_, err := NewRecorder(device, zap.NewNop())
	require.ErrorIs(t, err, domain.ErrDeviceUnavailable)
}

func TestRecorderCaptureAssemblesChunks(t *testing.T) {
	device := newFakeDevice("audio/webm")
	recorder, err := NewRecorder(device, zap.NewNop())
	require.NoError(t, err)

	sessionID, err := recorder.Start()
	require.NoError(t, err)
	assert.NotEmpty(t, sessionID)
	assert.Equal(t, StateCapturing, recorder.State())

	device.feed([]byte("abc"))
	device.feed([]byte("defg"))
	device.feed(nil) // empty chunks are dropped
	device.feed([]byte("hi"))

	clip, err := recorder.Stop()
	require.NoError(t, err)
	assert.Equal(t, sessionID, clip.SessionID)
	assert.Equal(t, []byte("abcdefghi"), clip.Data)
	assert.Equal(t, 3, clip.Chunks)
	assert.Equal(t, "webm", clip.Format())
	assert.Equal(t, 1, device.stops, "device released exactly once")
}

func TestRecorderEmptyCapture(t *testing.T) {
	device := newFakeDevice("audio/webm")
	recorder, err := NewRecorder(device, zap.NewNop())
	require.NoError(t, err)

	_, err = recorder.Start()
	require.NoError(t, err)

	clip, err := recorder.Stop()
	require.NoError(t, err)
	assert.Empty(t, clip.Data)
	assert.Zero(t, clip.Chunks)
}

func TestRecorderChunksIgnoredAfterStop(t *testing.T) {
	device := newFakeDevice("audio/webm")
	recorder, err := NewRecorder(device, zap.NewNop())
	require.NoError(t, err)

	_, err = recorder.Start()
	require.NoError(t, err)
	device.feed([]byte("abc"))

	clip, err := recorder.Stop()
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), clip.Data)

	// A straggler chunk after release must not land anywhere.
	device.feed([]byte("late"))
	recorder.mu.Lock()
	buffered := len(recorder.chunks)
	recorder.mu.Unlock()
	assert.Equal(t, 1, buffered)
}

func TestRecorderRejectsDoubleStart(t *testing.T) {
	device := newFakeDevice("audio/webm")
	recorder, err := NewRecorder(device, zap.NewNop())
	require.NoError(t, err)

	_, err = recorder.Start()
	require.NoError(t, err)

	_, err = recorder.Start()
	require.Error(t, err)
	assert.Equal(t, 1, device.starts)
}

func TestRecorderStartDeviceFailure(t *testing.T) {
	device := newFakeDevice("audio/webm")
	device.startErr = errors.New("microphone busy")
	recorder, err := NewRecorder(device, zap.NewNop())
	require.NoError(t, err)

	_, err = recorder.Start()
	require.ErrorIs(t, err, domain.ErrDeviceUnavailable)
	assert.Equal(t, StateFailed, recorder.State())
}

func TestClipFormatMapping(t *testing.T) {
	tests := []struct {
		mimeType string
		format   string
	}{
		{"audio/webm;codecs=opus", "webm"},
		{"audio/webm", "webm"},
		{"audio/mp4", "mp4"},
		{"audio/ogg;codecs=opus", "ogg"},
		{"audio/wav", "wav"},
		{"application/octet-stream", "webm"},
	}
	for _, tt := range tests {
		clip := &Clip{MimeType: tt.mimeType}
		assert.Equal(t, tt.format, clip.Format(), tt.mimeType)
	}
}
