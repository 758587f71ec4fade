package client

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/febriansr/vocalis/domain"
)

// State is the recorder's lifecycle position. Transitions only move forward
// inside one capture; Delivered and Failed both return to Idle on the next
// Start.
type State string

const (
	StateIdle      State = "idle"
	StateCapturing State = "capturing"
	StateStopping  State = "stopping"
	StateDelivered State = "delivered"
	StateFailed    State = "failed"
)

// mimePreferences is ordered by capture quality; the first type the device
// supports wins.
var mimePreferences = []string{
	"audio/webm;codecs=opus",
	"audio/webm",
	"audio/mp4",
	"audio/ogg;codecs=opus",
	"audio/wav",
}

// Device is an audio input source. Start begins capture and invokes onChunk
// for every buffered segment until Stop releases the device.
type Device interface {
	Start(onChunk func(chunk []byte)) error
	Stop() error
	Supports(mimeType string) bool
}

// Clip is one finished recording.
type Clip struct {
	SessionID string
	MimeType  string
	Data      []byte
	Chunks    int
}

// Format maps the clip's MIME type to the wire format tag.
func (c *Clip) Format() string {
	switch {
	case strings.HasPrefix(c.MimeType, "audio/webm"):
		return "webm"
	case strings.HasPrefix(c.MimeType, "audio/mp4"):
		return "mp4"
	case strings.HasPrefix(c.MimeType, "audio/ogg"):
		return "ogg"
	case strings.HasPrefix(c.MimeType, "audio/wav"):
		return "wav"
	default:
		return "webm"
	}
}

// Recorder accumulates device chunks into one clip per capture session.
type Recorder struct {
	device   Device
	mimeType string
	logger   *zap.Logger

	mu        sync.Mutex
	state     State
	sessionID string
	chunks    [][]byte
}

// NewRecorder negotiates a capture MIME type with the device. It fails when
// the device supports none of the preferred types.
func NewRecorder(device Device, logger *zap.Logger) (*Recorder, error) {
	mimeType := ""
	for _, candidate := range mimePreferences {
		if device.Supports(candidate) {
			mimeType = candidate
			break
		}
	}
	if mimeType == "" {
		return nil, fmt.Errorf("%w: no supported capture format", domain.ErrDeviceUnavailable)
	}

	return &Recorder{
		device:   device,
		mimeType: mimeType,
		logger:   logger,
		state:    StateIdle,
	}, nil
}

// MimeType returns the negotiated capture type.
func (r *Recorder) MimeType() string {
	return r.mimeType
}

// State returns the recorder's current lifecycle position.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Start begins a new capture session. Only Idle, Delivered and Failed
// recorders can start; a capture already in flight is an error.
func (r *Recorder) Start() (string, error) {
	r.mu.Lock()
	switch r.state {
	case StateIdle, StateDelivered, StateFailed:
	default:
		state := r.state
		r.mu.Unlock()
		return "", fmt.Errorf("cannot start capture in state %s", state)
	}
	r.state = StateCapturing
	r.sessionID = uuid.New().String()
	r.chunks = nil
	sessionID := r.sessionID
	r.mu.Unlock()

	if err := r.device.Start(r.appendChunk); err != nil {
		r.mu.Lock()
		r.state = StateFailed
		r.mu.Unlock()
		return "", fmt.Errorf("%w: %v", domain.ErrDeviceUnavailable, err)
	}

	r.logger.Info("Capture started",
		zap.String("sessionID", sessionID),
		zap.String("mimeType", r.mimeType))
	return sessionID, nil
}

func (r *Recorder) appendChunk(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateCapturing {
		return
	}
	buf := make([]byte, len(chunk))
	copy(buf, chunk)
	r.chunks = append(r.chunks, buf)
}

// Stop releases the device first, then assembles the buffered chunks into
// one clip. A capture that produced no chunks yields an empty clip, which
// the bridge settles locally as a silent turn.
func (r *Recorder) Stop() (*Clip, error) {
	r.mu.Lock()
	if r.state != StateCapturing {
		state := r.state
		r.mu.Unlock()
		return nil, fmt.Errorf("cannot stop capture in state %s", state)
	}
	r.state = StateStopping
	r.mu.Unlock()

	// Release the microphone before touching the buffered data so the
	// device is free even if assembly goes sideways.
	if err := r.device.Stop(); err != nil {
		r.logger.Warn("Device release failed", zap.Error(err))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	total := 0
	for _, chunk := range r.chunks {
		total += len(chunk)
	}
	data := make([]byte, 0, total)
	for _, chunk := range r.chunks {
		data = append(data, chunk...)
	}

	clip := &Clip{
		SessionID: r.sessionID,
		MimeType:  r.mimeType,
		Data:      data,
		Chunks:    len(r.chunks),
	}
	r.logger.Info("Capture stopped",
		zap.String("sessionID", r.sessionID),
		zap.Int("chunks", clip.Chunks),
		zap.Int("bytes", total))
	return clip, nil
}

// settle moves the recorder to its terminal state for this capture and, on
// delivery, drops the buffered chunks.
func (r *Recorder) settle(delivered bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if delivered {
		r.state = StateDelivered
		r.chunks = nil
	} else {
		r.state = StateFailed
	}
}
