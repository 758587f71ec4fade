package repositories

import "context"

// SpeechToText abstracts speech recognition services
type SpeechToText interface {
	// Transcribe converts one finite audio clip to text. formatHint is the
	// clip's container/codec tag (webm, ogg, wav, mp3, ...) as negotiated
	// by the recording side.
	Transcribe(ctx context.Context, audio []byte, formatHint string) (string, error)
}
