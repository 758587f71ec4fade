package repositories

import "context"

// TextToSpeech abstracts speech synthesis services
type TextToSpeech interface {
	// Synthesize renders text as audio in the given voice and format. Both
	// values are validated by the caller against the fixed catalogs before
	// reaching an adapter; text longer than the synthesis ceiling is a
	// caller-side precondition violation and never sent here.
	Synthesize(ctx context.Context, text string, voice string, format string) ([]byte, error)
}
