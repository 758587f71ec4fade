package domain

// Voice describes one synthesis voice.
type Voice struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Gender      string `json:"gender"`
	Description string `json:"description"`
}

// AudioFormat describes one synthesis output format.
type AudioFormat struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Defaults used when a caller omits or misspells a voice/format. An
// unrecognized value is silently replaced, never failed.
const (
	DefaultVoice  = "alloy"
	DefaultFormat = "mp3"

	// MaxSynthesisChars is the hard ceiling on synthesis input length.
	// Longer text is rejected before any network call.
	MaxSynthesisChars = 4000
)

var voices = []Voice{
	{ID: "alloy", Name: "Alloy", Gender: "neutral", Description: "Balanced and versatile"},
	{ID: "echo", Name: "Echo", Gender: "male", Description: "Deep and resonant"},
	{ID: "fable", Name: "Fable", Gender: "male", Description: "Warm and engaging"},
	{ID: "onyx", Name: "Onyx", Gender: "male", Description: "Strong and authoritative"},
	{ID: "nova", Name: "Nova", Gender: "female", Description: "Bright and energetic"},
	{ID: "shimmer", Name: "Shimmer", Gender: "female", Description: "Soft and melodic"},
}

var formats = []AudioFormat{
	{ID: "mp3", Name: "MP3", Description: "Compressed audio format"},
	{ID: "opus", Name: "Opus", Description: "High-quality compressed format"},
	{ID: "aac", Name: "AAC", Description: "Advanced audio coding"},
	{ID: "flac", Name: "FLAC", Description: "Lossless audio format"},
}

// captureFormats lists the input containers accepted for transcription,
// as opposed to the formats synthesis can produce.
var captureFormats = []AudioFormat{
	{ID: "mp3", Name: "MP3", Description: "Compressed audio format"},
	{ID: "wav", Name: "WAV", Description: "Uncompressed PCM container"},
	{ID: "webm", Name: "WebM", Description: "Browser capture container"},
	{ID: "ogg", Name: "Ogg", Description: "Ogg/Opus capture container"},
	{ID: "m4a", Name: "M4A", Description: "MPEG-4 audio container"},
	{ID: "flac", Name: "FLAC", Description: "Lossless audio format"},
}

// AvailableVoices returns the fixed synthesis voice catalog.
func AvailableVoices() []Voice {
	out := make([]Voice, len(voices))
	copy(out, voices)
	return out
}

// SupportedFormats returns the fixed synthesis format catalog.
func SupportedFormats() []AudioFormat {
	out := make([]AudioFormat, len(formats))
	copy(out, formats)
	return out
}

// CaptureFormats returns the input formats accepted for transcription.
func CaptureFormats() []AudioFormat {
	out := make([]AudioFormat, len(captureFormats))
	copy(out, captureFormats)
	return out
}

// ValidVoice reports whether id names a known voice.
func ValidVoice(id string) bool {
	for _, v := range voices {
		if v.ID == id {
			return true
		}
	}
	return false
}

// ValidFormat reports whether id names a known synthesis format.
func ValidFormat(id string) bool {
	for _, f := range formats {
		if f.ID == id {
			return true
		}
	}
	return false
}
