package stt

import (
	"context"
	"fmt"
	"os"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/febriansr/vocalis/domain/repositories"
)

// GoogleConfig holds configuration for the Google Cloud recognition adapter.
// Credentials come from the usual GOOGLE_APPLICATION_CREDENTIALS mechanism.
type GoogleConfig struct {
	Language   string // BCP-47 code (default: "en-US")
	SampleRate int    // rate of normalized LINEAR16 clips (default: 16000)
}

// GoogleSpeechToText implements SpeechToText for Google Cloud
type GoogleSpeechToText struct {
	language   string
	sampleRate int
	logger     *zap.Logger
}

var _ repositories.SpeechToText = (*GoogleSpeechToText)(nil)

// NewGoogleSpeechToText creates a Google Cloud recognition adapter
func NewGoogleSpeechToText(config GoogleConfig, logger *zap.Logger) *GoogleSpeechToText {
	language := config.Language
	if language == "" {
		language = "en-US"
	}
	sampleRate := config.SampleRate
	if sampleRate == 0 {
		sampleRate = 16000
	}
	return &GoogleSpeechToText{
		language:   language,
		sampleRate: sampleRate,
		logger:     logger,
	}
}

// NewGoogleConfigFromEnv creates a GoogleConfig from environment variables
func NewGoogleConfigFromEnv() GoogleConfig {
	return GoogleConfig{
		Language: os.Getenv("GOOGLE_SPEECH_LANGUAGE"),
	}
}

// Transcribe recognizes one finite clip and returns the combined transcript
func (g *GoogleSpeechToText) Transcribe(ctx context.Context, audio []byte, formatHint string) (string, error) {
	if len(audio) == 0 {
		return "", nil
	}

	encoding, err := audioEncoding(formatHint)
	if err != nil {
		return "", err
	}

	client, err := speech.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create speech client: %w", err)
	}
	defer client.Close()

	config := &speechpb.RecognitionConfig{
		Encoding:     encoding,
		LanguageCode: g.language,
	}
	// Opus containers carry their own rate. LINEAR16 clips either arrive
	// normalized (wav) or are raw pcm assumed to already be at this rate.
	if encoding == speechpb.RecognitionConfig_LINEAR16 {
		config.SampleRateHertz = int32(g.sampleRate)
	}

	resp, err := client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: config,
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", fmt.Errorf("recognition failed: %w", err)
	}

	var parts []string
	for _, result := range resp.Results {
		if len(result.Alternatives) > 0 {
			parts = append(parts, result.Alternatives[0].Transcript)
		}
	}
	transcript := strings.TrimSpace(strings.Join(parts, " "))

	g.logger.Info("Recognition completed",
		zap.Int("audioSize", len(audio)),
		zap.Int("resultCount", len(resp.Results)),
		zap.Int("transcriptChars", len(transcript)))

	return transcript, nil
}

// audioEncoding maps a clip's container/codec tag to the recognition enum.
func audioEncoding(formatHint string) (speechpb.RecognitionConfig_AudioEncoding, error) {
	switch strings.ToLower(formatHint) {
	case "wav", "wave", "pcm", "linear16", "":
		return speechpb.RecognitionConfig_LINEAR16, nil
	case "webm":
		return speechpb.RecognitionConfig_WEBM_OPUS, nil
	case "ogg", "opus":
		return speechpb.RecognitionConfig_OGG_OPUS, nil
	case "mp3":
		return speechpb.RecognitionConfig_MP3, nil
	case "flac":
		return speechpb.RecognitionConfig_FLAC, nil
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, fmt.Errorf("unsupported audio encoding: %s", formatHint)
	}
}
