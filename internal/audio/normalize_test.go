package audio

import (
	"encoding/binary"
	"testing"
)

// buildWAV produces a PCM16 WAV with the given rate and channel count. Each
// frame carries its index as the sample value so tests can spot reordering.
func buildWAV(t *testing.T, rate, channels, frames int) []byte {
	t.Helper()
	dataLen := frames * channels * 2
	buf := make([]byte, 44+dataLen)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataLen))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1)
	binary.LittleEndian.PutUint16(buf[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(rate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(rate*channels*2))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(channels*2))
	binary.LittleEndian.PutUint16(buf[34:36], 16)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataLen))

	for f := 0; f < frames; f++ {
		for c := 0; c < channels; c++ {
			off := 44 + (f*channels+c)*2
			binary.LittleEndian.PutUint16(buf[off:off+2], uint16(int16(f%1000)))
		}
	}
	return buf
}

func TestNeedsNormalization(t *testing.T) {
	for _, format := range []string{"wav", "wave"} {
		if !NeedsNormalization(format) {
			t.Errorf("expected %q to need normalization", format)
		}
	}
	// Raw pcm carries no header to decode; it passes through on the
	// assumption it is already 16 kHz mono.
	for _, format := range []string{"webm", "ogg", "mp3", "m4a", "flac", "pcm"} {
		if NeedsNormalization(format) {
			t.Errorf("expected %q to pass through", format)
		}
	}
}

func TestNormalizePassesThroughTargetShape(t *testing.T) {
	in := buildWAV(t, TargetSampleRate, 1, 1600)

	out, err := Normalize(in)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(out) != len(in) {
		t.Errorf("expected identity pass-through, got %d bytes from %d", len(out), len(in))
	}
}

func TestNormalizeResamplesAndDownmixes(t *testing.T) {
	// 48 kHz stereo, one second.
	in := buildWAV(t, 48000, 2, 48000)

	out, err := Normalize(in)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}

	samples, rate, channels, err := decodeWAV(out)
	if err != nil {
		t.Fatalf("decode normalized output: %v", err)
	}
	if rate != TargetSampleRate {
		t.Errorf("expected %d Hz, got %d", TargetSampleRate, rate)
	}
	if channels != TargetChannels {
		t.Errorf("expected mono, got %d channels", channels)
	}
	// One second of input stays one second of output.
	if len(samples) != TargetSampleRate {
		t.Errorf("expected %d samples, got %d", TargetSampleRate, len(samples))
	}
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	if _, err := Normalize([]byte("definitely not audio")); err == nil {
		t.Error("expected error for non-WAV input")
	}
	if _, err := Normalize(nil); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestDecodeRejectsNonPCM(t *testing.T) {
	in := buildWAV(t, 16000, 1, 16)
	// Flip the fmt audio-format field to IEEE float.
	binary.LittleEndian.PutUint16(in[20:22], 3)

	if _, _, _, err := decodeWAV(in); err == nil {
		t.Error("expected error for non-PCM encoding")
	}
}
