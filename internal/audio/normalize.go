// Package audio normalizes captured clips for the transcription backends.
//
// Compressed containers (webm, ogg, mp3, m4a, flac) are passed through
// untouched: the speech backends decode those natively. Raw WAV clips are
// decoded locally and rewritten as 16 kHz mono PCM16, the rate/channel
// layout the recognition services expect.
//
// Clips tagged "pcm" are headerless, so there is no rate to read and
// nothing local to rewrite; they pass through under the assumption they
// are already 16 kHz mono, which is the rate the recognition adapters
// configure for LINEAR16 input.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// TargetSampleRate is the rate the transcription backends are configured for.
const TargetSampleRate = 16000

// TargetChannels is the channel count after normalization.
const TargetChannels = 1

var errNotWAV = errors.New("audio: not a RIFF/WAVE stream")

// NeedsNormalization reports whether clips with this format tag go through
// the local decode path before transcription.
func NeedsNormalization(format string) bool {
	return format == "wav" || format == "wave"
}

// Normalize rewrites a WAV clip as 16 kHz mono PCM16 WAV. Clips already in
// that shape are returned unchanged. Non-WAV data is an error; callers gate
// on NeedsNormalization.
func Normalize(data []byte) ([]byte, error) {
	samples, rate, channels, err := decodeWAV(data)
	if err != nil {
		return nil, err
	}
	if rate == TargetSampleRate && channels == TargetChannels {
		return data, nil
	}
	mono := downmix(samples, channels)
	resampled := resample(mono, rate, TargetSampleRate)
	return encodeWAV(resampled, TargetSampleRate), nil
}

// decodeWAV walks the RIFF chunk list and returns interleaved PCM16 samples
// with the stream's rate and channel count.
func decodeWAV(data []byte) (samples []int16, rate, channels int, err error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, 0, errNotWAV
	}

	var pcm []byte
	var bitsPerSample int
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+size > len(data) {
			size = len(data) - body
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, 0, errors.New("audio: truncated fmt chunk")
			}
			audioFormat := int(binary.LittleEndian.Uint16(data[body : body+2]))
			if audioFormat != 1 {
				return nil, 0, 0, fmt.Errorf("audio: unsupported WAV encoding %d, want PCM", audioFormat)
			}
			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			rate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bitsPerSample = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
		case "data":
			pcm = data[body : body+size]
		}

		// Chunks are word-aligned.
		pos = body + size
		if size%2 == 1 {
			pos++
		}
	}

	if channels == 0 || rate == 0 {
		return nil, 0, 0, errors.New("audio: missing fmt chunk")
	}
	if bitsPerSample != 16 {
		return nil, 0, 0, fmt.Errorf("audio: unsupported bit depth %d, want 16", bitsPerSample)
	}
	if len(pcm) == 0 {
		return nil, 0, 0, errors.New("audio: missing data chunk")
	}

	samples = make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[2*i : 2*i+2]))
	}
	return samples, rate, channels, nil
}

// downmix averages interleaved channels into one.
func downmix(samples []int16, channels int) []int16 {
	if channels <= 1 {
		return samples
	}
	frames := len(samples) / channels
	mono := make([]int16, frames)
	for i := 0; i < frames; i++ {
		sum := 0
		for c := 0; c < channels; c++ {
			sum += int(samples[i*channels+c])
		}
		mono[i] = int16(sum / channels)
	}
	return mono
}

// resample converts between rates with linear interpolation. Utterance-length
// speech clips do not need a polyphase filter to transcribe well.
func resample(samples []int16, from, to int) []int16 {
	if from == to || len(samples) == 0 {
		return samples
	}
	outLen := int(int64(len(samples)) * int64(to) / int64(from))
	if outLen == 0 {
		outLen = 1
	}
	out := make([]int16, outLen)
	for i := range out {
		srcPos := float64(i) * float64(from) / float64(to)
		idx := int(srcPos)
		if idx >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := srcPos - float64(idx)
		a, b := float64(samples[idx]), float64(samples[idx+1])
		out[i] = int16(a + (b-a)*frac)
	}
	return out
}

// encodeWAV wraps mono PCM16 samples in a minimal RIFF header.
func encodeWAV(samples []int16, rate int) []byte {
	dataLen := len(samples) * 2
	buf := make([]byte, 44+dataLen)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataLen))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], TargetChannels)
	binary.LittleEndian.PutUint32(buf[24:28], uint32(rate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(rate*TargetChannels*2))
	binary.LittleEndian.PutUint16(buf[32:34], TargetChannels*2)
	binary.LittleEndian.PutUint16(buf[34:36], 16)

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataLen))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[44+2*i:46+2*i], uint16(s))
	}
	return buf
}
