// Package audio slices the audio track of a video into a WAV payload.
package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/andresmejia3/lnl-frame-selector/internal/utils"
	"go.uber.org/zap"
)

// Audio is a WAV-encoded slice of a video's audio track.
type Audio struct {
	WAV           []byte
	SampleRate    int
	Channels      int
	BitsPerSample int
}

// Extractor pulls audio out of video files with ffmpeg.
type Extractor struct {
	ffmpegPath string
	logger     *zap.Logger
}

func NewExtractor(ffmpegPath string, logger *zap.Logger) *Extractor {
	return &Extractor{ffmpegPath: ffmpegPath, logger: logger}
}

// Extract decodes duration seconds of audio starting at start seconds.
// A non-positive start reads from the beginning and a non-positive
// duration reads to the end.
func (e *Extractor) Extract(ctx context.Context, path string, start, duration float64) (*Audio, error) {
	began := time.Now()
	cmd := utils.NewSafeCommand(ctx, e.ffmpegPath, ExtractArgs(path, start, duration)...)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to extract audio from %s: %w", path, err)
	}

	a := &Audio{WAV: out}
	a.SampleRate, a.Channels, a.BitsPerSample = parseFormat(out)

	e.logger.Debug("audio extracted",
		zap.String("path", path),
		zap.Float64("start", start),
		zap.Float64("duration", duration),
		zap.Int("bytes", len(out)),
		zap.Int("sample_rate", a.SampleRate),
		zap.Int("channels", a.Channels),
		zap.Duration("took", time.Since(began)),
	)
	return a, nil
}

// ExtractArgs builds the ffmpeg arguments for a WAV slice written to stdout.
func ExtractArgs(path string, start, duration float64) []string {
	args := []string{"-v", "error", "-i", path}
	if start > 0 {
		args = append(args, "-ss", utils.FormatSeconds(start))
	}
	if duration > 0 {
		args = append(args, "-t", utils.FormatSeconds(duration))
	}
	return append(args, "-vn", "-f", "wav", "-")
}

// parseFormat reads the fmt chunk of a RIFF/WAVE payload. Streams written
// to a pipe carry placeholder sizes in the RIFF header, so only chunk
// headers up to fmt are trusted.
func parseFormat(wav []byte) (sampleRate, channels, bits int) {
	if len(wav) < 12 || !bytes.Equal(wav[0:4], []byte("RIFF")) || !bytes.Equal(wav[8:12], []byte("WAVE")) {
		return 0, 0, 0
	}

	pos := 12
	for pos+8 <= len(wav) {
		id := wav[pos : pos+4]
		size := int(binary.LittleEndian.Uint32(wav[pos+4 : pos+8]))
		body := pos + 8

		if bytes.Equal(id, []byte("fmt ")) {
			if body+16 > len(wav) {
				return 0, 0, 0
			}
			channels = int(binary.LittleEndian.Uint16(wav[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(wav[body+4 : body+8]))
			bits = int(binary.LittleEndian.Uint16(wav[body+14 : body+16]))
			return sampleRate, channels, bits
		}
		if bytes.Equal(id, []byte("data")) {
			break
		}
		// Chunks are word aligned
		pos = body + size + size%2
	}
	return 0, 0, 0
}
