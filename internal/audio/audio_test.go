package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"os/exec"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestExtractArgs(t *testing.T) {
	tests := []struct {
		name     string
		start    float64
		duration float64
		want     []string
	}{
		{
			name:     "window",
			start:    0.36,
			duration: 0.4,
			want:     []string{"-v", "error", "-i", "/v.mp4", "-ss", "0.36", "-t", "0.4", "-vn", "-f", "wav", "-"},
		},
		{
			name:     "from the start",
			start:    0,
			duration: 2,
			want:     []string{"-v", "error", "-i", "/v.mp4", "-t", "2", "-vn", "-f", "wav", "-"},
		},
		{
			name:     "to the end",
			start:    1.5,
			duration: 0,
			want:     []string{"-v", "error", "-i", "/v.mp4", "-ss", "1.5", "-vn", "-f", "wav", "-"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractArgs("/v.mp4", tt.start, tt.duration); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractArgs = %q, want %q", got, tt.want)
			}
		})
	}
}

// wavHeader builds a RIFF header with an optional LIST chunk before fmt.
func wavHeader(withList bool, rate, channels, bits int) []byte {
	var b bytes.Buffer
	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, uint32(0xFFFFFFFF))
	b.WriteString("WAVE")
	if withList {
		b.WriteString("LIST")
		binary.Write(&b, binary.LittleEndian, uint32(3))
		b.Write([]byte{1, 2, 3, 0}) // Odd size plus pad byte
	}
	b.WriteString("fmt ")
	binary.Write(&b, binary.LittleEndian, uint32(16))
	binary.Write(&b, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&b, binary.LittleEndian, uint16(channels))
	binary.Write(&b, binary.LittleEndian, uint32(rate))
	binary.Write(&b, binary.LittleEndian, uint32(rate*channels*bits/8))
	binary.Write(&b, binary.LittleEndian, uint16(channels*bits/8))
	binary.Write(&b, binary.LittleEndian, uint16(bits))
	b.WriteString("data")
	binary.Write(&b, binary.LittleEndian, uint32(0xFFFFFFFF))
	return b.Bytes()
}

func TestParseFormat(t *testing.T) {
	rate, ch, bits := parseFormat(wavHeader(false, 44100, 2, 16))
	if rate != 44100 || ch != 2 || bits != 16 {
		t.Errorf("parseFormat = %d/%d/%d, want 44100/2/16", rate, ch, bits)
	}

	rate, ch, bits = parseFormat(wavHeader(true, 48000, 1, 16))
	if rate != 48000 || ch != 1 || bits != 16 {
		t.Errorf("parseFormat with LIST = %d/%d/%d, want 48000/1/16", rate, ch, bits)
	}

	if rate, _, _ := parseFormat([]byte("not a wav file at all")); rate != 0 {
		t.Errorf("Expected zero format for garbage, got rate %d", rate)
	}
}

func TestExtract(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping ffmpeg integration test in short mode")
	}
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}

	path := filepath.Join(t.TempDir(), "tone.wav")
	gen := exec.Command("ffmpeg", "-v", "error", "-f", "lavfi", "-i", "sine=frequency=440:sample_rate=8000:duration=2", "-y", path)
	if out, err := gen.CombinedOutput(); err != nil {
		t.Skipf("ffmpeg cannot render test tone: %v (%s)", err, out)
	}

	e := NewExtractor("ffmpeg", zap.NewNop())
	a, err := e.Extract(context.Background(), path, 0.5, 1)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if a.SampleRate != 8000 || a.Channels != 1 {
		t.Errorf("Unexpected format: %d Hz, %d channels", a.SampleRate, a.Channels)
	}
	// One second of 16-bit mono at 8 kHz plus a header
	if len(a.WAV) < 16000 {
		t.Errorf("Expected at least 16000 bytes of audio, got %d", len(a.WAV))
	}

	_, err = e.Extract(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"), 0, 1)
	if err == nil || !strings.Contains(err.Error(), "failed to extract audio") {
		t.Errorf("Expected extraction error, got %v", err)
	}
}
