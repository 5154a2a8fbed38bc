package framestream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap"
)

func TestRawReader(t *testing.T) {
	header := Header{Width: 2, Height: 1, FrameTime: 0.04}

	// Two full frames of 2x1 rgb24
	data := []byte{
		0, 255, 51, 102, 153, 204,
		255, 0, 0, 0, 255, 0,
	}
	r := newRawReader(bytes.NewReader(data), header, 9, 2)

	first, err := r.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if first.Index != 9 {
		t.Errorf("Expected source index 9, got %d", first.Index)
	}
	want := []float32{0, 1, 0.2, 0.4, 0.6, 0.8}
	for i := range want {
		if math.Abs(float64(first.Pixels[i]-want[i])) > 1e-6 {
			t.Errorf("Pixel %d = %v, want %v", i, first.Pixels[i], want[i])
		}
	}

	second, err := r.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if second.Index != 11 {
		t.Errorf("Expected source index 11, got %d", second.Index)
	}

	// Frames must not alias the read buffer
	if first.Pixels[1] != 1 {
		t.Error("First frame was overwritten by the second read")
	}

	if _, err := r.Next(); err != io.EOF {
		t.Errorf("Expected io.EOF after last frame, got %v", err)
	}
}

func TestRawReader_PartialFrame(t *testing.T) {
	header := Header{Width: 2, Height: 2}
	r := newRawReader(bytes.NewReader(make([]byte, header.FrameSize()-1)), header, 0, 1)

	_, err := r.Next()
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("Expected io.ErrUnexpectedEOF, got %v", err)
	}
}

func TestDecodeArgs(t *testing.T) {
	got := DecodeArgs("/videos/a.mp4", 5, 9, 2)
	want := []string{
		"-hide_banner", "-loglevel", "error", "-noautorotate", "-i", "/videos/a.mp4", "-an", "-sn",
		"-vf", `select=gte(n\,9)*not(mod(n-9\,2))`,
		"-fps_mode", "passthrough", "-frames:v", "5", "-f", "rawvideo", "-pix_fmt", "rgb24", "-",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DecodeArgs mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestSelectFilter(t *testing.T) {
	tests := []struct {
		name   string
		start  int
		stride int
		want   string
	}{
		{"whole video", 0, 1, ""},
		{"stride only", 0, 3, `select=not(mod(n\,3))`},
		{"offset only", 11, 1, `select=gte(n\,11)`},
		{"offset and stride", 4, 5, `select=gte(n\,4)*not(mod(n-4\,5))`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := selectFilter(tt.start, tt.stride); got != tt.want {
				t.Errorf("selectFilter(%d, %d) = %q, want %q", tt.start, tt.stride, got, tt.want)
			}
		})
	}
}

func TestParseFrameRate(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"25/1", 25},
		{"30000/1001", 30000.0 / 1001.0},
		{"24", 24},
		{"0/0", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := ParseFrameRate(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ParseFrameRate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseProbe(t *testing.T) {
	data := []byte(`{
		"streams": [{"width": 640, "height": 360, "avg_frame_rate": "0/0", "r_frame_rate": "24/1", "nb_frames": "240", "duration": "N/A"}],
		"format": {"duration": "10.000000"}
	}`)

	info, err := parseProbe(data)
	if err != nil {
		t.Fatalf("parseProbe failed: %v", err)
	}
	want := VideoInfo{Width: 640, Height: 360, FPS: 24, Duration: 10, TotalFrames: 240}
	if info != want {
		t.Errorf("parseProbe = %+v, want %+v", info, want)
	}

	if _, err := parseProbe([]byte(`{"streams": []}`)); err == nil {
		t.Error("Expected error for a file without video streams")
	}
}

func TestOpen_MissingFile(t *testing.T) {
	f := NewFFmpeg("ffmpeg", "ffprobe", zap.NewNop())
	_, err := f.Open(context.Background(), filepath.Join(t.TempDir(), "nope.mp4"), 1, 0, 1)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected os.ErrNotExist, got %v", err)
	}
}

// makeTestVideo renders a 32x24, 10 fps, 30 frame clip with ffmpeg's test source.
func makeTestVideo(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping ffmpeg integration test in short mode")
	}
	for _, tool := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("%s not installed", tool)
		}
	}

	path := filepath.Join(t.TempDir(), "testsrc.mp4")
	cmd := exec.Command("ffmpeg", "-v", "error", "-f", "lavfi", "-i", "testsrc=size=32x24:rate=10",
		"-frames:v", "30", "-c:v", "mpeg4", "-y", path)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Skipf("ffmpeg cannot render test video: %v (%s)", err, out)
	}
	return path
}

func TestFFmpegStream(t *testing.T) {
	path := makeTestVideo(t)
	f := NewFFmpeg("ffmpeg", "ffprobe", zap.NewNop())
	ctx := context.Background()

	info, err := f.Probe(ctx, path)
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if info.Width != 32 || info.Height != 24 || info.TotalFrames != 30 {
		t.Errorf("Unexpected probe result: %+v", info)
	}

	s, err := f.Open(ctx, path, 5, 9, 2)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	h := s.Header()
	if h.Width != 32 || h.Height != 24 || math.Abs(h.FrameTime-0.1) > 1e-9 {
		t.Errorf("Unexpected header: %+v", h)
	}

	count := 0
	for {
		fr, err := s.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if len(fr.Pixels) != h.FrameSize() {
			t.Fatalf("Frame has %d samples, want %d", len(fr.Pixels), h.FrameSize())
		}
		count++
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if count != 5 {
		t.Errorf("Expected 5 frames, got %d", count)
	}

	// Starting past the end yields an empty stream, not an error
	s, err = f.Open(ctx, path, 5, 100, 1)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := s.Next(); err != io.EOF {
		t.Errorf("Expected io.EOF for out-of-range start, got %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
