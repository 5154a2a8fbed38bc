// Package framestream produces decoded frame sequences from video files.
//
// A Stream is ordered, finite and non-restartable: it exposes a one-time
// Header followed by frames until Next returns io.EOF.
package framestream

import (
	"context"
	"fmt"
	"io"
)

// Channels is the number of samples per pixel (RGB).
const Channels = 3

// Header describes every frame of a stream.
type Header struct {
	Width  int
	Height int
	// FrameTime is the duration of one source frame in seconds (1/fps).
	FrameTime float64
}

// FrameSize is the number of float samples in one frame.
func (h Header) FrameSize() int {
	return h.Width * h.Height * Channels
}

// Frame is one decoded picture in row-major HWC order, RGB, values in [0,1].
type Frame struct {
	Index  int // Source frame number (zero-based)
	Pixels []float32
}

// Stream yields a Header and then frames until io.EOF.
type Stream interface {
	Header() Header
	Next() (Frame, error)
	Close() error
}

// Opener starts a Stream over a strided frame range of a video.
type Opener interface {
	Open(ctx context.Context, path string, frameCount, startFrame, stride int) (Stream, error)
}

// ToFloat32 scales 8-bit samples into dst as value/255.
func ToFloat32(dst []float32, src []byte) {
	for i, v := range src {
		dst[i] = float32(v) / 255
	}
}

// rawReader cuts a byte stream of packed rgb24 frames into Frames.
type rawReader struct {
	r      io.Reader
	header Header
	buf    []byte
	next   int // Source index of the next frame
	stride int
	read   int
}

func newRawReader(r io.Reader, header Header, startFrame, stride int) *rawReader {
	if stride < 1 {
		stride = 1
	}
	return &rawReader{
		r:      r,
		header: header,
		buf:    make([]byte, header.FrameSize()),
		next:   startFrame,
		stride: stride,
	}
}

func (r *rawReader) Header() Header { return r.header }

func (r *rawReader) Next() (Frame, error) {
	// io.ReadFull returns io.EOF only when nothing was read; a partial
	// frame comes back as io.ErrUnexpectedEOF.
	if _, err := io.ReadFull(r.r, r.buf); err != nil {
		if err == io.EOF {
			return Frame{}, io.EOF
		}
		return Frame{}, fmt.Errorf("read frame %d: %w", r.read, err)
	}

	pixels := make([]float32, len(r.buf))
	ToFloat32(pixels, r.buf)

	f := Frame{Index: r.next, Pixels: pixels}
	r.next += r.stride
	r.read++
	return f, nil
}
