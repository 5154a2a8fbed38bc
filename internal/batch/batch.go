// Package batch materializes frame streams into dense float32 tensors.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/andresmejia3/lnl-frame-selector/internal/framestream"
)

var (
	// ErrNoFramesDecoded means the requested range produced nothing: the
	// offset is past the end of the video or the selection is empty.
	ErrNoFramesDecoded = errors.New("no frames generated")
	// ErrFrameShape means a frame did not match the stream header.
	ErrFrameShape = errors.New("frame does not match stream header")
)

// maxPrealloc bounds the up-front allocation (in samples) so a long range
// grows as frames actually arrive.
const maxPrealloc = 1 << 26

// Batch is an owned (frames, height, width, 3) tensor stored flat in Data.
type Batch struct {
	Frames   int
	Height   int
	Width    int
	Channels int
	Data     []float32
}

// Shape returns the tensor dimensions in NHWC order.
func (b *Batch) Shape() [4]int {
	return [4]int{b.Frames, b.Height, b.Width, b.Channels}
}

// Len is the number of frames.
func (b *Batch) Len() int { return b.Frames }

func (b *Batch) frameSize() int { return b.Height * b.Width * b.Channels }

type options struct {
	progress func(decoded int)
}

// Option configures Build.
type Option func(*options)

// WithProgress calls fn with the running frame count after each frame.
func WithProgress(fn func(decoded int)) Option {
	return func(o *options) { o.progress = fn }
}

// Build decodes frameCount frames of videoPath starting at startFrame,
// keeping every stride-th one, and returns them as a single Batch along
// with the stream's per-frame time in seconds.
func Build(ctx context.Context, opener framestream.Opener, videoPath string, frameCount, stride, startFrame int, opts ...Option) (*Batch, float64, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	stream, err := opener.Open(ctx, videoPath, frameCount, startFrame, stride)
	if err != nil {
		return nil, 0, fmt.Errorf("open frame stream: %w", err)
	}

	header := stream.Header()
	b := &Batch{Height: header.Height, Width: header.Width, Channels: framestream.Channels}
	if frameCount > 0 && frameCount*header.FrameSize() <= maxPrealloc {
		b.Data = make([]float32, 0, frameCount*header.FrameSize())
	}

	if err := consume(ctx, stream, b, o); err != nil {
		stream.Close()
		return nil, 0, err
	}
	// A cancelled decode ends its stream early; report the cancellation
	// rather than whatever the killed process left behind.
	if err := ctx.Err(); err != nil {
		stream.Close()
		return nil, 0, err
	}
	if err := stream.Close(); err != nil {
		return nil, 0, fmt.Errorf("close frame stream: %w", err)
	}

	if b.Frames == 0 {
		return nil, 0, ErrNoFramesDecoded
	}
	return b, header.FrameTime, nil
}

func consume(ctx context.Context, stream framestream.Stream, b *Batch, o options) error {
	want := b.frameSize()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		frame, err := stream.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("decode frame %d: %w", b.Frames, err)
		}
		if len(frame.Pixels) != want {
			return fmt.Errorf("%w: frame %d has %d samples, want %d", ErrFrameShape, b.Frames, len(frame.Pixels), want)
		}

		b.Data = append(b.Data, frame.Pixels...)
		b.Frames++
		if o.progress != nil {
			o.progress(b.Frames)
		}
	}
}
