// Package node implements the LNL frame selector: it cuts a strided frame
// batch and a matching audio slice between two in/out markers of a video.
package node

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/andresmejia3/lnl-frame-selector/internal/audio"
	"github.com/andresmejia3/lnl-frame-selector/internal/batch"
	"github.com/andresmejia3/lnl-frame-selector/internal/framestream"
	"github.com/andresmejia3/lnl-frame-selector/internal/lazy"
	"github.com/andresmejia3/lnl-frame-selector/internal/metrics"
	"github.com/andresmejia3/lnl-frame-selector/internal/types"
	"go.uber.org/zap"
)

// AudioExtractor slices duration seconds of audio starting at start seconds.
type AudioExtractor interface {
	Extract(ctx context.Context, path string, start, duration float64) (*audio.Audio, error)
}

// Result holds the node outputs in host order.
type Result struct {
	CurrentImage    *batch.Batch
	Batch           *batch.Batch
	FrameCount      int
	TotalFrames     int
	CurrentFrameRel int
	CurrentFrameAbs int
	FrameRate       float64
	// Audio runs the extraction under the context passed to Evaluate.
	// Force it before that context is cancelled.
	Audio lazy.Thunk[*audio.Audio]
}

// Values returns the outputs as the fixed 8-tuple the host expects.
func (r *Result) Values() []any {
	return []any{
		r.CurrentImage,
		r.Batch,
		r.FrameCount,
		r.TotalFrames,
		r.CurrentFrameRel,
		r.CurrentFrameAbs,
		r.FrameRate,
		r.Audio,
	}
}

type FrameSelector struct {
	opener   framestream.Opener
	audio    AudioExtractor
	basePath string
	logger   *zap.Logger
	progress func(decoded int)
}

// NewFrameSelector creates a selector resolving prompt video paths against basePath.
func NewFrameSelector(opener framestream.Opener, extractor AudioExtractor, basePath string, logger *zap.Logger) *FrameSelector {
	return &FrameSelector{
		opener:   opener,
		audio:    extractor,
		basePath: basePath,
		logger:   logger.With(zap.String("component", "frame_selector")),
	}
}

// SetProgress reports decoding progress of the in/out range.
func (s *FrameSelector) SetProgress(fn func(decoded int)) {
	s.progress = fn
}

// ResolvePath joins the base path with a prompt-relative video path.
func (s *FrameSelector) ResolvePath(videoPath string) string {
	return ResolvePath(s.basePath, videoPath)
}

// ResolvePath joins basePath and videoPath. An absolute videoPath is used as is.
func ResolvePath(basePath, videoPath string) string {
	if filepath.IsAbs(videoPath) {
		return filepath.Clean(videoPath)
	}
	return filepath.Join(basePath, videoPath)
}

// GetSpecificFrame evaluates the node uniqueID of prompt.
func (s *FrameSelector) GetSpecificFrame(ctx context.Context, prompt types.Prompt, uniqueID string) (*Result, error) {
	sel, err := ParseSelection(prompt, uniqueID)
	if err != nil {
		return nil, err
	}
	return s.Evaluate(ctx, sel)
}

// Evaluate decodes the preview frame and the in/out range of sel and
// defers the audio slice until the caller forces it.
func (s *FrameSelector) Evaluate(ctx context.Context, sel Selection) (*Result, error) {
	fullPath := s.ResolvePath(sel.VideoPath)
	framesToProcess := sel.FramesToProcess()
	startingFrame := sel.StartingFrame()

	log := s.logger.With(zap.String("video", fullPath))
	log.Debug("frame selection",
		zap.Float64("frame_rate", sel.FrameRate),
		zap.Int("in_point", sel.InPoint),
		zap.Int("out_point", sel.OutPoint),
		zap.Int("current_frame", sel.CurrentFrame),
		zap.Int("total_frames", sel.TotalFrames),
		zap.Int("stride", sel.Stride),
	)

	// The preview ignores the selection stride and its frame time is not used.
	current, _, err := s.build(ctx, "preview", fullPath, 1, 1, sel.CurrentFrame-1)
	if err != nil {
		return nil, err
	}

	var opts []batch.Option
	if s.progress != nil {
		opts = append(opts, batch.WithProgress(s.progress))
	}
	images, frameTime, err := s.build(ctx, "range", fullPath, framesToProcess, sel.Stride, startingFrame, opts...)
	if err != nil {
		return nil, err
	}

	// The audio window is timed with the range build's frame time.
	start := float64(startingFrame) * frameTime
	duration := float64(framesToProcess) * frameTime * float64(sel.Stride)
	thunk := lazy.Make(func() (*audio.Audio, error) {
		a, err := s.audio.Extract(ctx, fullPath, start, duration)
		if err != nil {
			metrics.AudioExtractionsTotal.WithLabelValues("error").Inc()
			return nil, err
		}
		metrics.AudioExtractionsTotal.WithLabelValues("ok").Inc()
		return a, nil
	})

	log.Info("frames selected",
		zap.Int("frames", images.Len()),
		zap.Float64("frame_time", frameTime),
		zap.Float64("audio_start", start),
		zap.Float64("audio_duration", duration),
	)

	return &Result{
		CurrentImage:    current,
		Batch:           images,
		FrameCount:      framesToProcess,
		TotalFrames:     sel.TotalFrames,
		CurrentFrameRel: sel.RelativeCurrentFrame(),
		CurrentFrameAbs: sel.CurrentFrame,
		FrameRate:       sel.FrameRate,
		Audio:           thunk,
	}, nil
}

func (s *FrameSelector) build(ctx context.Context, kind, path string, frameCount, stride, startFrame int, opts ...batch.Option) (*batch.Batch, float64, error) {
	began := time.Now()
	b, frameTime, err := batch.Build(ctx, s.opener, path, frameCount, stride, startFrame, opts...)
	metrics.BatchBuildDuration.WithLabelValues(kind).Observe(time.Since(began).Seconds())
	if err != nil {
		reason := "error"
		if errors.Is(err, batch.ErrNoFramesDecoded) {
			reason = "no_frames"
		}
		metrics.BatchFailuresTotal.WithLabelValues(kind, reason).Inc()
		s.logger.Warn("frame batch failed",
			zap.String("kind", kind),
			zap.Int("frame_count", frameCount),
			zap.Int("start_frame", startFrame),
			zap.Int("stride", stride),
			zap.Error(err),
		)
		return nil, 0, err
	}
	metrics.FramesDecodedTotal.WithLabelValues(kind).Add(float64(b.Len()))
	return b, frameTime, nil
}
