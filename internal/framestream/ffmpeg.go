package framestream

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/andresmejia3/lnl-frame-selector/internal/utils"
	"go.uber.org/zap"
)

// FFmpeg opens frame streams by piping rawvideo out of an ffmpeg process.
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
	logger      *zap.Logger
}

func NewFFmpeg(ffmpegPath, ffprobePath string, logger *zap.Logger) *FFmpeg {
	return &FFmpeg{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath, logger: logger}
}

// Open probes path for its geometry and frame rate, then starts decoding
// frameCount frames beginning at startFrame, keeping every stride-th frame.
func (f *FFmpeg) Open(ctx context.Context, path string, frameCount, startFrame, stride int) (Stream, error) {
	info, err := probeStream(ctx, f.ffprobePath, path)
	if err != nil {
		return nil, err
	}
	if info.FPS <= 0 {
		return nil, fmt.Errorf("video %s reports no frame rate", path)
	}

	header := Header{Width: info.Width, Height: info.Height, FrameTime: 1 / info.FPS}

	cmd := utils.NewSafeCommand(ctx, f.ffmpegPath, DecodeArgs(path, frameCount, startFrame, stride)...)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	f.logger.Debug("decoding frame range",
		zap.String("path", path),
		zap.Int("width", header.Width),
		zap.Int("height", header.Height),
		zap.Float64("frame_time", header.FrameTime),
		zap.Int("frame_count", frameCount),
		zap.Int("start_frame", startFrame),
		zap.Int("stride", stride),
	)

	return &ffmpegStream{
		rawReader: newRawReader(bufio.NewReaderSize(out, header.FrameSize()), header, startFrame, stride),
		cmd:       cmd,
	}, nil
}

type ffmpegStream struct {
	*rawReader
	cmd     *utils.SafeCommand
	drained bool
}

func (s *ffmpegStream) Next() (Frame, error) {
	f, err := s.rawReader.Next()
	if err == io.EOF {
		s.drained = true
	}
	return f, err
}

// Close reaps the ffmpeg process. An undrained stream kills it first so a
// blocked writer cannot hold Wait forever.
func (s *ffmpegStream) Close() error {
	if !s.drained {
		_ = s.cmd.Process.Kill()
		_ = s.cmd.Wait()
		return nil
	}
	if err := s.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg decode failed: %w", s.cmd.Wrap(err))
	}
	return nil
}

// DecodeArgs builds the ffmpeg arguments for a strided rawvideo decode.
// Frame n is kept iff n >= startFrame and (n-startFrame) mod stride == 0.
func DecodeArgs(path string, frameCount, startFrame, stride int) []string {
	if stride < 1 {
		stride = 1
	}
	if startFrame < 0 {
		startFrame = 0
	}
	if frameCount < 0 {
		frameCount = 0
	}

	args := []string{"-hide_banner", "-loglevel", "error", "-noautorotate", "-i", path, "-an", "-sn"}
	if filter := selectFilter(startFrame, stride); filter != "" {
		args = append(args, "-vf", filter)
	}
	return append(args,
		"-fps_mode", "passthrough",
		"-frames:v", strconv.Itoa(frameCount),
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-",
	)
}

// selectFilter escapes commas with a backslash so the filtergraph parser
// keeps them inside the expression.
func selectFilter(startFrame, stride int) string {
	switch {
	case startFrame == 0 && stride == 1:
		return ""
	case startFrame == 0:
		return fmt.Sprintf(`select=not(mod(n\,%d))`, stride)
	case stride == 1:
		return fmt.Sprintf(`select=gte(n\,%d)`, startFrame)
	default:
		return fmt.Sprintf(`select=gte(n\,%d)*not(mod(n-%d\,%d))`, startFrame, startFrame, stride)
	}
}
