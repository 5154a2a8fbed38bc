package framestream

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/andresmejia3/lnl-frame-selector/internal/utils"
)

// VideoInfo is the subset of ffprobe output the selector needs.
type VideoInfo struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	FPS         float64 `json:"fps"`
	Duration    float64 `json:"duration_seconds"`
	TotalFrames int     `json:"total_frames"`
}

// ffprobeOutput represents the JSON structure from ffprobe.
type ffprobeOutput struct {
	Streams []struct {
		Width         int    `json:"width"`
		Height        int    `json:"height"`
		AvgFrameRate  string `json:"avg_frame_rate"`
		RFrameRate    string `json:"r_frame_rate"`
		NbFrames      string `json:"nb_frames"`
		NbReadPackets string `json:"nb_read_packets"`
		Duration      string `json:"duration"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe reports geometry, frame rate, duration and frame count of the first
// video stream. The frame count comes from container metadata, falling
// back to counting packets when the container does not carry it.
func (f *FFmpeg) Probe(ctx context.Context, path string) (VideoInfo, error) {
	info, err := probeStream(ctx, f.ffprobePath, path)
	if err != nil {
		return VideoInfo{}, err
	}
	if info.TotalFrames > 0 {
		return info, nil
	}

	// Slow path: count packets
	f.logger.Info("frame count missing from container, counting packets")
	out, err := utils.NewSafeCommand(ctx, f.ffprobePath,
		"-v", "error", "-select_streams", "v:0", "-count_packets",
		"-show_entries", "stream=nb_read_packets", "-of", "json", path,
	).Output()
	if err != nil {
		return VideoInfo{}, fmt.Errorf("ffprobe packet count: %w", err)
	}
	var res ffprobeOutput
	if err := json.Unmarshal(out, &res); err != nil {
		return VideoInfo{}, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	if len(res.Streams) > 0 {
		info.TotalFrames, _ = strconv.Atoi(res.Streams[0].NbReadPackets)
	}
	return info, nil
}

func probeStream(ctx context.Context, ffprobePath, path string) (VideoInfo, error) {
	// ffprobe's own message for a missing file is opaque; stat first.
	if _, err := os.Stat(path); err != nil {
		return VideoInfo{}, fmt.Errorf("video unavailable: %w", err)
	}

	out, err := utils.NewSafeCommand(ctx, ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,avg_frame_rate,r_frame_rate,nb_frames,duration:format=duration",
		"-of", "json",
		path,
	).Output()
	if err != nil {
		return VideoInfo{}, fmt.Errorf("ffprobe failed: %w", err)
	}
	return parseProbe(out)
}

func parseProbe(data []byte) (VideoInfo, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(data, &probe); err != nil {
		return VideoInfo{}, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	if len(probe.Streams) == 0 {
		return VideoInfo{}, fmt.Errorf("no video stream found")
	}

	s := probe.Streams[0]
	if s.Width <= 0 || s.Height <= 0 {
		return VideoInfo{}, fmt.Errorf("invalid video dimensions %dx%d", s.Width, s.Height)
	}

	info := VideoInfo{Width: s.Width, Height: s.Height}
	info.FPS = ParseFrameRate(s.AvgFrameRate)
	if info.FPS <= 0 {
		info.FPS = ParseFrameRate(s.RFrameRate)
	}
	info.TotalFrames, _ = strconv.Atoi(s.NbFrames)

	duration := s.Duration
	if duration == "" || duration == "N/A" {
		duration = probe.Format.Duration
	}
	info.Duration, _ = strconv.ParseFloat(duration, 64)
	return info, nil
}

// ParseFrameRate parses frame rate from ffprobe format (e.g., "30000/1001" -> 29.97)
func ParseFrameRate(value string) float64 {
	parts := strings.Split(value, "/")
	if len(parts) == 2 {
		num, _ := strconv.ParseFloat(parts[0], 64)
		den, _ := strconv.ParseFloat(parts[1], 64)
		if den != 0 {
			return num / den
		}
		return 0
	}
	rate, _ := strconv.ParseFloat(value, 64)
	return rate
}
