package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/andresmejia3/lnl-frame-selector/internal/audio"
	"github.com/andresmejia3/lnl-frame-selector/internal/config"
	"github.com/andresmejia3/lnl-frame-selector/internal/framestream"
	"github.com/andresmejia3/lnl-frame-selector/internal/logging"
	"github.com/andresmejia3/lnl-frame-selector/internal/metrics"
	"github.com/andresmejia3/lnl-frame-selector/internal/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Cfg is the resolved configuration shared by subcommands
	Cfg *config.Config
	// Log is the structured logger shared by subcommands
	Log *zap.Logger

	logLevel    string
	basePath    string
	ffmpegPath  string
	ffprobePath string
)

// Version is the application version.
const Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:           "lnl",
	Short:         "LNL frame selector bridge for node graph hosts",
	Version:       Version, // This enables the --version flag
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// Flags win over the environment
		flags := cmd.Flags()
		if flags.Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if flags.Changed("base-path") {
			cfg.BasePath = basePath
		}
		if flags.Changed("ffmpeg") {
			cfg.FFmpegPath = ffmpegPath
		}
		if flags.Changed("ffprobe") {
			cfg.FFprobePath = ffprobePath
		}

		log, err := logging.New(cfg.LogLevel)
		if err != nil {
			return err
		}
		Cfg, Log = cfg, log
		return nil
	},
}

// newDecoder wires the ffmpeg-backed frame source from the resolved config.
func newDecoder() *framestream.FFmpeg {
	return framestream.NewFFmpeg(Cfg.FFmpegPath, Cfg.FFprobePath, Log.With(zap.String("component", "framestream")))
}

func newAudioExtractor() *audio.Extractor {
	return audio.NewExtractor(Cfg.FFmpegPath, Log.With(zap.String("component", "audio")))
}

func Execute() {
	// Create a context that listens for Ctrl+C (SIGINT) or Kill (SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := run(ctx); err != nil {
		utils.Die("command failed", err, nil)
	}
}

// run executes the root command and flushes metrics and logs whether or
// not the command failed.
func run(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	flush()
	return err
}

func flush() {
	if Cfg != nil && Cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(Cfg.MetricsFile); err != nil {
			Log.Warn("failed to write metrics textfile", zap.String("path", Cfg.MetricsFile), zap.Error(err))
		}
	}
	if Log != nil {
		_ = Log.Sync()
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error (env LNL_LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&basePath, "base-path", ".", "Host base directory that prompt video paths are relative to (env LNL_BASE_PATH)")
	rootCmd.PersistentFlags().StringVar(&ffmpegPath, "ffmpeg", "ffmpeg", "ffmpeg binary (env LNL_FFMPEG_PATH)")
	rootCmd.PersistentFlags().StringVar(&ffprobePath, "ffprobe", "ffprobe", "ffprobe binary (env LNL_FFPROBE_PATH)")
}
