package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/andresmejia3/lnl-frame-selector/internal/node"
	"github.com/andresmejia3/lnl-frame-selector/internal/types"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// SelectOptions holds the flags of the select command
type SelectOptions struct {
	PromptPath string
	UniqueID   string
	OutputDir  string
	ForceAudio bool
	NoProgress bool

	// Used when no prompt file is given
	VideoPath    string
	InPoint      int
	OutPoint     int
	CurrentFrame int
	TotalFrames  int
	FrameRate    float64
	NthFrame     int
}

var selectOpts SelectOptions

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Evaluate the frame selector node once and write its outputs",
	Long: `Evaluates LNL_FrameSelector against a host prompt (--prompt/--id) or against
a selection given as flags, and writes manifest.json, current.f32, batch.f32
and, with --audio, audio.wav into the output directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSelect(cmd, selectOpts)
	},
}

func init() {
	f := selectCmd.Flags()
	f.StringVarP(&selectOpts.PromptPath, "prompt", "p", "", "Host prompt JSON file ('-' for stdin)")
	f.StringVar(&selectOpts.UniqueID, "id", "", "Unique id of the selector node inside the prompt")
	f.StringVarP(&selectOpts.OutputDir, "output", "o", "lnl-out", "Directory for the node outputs")
	f.BoolVar(&selectOpts.ForceAudio, "audio", false, "Force the audio output and write audio.wav")
	f.BoolVar(&selectOpts.NoProgress, "no-progress", false, "Disable the progress bar")

	f.StringVarP(&selectOpts.VideoPath, "video", "i", "", "Video path relative to the base path")
	f.IntVar(&selectOpts.InPoint, "in", 1, "In point (1-based, inclusive)")
	f.IntVar(&selectOpts.OutPoint, "out", 1, "Out point (1-based, inclusive)")
	f.IntVar(&selectOpts.CurrentFrame, "current", 1, "Current frame shown as preview (1-based)")
	f.IntVar(&selectOpts.TotalFrames, "total", 0, "Total frames of the video as shown by the slider")
	f.Float64Var(&selectOpts.FrameRate, "frame-rate", 0, "Frame rate as shown by the slider")
	f.IntVarP(&selectOpts.NthFrame, "nth-frame", "n", 1, "Select every Nth frame of the range")

	selectCmd.MarkFlagsMutuallyExclusive("prompt", "video")
	rootCmd.AddCommand(selectCmd)
}

// runSelect resolves the prompt, evaluates the node and writes the outputs.
func runSelect(cmd *cobra.Command, opts SelectOptions) error {
	prompt, uniqueID, err := loadPrompt(cmd.InOrStdin(), opts)
	if err != nil {
		return err
	}

	sel, err := node.ParseSelection(prompt, uniqueID)
	if err != nil {
		return err
	}

	selector := node.NewFrameSelector(newDecoder(), newAudioExtractor(), Cfg.BasePath, Log)
	if !opts.NoProgress {
		bar := progressbar.NewOptions(max(sel.FramesToProcess(), 1),
			progressbar.OptionSetDescription("🎞️  Selecting frames"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
		)
		defer bar.Finish()
		selector.SetProgress(func(n int) { _ = bar.Set(n) })
	}

	res, err := selector.GetSpecificFrame(cmd.Context(), prompt, uniqueID)
	if err != nil {
		return err
	}

	m, err := writeOutputs(opts.OutputDir, uniqueID, res, opts.ForceAudio)
	if err != nil {
		return err
	}

	Log.Info("outputs written",
		zap.String("unique_id", uniqueID),
		zap.String("dir", opts.OutputDir),
		zap.Int("outputs", len(m.Outputs)),
	)
	return json.NewEncoder(cmd.OutOrStdout()).Encode(m)
}

// loadPrompt reads the host prompt, or synthesises one keyed by a fresh
// UUID from the selection flags.
func loadPrompt(stdin io.Reader, opts SelectOptions) (types.Prompt, string, error) {
	if opts.PromptPath == "" {
		if opts.VideoPath == "" {
			return nil, "", fmt.Errorf("either --prompt or --video is required")
		}
		id := opts.UniqueID
		if id == "" {
			id = uuid.NewString()
		}
		prompt, err := node.NewPrompt(id, node.Selection{
			VideoPath:    opts.VideoPath,
			InPoint:      opts.InPoint,
			OutPoint:     opts.OutPoint,
			CurrentFrame: opts.CurrentFrame,
			TotalFrames:  opts.TotalFrames,
			FrameRate:    opts.FrameRate,
			Stride:       opts.NthFrame,
		})
		return prompt, id, err
	}

	if opts.UniqueID == "" {
		return nil, "", fmt.Errorf("--id is required with --prompt")
	}

	var r io.Reader = stdin
	if opts.PromptPath != "-" {
		f, err := os.Open(opts.PromptPath)
		if err != nil {
			return nil, "", fmt.Errorf("open prompt: %w", err)
		}
		defer f.Close()
		r = f
	}

	var prompt types.Prompt
	if err := json.NewDecoder(r).Decode(&prompt); err != nil {
		return nil, "", fmt.Errorf("decode prompt: %w", err)
	}
	return prompt, opts.UniqueID, nil
}
