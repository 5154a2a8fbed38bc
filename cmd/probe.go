package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/andresmejia3/lnl-frame-selector/internal/node"
	"github.com/spf13/cobra"
)

var probeCmd = &cobra.Command{
	Use:   "probe <video>",
	Short: "Print geometry, frame rate and frame count of a video",
	Long:  "Reports the values the in/out point slider needs (totalFrames, frameRate). The path is resolved against the base path.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := newDecoder().Probe(cmd.Context(), node.ResolvePath(Cfg.BasePath, args[0]))
		if err != nil {
			return fmt.Errorf("failed to probe video: %w", err)
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)
}
