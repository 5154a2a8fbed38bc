package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/andresmejia3/lnl-frame-selector/internal/node"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema [class]",
	Short: "Print the node class mappings and their input/output schema",
	Long: `Without arguments prints every registered node and the display name
mappings. With a class name prints only that node's definition.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")

		if len(args) == 1 {
			def, ok := node.Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown node class %q", args[0])
			}
			return enc.Encode(def)
		}

		return enc.Encode(struct {
			Nodes        []node.Definition `json:"nodes"`
			DisplayNames map[string]string `json:"display_names"`
		}{node.Definitions(), node.DisplayNames()})
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
