package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/preflightci/preflight/internal/adapters/outbound/config"
	"github.com/preflightci/preflight/internal/adapters/outbound/detector"
	"github.com/preflightci/preflight/internal/adapters/outbound/tui"
)

func newDetectCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "detect [path]",
		Short: "Detect the project kind without validating",
		Long:  "Classify a directory into a project kind and show the entry point, commands and port the pipeline would use.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}

			absPath, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			info, err := detector.New().Detect(absPath)
			if err != nil {
				return fmt.Errorf("detection failed: %w", err)
			}

			// Apply overrides so the printed commands match a real run
			cfg, err := config.New().Load(absPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			info = cfg.Apply(info)

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}

			fmt.Fprint(cmd.OutOrStdout(), tui.RenderDetect(info))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
