package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/preflightci/preflight/internal/adapters/outbound/detector"
	"github.com/preflightci/preflight/internal/domain"
)

const configFileName = ".preflight.yaml"

func newInitCmd() *cobra.Command {
	var (
		kind  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Generate a .preflight.yaml configuration file",
		Long:  "Create a .preflight.yaml pre-filled from the detected project kind. Every field is optional; remove what you do not need.",
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

			dest := filepath.Join(absPath, configFileName)

			if !force {
				if _, err := os.Stat(dest); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", configFileName)
				}
			}

			if kind != "" && !domain.IsValidKind(domain.Kind(kind)) {
				return fmt.Errorf("unknown kind %q", kind)
			}

			// Pre-fill from detection so the template shows real values
			info, err := detector.New().Detect(absPath)
			if err != nil {
				return fmt.Errorf("detection failed: %w", err)
			}
			if kind != "" {
				info.Kind = domain.Kind(kind)
			}

			content := generateConfig(info)

			if err := os.WriteFile(dest, []byte(content), 0644); err != nil {
				return fmt.Errorf("writing config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", configFileName)
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "Override the detected project kind")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing .preflight.yaml")

	return cmd
}

func generateConfig(info *domain.ProjectInfo) string {
	out := "# Preflight configuration. Every field is optional; values here\n"
	out += "# override what detection derives from the project's manifests.\n\n"
	out += fmt.Sprintf("kind: %s\n", info.Kind)

	if info.DefaultPort > 0 {
		out += fmt.Sprintf("port: %d\n", info.DefaultPort)
	} else {
		out += "# port: 3000\n"
	}

	out += "# health_path: /healthz\n"

	if info.EntryPoint != "" {
		out += fmt.Sprintf("# entry_point: %s\n", info.EntryPoint)
	}
	out += commandLines("build_command", info.BuildCommand)
	out += commandLines("start_command", info.StartCommand)

	out += `
# exclude_paths:
#   - generated
#   - third_party

# env:
#   NODE_ENV: production
`
	return out
}

// commandLines renders an argv list as a commented yaml sequence so the user
// sees the exact command the pipeline would run.
func commandLines(key string, argv []string) string {
	if len(argv) == 0 {
		return ""
	}
	out := fmt.Sprintf("# %s:\n", key)
	for _, arg := range argv {
		out += fmt.Sprintf("#   - %q\n", arg)
	}
	return out
}
