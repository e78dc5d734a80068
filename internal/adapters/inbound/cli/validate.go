package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/preflightci/preflight/internal/adapters/outbound/analyzer"
	"github.com/preflightci/preflight/internal/adapters/outbound/browser"
	"github.com/preflightci/preflight/internal/adapters/outbound/builder"
	"github.com/preflightci/preflight/internal/adapters/outbound/config"
	"github.com/preflightci/preflight/internal/adapters/outbound/detector"
	"github.com/preflightci/preflight/internal/adapters/outbound/gitinfo"
	"github.com/preflightci/preflight/internal/adapters/outbound/history"
	"github.com/preflightci/preflight/internal/adapters/outbound/report"
	"github.com/preflightci/preflight/internal/adapters/outbound/runner"
	"github.com/preflightci/preflight/internal/adapters/outbound/settings"
	"github.com/preflightci/preflight/internal/adapters/outbound/source"
	"github.com/preflightci/preflight/internal/adapters/outbound/tui"
	"github.com/preflightci/preflight/internal/application"
	"github.com/preflightci/preflight/internal/domain"
)

func newValidateCmd() *cobra.Command {
	var (
		output      string
		format      string
		jsonOutput  bool
		skipUI      bool
		stagesCSV   string
		minScore    int
		keepWorkdir bool
		noHistory   bool
	)

	cmd := &cobra.Command{
		Use:   "validate [project]",
		Short: "Run the full validation pipeline against a project",
		Long:  "Validate a project directory, archive or repository URL end to end: detect the kind, analyze the sources, build, start the server and check the rendered UI. Exits 0 only when the overall status is pass.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := "."
			if len(args) > 0 {
				input = args[0]
			}

			stages, err := parseStages(stagesCSV)
			if err != nil {
				return err
			}
			if format != "json" && format != "html" {
				return fmt.Errorf("unknown format %q (valid: json, html)", format)
			}

			cfg, err := settings.Load()
			if err != nil {
				return fmt.Errorf("loading settings: %w", err)
			}

			svc := newPipeline(cfg)

			opts := application.RunOptions{
				Stages:      stages,
				SkipUI:      skipUI,
				KeepWorkdir: keepWorkdir,
				Viewports:   cfg.Viewports(),
			}
			if !jsonOutput {
				opts.Progress = func(stage, status string) {
					fmt.Fprint(cmd.OutOrStdout(), tui.RenderStageLine(stage, status))
				}
			}

			result, err := svc.Validate(cmd.Context(), input, opts)
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}

			if !noHistory {
				saveHistory(input, result) // best-effort
			}

			if output != "" {
				if err := writeReport(result, output, format); err != nil {
					return fmt.Errorf("writing report: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", output)
			}

			if jsonOutput {
				if err := renderResultJSON(cmd, result); err != nil {
					return err
				}
			} else {
				fmt.Fprint(cmd.OutOrStdout(), tui.RenderResult(result))
			}

			if minScore > 0 && result.Score < minScore {
				return fmt.Errorf("score %d is below minimum %d", result.Score, minScore)
			}
			if !result.Passed() {
				return fmt.Errorf("validation finished with status %s (score %d)", result.Status, result.Score)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the report to this path")
	cmd.Flags().StringVar(&format, "format", "json", "Report format for --output (json, html)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON instead of the TUI")
	cmd.Flags().BoolVar(&skipUI, "skip-ui", false, "Skip the browser stage")
	cmd.Flags().StringVar(&stagesCSV, "stages", "", "Comma-separated stages to run (static,build,runtime,ui)")
	cmd.Flags().IntVar(&minScore, "min-score", 0, "Exit nonzero when the score is below this value")
	cmd.Flags().BoolVar(&keepWorkdir, "keep-workdir", false, "Keep the temporary checkout of archive and repository inputs")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record this run in the project history")

	return cmd
}

// newPipeline assembles the validation service with its real adapters.
func newPipeline(cfg *settings.Settings) *application.ValidateService {
	return application.NewValidateService(
		source.New(),
		detector.New(),
		config.New(),
		analyzer.New(),
		builder.NewWithTimeout(cfg.Timeouts.Build),
		runner.NewWithTimings(cfg.Timeouts.Start, 0),
		browser.New(browser.Options{
			ChromePath:    cfg.Browser.ChromePath,
			AxeScriptURL:  cfg.Browser.AxeScriptURL,
			ScreenshotDir: cfg.Report.Dir,
			NavTimeout:    cfg.Timeouts.Navigation,
		}),
		gitinfo.New(),
	)
}

// parseStages validates the --stages filter.
func parseStages(csv string) ([]string, error) {
	if csv == "" {
		return nil, nil
	}
	var stages []string
	for _, part := range strings.Split(csv, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		if !domain.IsStage(name) {
			return nil, fmt.Errorf("unknown stage %q (valid: %s)", name, strings.Join(domain.AllStages, ", "))
		}
		stages = append(stages, name)
	}
	return stages, nil
}

// saveHistory records the run next to the project when the input is a plain
// local directory; archive and repository runs validate a throwaway copy, so
// there is nothing durable to attach history to.
func saveHistory(input string, result *domain.ValidationResult) {
	abs, err := filepath.Abs(input)
	if err != nil {
		return
	}
	if st, err := os.Stat(abs); err != nil || !st.IsDir() {
		return
	}
	_ = history.New().Append(abs, domain.HistoryEntryFor(result))
}

func writeReport(result *domain.ValidationResult, path, format string) error {
	rep := report.New()
	if format == "html" {
		return rep.WriteHTML(result, path)
	}
	return rep.WriteJSON(result, path)
}

func renderResultJSON(cmd *cobra.Command, result *domain.ValidationResult) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
