package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/preflightci/preflight/internal/adapters/outbound/settings"
	"github.com/preflightci/preflight/internal/adapters/outbound/tui"
	"github.com/preflightci/preflight/internal/application"
	"github.com/preflightci/preflight/internal/domain"
)

// watchSkipDirs are dependency and output directories whose churn never
// warrants a re-run.
var watchSkipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	".git":         true,
	"dist":         true,
	"build":        true,
	"target":       true,
	"__pycache__":  true,
	".next":        true,
	".nuxt":        true,
	".output":      true,
	"venv":         true,
	".venv":        true,
	".cache":       true,
	"coverage":     true,
	".preflight":   true,
}

func newWatchCmd() *cobra.Command {
	var stagesCSV string

	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Re-validate on file changes",
		Long:  "Watch a project directory and re-run the fast pipeline stages (static, build) whenever sources change.",
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

			cfg, err := settings.Load()
			if err != nil {
				return fmt.Errorf("loading settings: %w", err)
			}

			stages := []string{domain.StageStatic, domain.StageBuild}
			if stagesCSV != "" {
				stages, err = parseStages(stagesCSV)
				if err != nil {
					return err
				}
			}

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("starting watcher: %w", err)
			}
			defer watcher.Close()

			if err := addWatchRecursive(watcher, absPath); err != nil {
				return fmt.Errorf("watching %s: %w", absPath, err)
			}

			svc := newPipeline(cfg)
			runOnce := func() {
				result, err := svc.Validate(cmd.Context(), absPath, application.RunOptions{Stages: stages, SkipUI: true})
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "validation failed: %v\n", err)
					return
				}
				fmt.Fprint(cmd.OutOrStdout(), tui.RenderWatchLine(result))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (stages: %s)\n", absPath, strings.Join(stages, ","))
			runOnce()

			debounce := cfg.Watch.Debounce
			if debounce <= 0 {
				debounce = 300 * time.Millisecond
			}

			var timer *time.Timer
			for {
				select {
				case <-cmd.Context().Done():
					return nil
				case ev, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if watchIgnored(absPath, ev.Name) {
						continue
					}
					if ev.Op.Has(fsnotify.Create) {
						// new directories need their own watch
						if st, err := os.Stat(ev.Name); err == nil && st.IsDir() {
							_ = addWatchRecursive(watcher, ev.Name)
						}
					}
					if timer != nil {
						timer.Stop()
					}
					timer = time.AfterFunc(debounce, runOnce)
				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", err)
				}
			}
		},
	}

	cmd.Flags().StringVar(&stagesCSV, "stages", "", "Stages to re-run on change (default static,build)")

	return cmd
}

func addWatchRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if watchSkipDirs[info.Name()] {
				return filepath.SkipDir
			}
			return w.Add(path)
		}
		return nil
	})
}

// watchIgnored reports whether the changed path lives under a skipped
// directory, including preflight's own history writes.
func watchIgnored(root, changed string) bool {
	rel, err := filepath.Rel(root, changed)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if watchSkipDirs[part] {
			return true
		}
	}
	return false
}
