package commands

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/seedbed/seedbed/pkg/config"
)

func newWatchCommand() *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch <plan.yaml>",
		Short: "Run a seed plan and re-run it on file changes",
		Long: `Run a seed plan, then watch the plan file, its generator scripts
and its policy files, re-running the plan when any of them change.

Because runs are idempotent, a re-run only touches collections that are
empty or below their generated-mode floor. Useful during development
against a store that is wiped between schema iterations.`,
		Example: `  # Watch a plan during development
  seedbed watch plan.yaml

  # Re-run at most once per 2s burst of changes
  seedbed watch plan.yaml --debounce 2s`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			planPath := args[0]

			if err := runOnce(ctx, planPath); err != nil {
				return err
			}

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return err
			}
			defer watcher.Close()

			for _, path := range watchPaths(planPath) {
				if err := watcher.Add(path); err != nil {
					log.Warn().Err(err).Str("path", path).Msg("Failed to watch path")
				}
			}

			log.Info().Str("plan", planPath).Msg("Watching for changes")

			var timer *time.Timer
			for {
				select {
				case <-ctx.Done():
					return nil

				case event, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
						continue
					}
					if !watchable(event.Name) {
						continue
					}
					log.Debug().Str("file", event.Name).Msg("Change detected")

					if timer != nil {
						timer.Stop()
					}
					timer = time.AfterFunc(debounce, func() {
						if err := runOnce(ctx, planPath); err != nil {
							log.Error().Err(err).Msg("Re-run failed")
						}
					})

				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					log.Error().Err(err).Msg("Watcher error")
				}
			}
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "delay before re-running after a change")

	return cmd
}

// runOnce builds a fresh runtime and executes the plan.
func runOnce(ctx context.Context, planPath string) error {
	rt, err := buildRuntime(ctx, planPath, "", "")
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	results, err := rt.seedAll(ctx)
	if err != nil {
		return err
	}
	return printResults(results)
}

// watchPaths derives the set of watched paths from a plan file: the plan's
// directory covers the plan itself, its scripts and any relative policy
// sources.
func watchPaths(planPath string) []string {
	paths := []string{filepath.Dir(planPath)}

	plan, err := config.LoadPlan(planPath)
	if err != nil {
		return paths
	}
	for _, p := range plan.Policies.Paths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(filepath.Dir(planPath), p)
		}
		paths = append(paths, p)
	}
	return paths
}

// watchable reports whether a changed file is relevant to a seed plan.
func watchable(name string) bool {
	switch {
	case strings.HasSuffix(name, ".yaml"), strings.HasSuffix(name, ".yml"):
		return true
	case strings.HasSuffix(name, ".star"):
		return true
	case strings.HasSuffix(name, ".rego"), strings.HasSuffix(name, ".json"):
		return true
	}
	return false
}
