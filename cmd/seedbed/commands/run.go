package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/seedbed/seedbed/pkg/document"
	"github.com/seedbed/seedbed/pkg/seeder"
)

func newRunCommand() *cobra.Command {
	var (
		metricsListen string
		traceExporter string
	)

	cmd := &cobra.Command{
		Use:   "run <plan.yaml>",
		Short: "Execute a seed plan",
		Long: `Execute every collection of a seed plan in order.

Collections already holding records are skipped, as are collections whose
environment allow-list does not include the plan's environment. Skips are
successes: the command fails only on actual errors.`,
		Example: `  # Run a plan
  seedbed run plan.yaml

  # Run against a different environment
  SEEDBED_ENV=staging seedbed run plan.yaml

  # Expose Prometheus metrics while running
  seedbed run plan.yaml --metrics-listen :9090`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rt, err := buildRuntime(ctx, args[0], metricsListen, traceExporter)
			if err != nil {
				return err
			}
			defer rt.close(ctx)

			if metricsListen != "" {
				if err := rt.tel.StartMetricsServer(); err != nil {
					return err
				}
			}

			log.Info().
				Str("environment", rt.plan.Environment).
				Int("collections", len(rt.plan.Collections)).
				Msg("Executing seed plan")

			results, err := rt.seedAll(ctx)
			if err != nil {
				return err
			}

			return printResults(results)
		},
	}

	cmd.Flags().StringVar(&metricsListen, "metrics-listen", "", "expose Prometheus metrics on this address")
	cmd.Flags().StringVar(&traceExporter, "trace-exporter", "", "enable tracing with this exporter (otlp, stdout)")

	return cmd
}

func printResults(results []*seeder.Result) error {
	if jsonOutput {
		out, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	for _, r := range results {
		if r.Skipped {
			fmt.Printf("%-20s skipped (%s)\n", r.Collection, r.SkipReason)
			continue
		}
		if r.Collection == document.IdentityCollection || r.Provisioned > 0 || r.Existing > 0 {
			fmt.Printf("%-20s provisioned %d identities (%d existing) in %s\n",
				r.Collection, r.Provisioned, r.Existing, r.Duration.Round(time.Millisecond))
			continue
		}
		fmt.Printf("%-20s inserted %d records in %s\n", r.Collection, r.Inserted, r.Duration.Round(time.Millisecond))
	}
	return nil
}
