package commands

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/seedbed/seedbed/pkg/config"
	"github.com/seedbed/seedbed/pkg/policy"
	"github.com/seedbed/seedbed/pkg/seedscript"
)

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <plan.yaml>",
		Short: "Validate a seed plan without touching the store",
		Long: `Validate a seed plan end to end without touching the store.

This command checks:
  - Plan structure and YAML syntax
  - Fixed records against their collection's CUE schema
  - Generator scripts compile and produce schema-conformant records
  - Referenced policy files compile`,
		Example: `  # Validate a plan
  seedbed validate plan.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			planPath := args[0]

			plan, err := config.LoadPlan(planPath)
			if err != nil {
				return err
			}

			schemas := config.NewSchemaRegistry()
			for i := range plan.Collections {
				c := &plan.Collections[i]
				if c.Schema != "" {
					if err := schemas.RegisterSchema(c.Name, c.Schema); err != nil {
						return err
					}
				}
			}

			planDir := filepath.Dir(planPath)
			for i := range plan.Collections {
				c := &plan.Collections[i]

				if len(c.Records) > 0 {
					for j, rec := range c.Records {
						if err := schemas.ValidateRecord(ctx, c.Name, rec); err != nil {
							return fmt.Errorf("collection %s record %d: %w", c.Name, j, err)
						}
					}
					continue
				}

				script := c.Generator.Script
				if !filepath.IsAbs(script) {
					script = filepath.Join(planDir, script)
				}
				gen, err := seedscript.NewEvaluator(0).LoadFile(ctx, script, c.Generator.Vars)
				if err != nil {
					return fmt.Errorf("collection %s: %w", c.Name, err)
				}
				records, err := gen.Records(ctx, c.Generator.MinCount)
				if err != nil {
					return fmt.Errorf("collection %s: %w", c.Name, err)
				}
				for j, rec := range records {
					if err := schemas.ValidateRecord(ctx, c.Name, rec); err != nil {
						return fmt.Errorf("collection %s generated record %d: %w", c.Name, j, err)
					}
				}
			}

			if plan.Policies.Enabled && len(plan.Policies.Paths) > 0 {
				engine, err := policy.NewEngine(log.Logger)
				if err != nil {
					return err
				}
				if err := engine.LoadPolicies(ctx, plan.Policies.Paths); err != nil {
					return err
				}
			}

			fmt.Printf("Plan is valid: %d collections, environment %s\n",
				len(plan.Collections), plan.Environment)
			return nil
		},
	}

	return cmd
}
