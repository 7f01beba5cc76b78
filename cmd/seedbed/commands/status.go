package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seedbed/seedbed/pkg/document"
	"github.com/seedbed/seedbed/pkg/identity"
)

// collectionStatus is one row of the status report.
type collectionStatus struct {
	Collection string `json:"collection"`
	Count      int    `json:"count"`
	Seeded     bool   `json:"seeded"`
}

func newStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <plan.yaml>",
		Short: "Show per-collection record counts",
		Long: `Show the record count of every collection named in a plan,
plus the system identity and role collections. A collection counts as
seeded when it holds at least one record.`,
		Example: `  # Show counts for a plan's store
  seedbed status plan.yaml

  # Machine-readable output
  seedbed status plan.yaml --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rt, err := buildRuntime(ctx, args[0], "", "")
			if err != nil {
				return err
			}
			defer rt.close(ctx)

			var rows []collectionStatus
			names := append(rt.registry.Names(), identity.RolesCollection)
			for _, name := range names {
				count, err := rt.store.Count(ctx, document.Handle{Name: name})
				if err != nil {
					return fmt.Errorf("failed to count %s: %w", name, err)
				}
				rows = append(rows, collectionStatus{
					Collection: name,
					Count:      count,
					Seeded:     count > 0,
				})
			}

			if jsonOutput {
				out, err := json.MarshalIndent(rows, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			}

			fmt.Printf("Environment: %s\n\n", rt.plan.Environment)
			for _, row := range rows {
				state := "empty"
				if row.Seeded {
					state = "seeded"
				}
				fmt.Printf("%-20s %6d records  %s\n", row.Collection, row.Count, state)
			}
			return nil
		},
	}

	return cmd
}
