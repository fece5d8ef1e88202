package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dd0wney/hivegraph/pkg/constraints"
	"github.com/dd0wney/hivegraph/pkg/logging"
)

func newReconcileCmd(opts *rootOptions) *cobra.Command {
	var repair bool

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Check the graph against the schema invariants",
		Long:  "Check the graph against the schema invariants. With --repair, devices owned\nby more than one network keep only their newest ownership edge.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				out := cmd.OutOrStdout()

				if repair {
					removed, err := constraints.RepairCardinality(a.store, constraints.DeviceOwnership())
					if err != nil {
						return fmt.Errorf("repair failed: %w", err)
					}
					if len(removed) > 0 {
						a.logger.Warn("removed extra ownership edges", logging.Any("edge_ids", removed))
					}
					fmt.Fprintf(out, "repaired: removed %d ownership edge(s)\n", len(removed))
				}

				result, err := constraints.NewSchemaValidator().ValidateAll(a.store)
				if err != nil {
					return err
				}
				for _, v := range result.Violations {
					fmt.Fprintf(out, "%-8s %-20s %s\n", v.Severity, v.Type, v.Message)
				}
				if !result.Valid {
					return fmt.Errorf("%d violation(s) found", len(result.Violations))
				}
				fmt.Fprintln(out, "ok: no violations")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&repair, "repair", false, "Drop surplus device ownership edges before checking")
	return cmd
}
