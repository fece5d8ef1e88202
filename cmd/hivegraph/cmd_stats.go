package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dd0wney/hivegraph/pkg/schema"
)

func newStatsCmd(opts *rootOptions) *cobra.Command {
	var showMetrics bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print store statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			return withApp(opts, func(a *app) error {
				out := cmd.OutOrStdout()
				stats := a.store.GetStatistics()
				fmt.Fprintf(out, "vertices: %d\n", stats.VertexCount)
				fmt.Fprintf(out, "edges:    %d\n", stats.EdgeCount)

				for _, label := range []string{schema.LabelUser, schema.LabelNetwork, schema.LabelDevice} {
					n, err := a.store.CountByLabel(label)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "%-9s %d\n", strings.ToLower(label)+"s:", n)
				}
				active, err := a.users.CountActive(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "active users: %d\n", active)

				if !showMetrics || a.metrics == nil {
					return nil
				}
				a.metrics.UpdateSystemMetrics(start)
				samples, err := a.metrics.Snapshot()
				if err != nil {
					return err
				}
				for _, s := range samples {
					fmt.Fprintf(out, "%s%s %g\n", s.Name, formatLabels(s.Labels), s.Value)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "Also print the metrics gathered during the run")
	return cmd
}

func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%q", k, labels[k])
	}
	return "{" + strings.Join(parts, ",") + "}"
}
