package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dd0wney/hivegraph/pkg/access"
)

func newAccessCmd(opts *rootOptions) *cobra.Command {
	accessCmd := &cobra.Command{
		Use:   "access",
		Short: "Check whether a user can reach a network or a device",
	}

	accessCmd.AddCommand(&cobra.Command{
		Use:   "network <user-id> <network-id>",
		Short: "Count the membership paths from a user to a network",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID("user-id", args[0])
			if err != nil {
				return err
			}
			networkID, err := parseID("network-id", args[1])
			if err != nil {
				return err
			}
			return withApp(opts, func(a *app) error {
				count, err := a.access.HasAccessToNetwork(cmd.Context(), userID, networkID)
				if err != nil {
					return err
				}
				printDecision(cmd, count)
				return nil
			})
		},
	})

	accessCmd.AddCommand(&cobra.Command{
		Use:   "device <user-id> <guid>",
		Short: "Count the devices with guid a user reaches through its networks",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID("user-id", args[0])
			if err != nil {
				return err
			}
			return withApp(opts, func(a *app) error {
				count, err := a.access.HasAccessToDevice(cmd.Context(), userID, args[1])
				if err != nil {
					return err
				}
				printDecision(cmd, count)
				return nil
			})
		},
	})

	return accessCmd
}

func parseID(name, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	return id, nil
}

func printDecision(cmd *cobra.Command, count int64) {
	decision := "denied"
	if access.Allowed(count) {
		decision = "allowed"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (count=%d)\n", decision, count)
}
