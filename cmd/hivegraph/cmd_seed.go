package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dd0wney/hivegraph/pkg/model"
	"github.com/dd0wney/hivegraph/pkg/validation"
)

// seedFile is the YAML layout read by the seed command
type seedFile struct {
	Networks []struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
	} `yaml:"networks"`
	Users []struct {
		Login    string   `yaml:"login"`
		Password string   `yaml:"password"`
		Role     string   `yaml:"role"`
		Networks []string `yaml:"networks"`
	} `yaml:"users"`
	Devices []struct {
		GUID    string `yaml:"guid"`
		Name    string `yaml:"name"`
		Network string `yaml:"network"`
	} `yaml:"devices"`
}

func parseRole(s string) (model.UserRole, error) {
	switch strings.ToLower(s) {
	case "admin":
		return model.UserRoleAdmin, nil
	case "client", "":
		return model.UserRoleClient, nil
	default:
		return 0, fmt.Errorf("unknown role %q", s)
	}
}

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var showEvents bool
	cmd := &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Load networks, users and devices from a YAML file",
		Long:  "Load networks, users and devices from a YAML file. Entities that already\nexist (same network name, login or guid) are left as they are.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read seed file: %w", err)
			}
			var seed seedFile
			if err := yaml.Unmarshal(data, &seed); err != nil {
				return fmt.Errorf("failed to parse seed file: %w", err)
			}

			return withApp(opts, func(a *app) error {
				created, err := a.seed(cmd.Context(), &seed)
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "seeded %d networks, %d users, %d devices\n", created[0], created[1], created[2])
				if showEvents {
					// drain the bus so the journal holds every event
					a.bus.Shutdown()
					for _, ev := range a.journal.Events(nil) {
						fmt.Fprintf(out, "event %s %s\n", ev.Entity, ev.Op)
					}
				}
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&showEvents, "events", false, "Print the events the seed emitted")
	return cmd
}

// seed creates what the file describes and returns how many networks, users and
// devices were new
func (a *app) seed(ctx context.Context, seed *seedFile) ([3]int, error) {
	var created [3]int
	networkIDs := make(map[string]int64)

	for _, n := range seed.Networks {
		existing, err := a.networks.FindFirstByName(ctx, n.Name)
		if err != nil {
			return created, err
		}
		if existing == nil {
			existing, err = a.networkService.Create(ctx, &model.Network{Name: n.Name, Description: n.Description})
			if err != nil {
				return created, fmt.Errorf("network %q: %w", n.Name, err)
			}
			created[0]++
		}
		networkIDs[n.Name] = *existing.ID
	}

	resolve := func(name string) (int64, error) {
		id, ok := networkIDs[name]
		if !ok {
			return 0, fmt.Errorf("network %q is not declared in the seed file", name)
		}
		return id, nil
	}

	for _, u := range seed.Users {
		user, err := a.users.FindByLogin(ctx, u.Login)
		if err != nil {
			return created, err
		}
		if user == nil {
			role, err := parseRole(u.Role)
			if err != nil {
				return created, fmt.Errorf("user %q: %w", u.Login, err)
			}
			user = &model.User{Login: u.Login, Role: role, Status: model.UserStatusActive}
			if u.Password != "" {
				if err := user.SetPassword(u.Password); err != nil {
					return created, err
				}
			}
			if err := validation.ValidateUser(user); err != nil {
				return created, fmt.Errorf("user %q: %w", u.Login, err)
			}
			if err := a.users.Persist(ctx, user); err != nil {
				return created, fmt.Errorf("user %q: %w", u.Login, err)
			}
			created[1]++
		}
		for _, name := range u.Networks {
			id, err := resolve(name)
			if err != nil {
				return created, err
			}
			if err := a.users.AssignNetwork(ctx, user, id); err != nil {
				return created, err
			}
		}
	}

	for _, d := range seed.Devices {
		existing, err := a.devices.FindByGUID(ctx, d.GUID)
		if err != nil {
			return created, err
		}
		if existing != nil {
			continue
		}
		dev := &model.Device{DeviceID: d.GUID, Name: d.Name}
		if d.Network != "" {
			id, err := resolve(d.Network)
			if err != nil {
				return created, err
			}
			dev.NetworkID = &id
		}
		if err := validation.ValidateDevice(dev); err != nil {
			return created, fmt.Errorf("device %q: %w", d.GUID, err)
		}
		if err := a.devices.Persist(ctx, dev); err != nil {
			return created, fmt.Errorf("device %q: %w", d.GUID, err)
		}
		created[2]++
	}

	return created, nil
}
