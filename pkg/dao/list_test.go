package dao

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dd0wney/hivegraph/pkg/model"
)

func TestList_Filters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, name := range []string{"office", "home", "homestead", "lab"} {
		env.networks.Persist(ctx, &model.Network{Name: name})
	}

	tests := []struct {
		name   string
		filter model.ListFilter
		want   []string
	}{
		{"everything in id order", model.ListFilter{}, []string{"office", "home", "homestead", "lab"}},
		{"exact name", model.ListFilter{Name: "home"}, []string{"home"}},
		{"pattern", model.ListFilter{NamePattern: "%home%"}, []string{"home", "homestead"}},
		{"sorted asc", model.ListFilter{SortField: "name", SortAsc: true}, []string{"home", "homestead", "lab", "office"}},
		{"sorted desc paged", model.ListFilter{SortField: "name", Take: 2, Skip: 1}, []string{"lab", "homestead"}},
		{"skip only", model.ListFilter{SortField: "id", SortAsc: true, Skip: 3}, []string{"lab"}},
		{"leading wildcard", model.ListFilter{NamePattern: "%stead"}, []string{"homestead"}},
		{"interior wildcard", model.ListFilter{NamePattern: "ho%me"}, nil},
		{"unknown sort field", model.ListFilter{SortField: "password"}, nil},
		{"name and pattern", model.ListFilter{Name: "home", NamePattern: "home"}, nil},
		{"status on networks", model.ListFilter{Status: new(model.UserStatus)}, nil},
		{"negative take", model.ListFilter{Take: -1}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.networks.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if got == nil {
				t.Fatal("List must return an empty slice, not nil")
			}
			var names []string
			for _, n := range got {
				names = append(names, n.Name)
			}
			if diff := cmp.Diff(tt.want, names); diff != "" {
				t.Errorf("Unexpected result (-want +got):\n%s", diff)
			}
		})
	}
}

func TestList_UsersAndDevices(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.users.Persist(ctx, &model.User{Login: "alice", Role: model.UserRoleAdmin})
	env.users.Persist(ctx, &model.User{Login: "bob", Role: model.UserRoleClient, Status: model.UserStatusLocked})

	locked := model.UserStatusLocked
	users, _ := env.users.List(ctx, model.ListFilter{Status: &locked})
	if len(users) != 1 || users[0].Login != "bob" {
		t.Errorf("Expected bob, got %+v", users)
	}
	admin := model.UserRoleAdmin
	users, _ = env.users.List(ctx, model.ListFilter{Role: &admin, SortField: "login"})
	if len(users) != 1 || users[0].Login != "alice" {
		t.Errorf("Expected alice, got %+v", users)
	}

	home := &model.Network{Name: "home"}
	env.networks.Persist(ctx, home)
	env.devices.Persist(ctx, &model.Device{DeviceID: "dev-1", Name: "a", NetworkID: home.ID})
	env.devices.Persist(ctx, &model.Device{DeviceID: "dev-2", Name: "b"})

	devices, _ := env.devices.List(ctx, model.ListFilter{NetworkID: home.ID})
	if len(devices) != 1 || devices[0].DeviceID != "dev-1" {
		t.Errorf("Expected dev-1, got %+v", devices)
	}
	if none, _ := env.users.List(ctx, model.ListFilter{NetworkID: home.ID}); len(none) != 0 {
		t.Errorf("NetworkID does not apply to users, got %+v", none)
	}
}
