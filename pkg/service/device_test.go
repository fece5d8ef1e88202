package service

import (
	"context"
	"errors"
	"testing"

	"github.com/dd0wney/hivegraph/pkg/dao"
	"github.com/dd0wney/hivegraph/pkg/model"
)

func guidsOf(devices []model.Device) []string {
	out := make([]string, len(devices))
	for i, d := range devices {
		out[i] = d.DeviceID
	}
	return out
}

func TestDeviceService_FindWithPermissionsCheck(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	home := env.network(t, "home", env.client)
	office := env.network(t, "office")
	env.device(t, "dev-1", home)
	env.device(t, "dev-2", office)
	env.device(t, "dev-3", nil)

	all := []string{"dev-1", "dev-2", "dev-3", "dev-404"}
	tests := []struct {
		name      string
		principal Principal
		want      []string
	}{
		{"client sees its networks", Principal{User: env.client}, []string{"dev-1"}},
		{"admin sees everything", Principal{User: env.admin}, []string{"dev-1", "dev-2", "dev-3"}},
		{"scoped admin", Principal{User: env.admin, NetworkIDs: []int64{*office.ID}}, []string{"dev-2"}},
		{"scoped client outside membership", Principal{User: env.client, NetworkIDs: []int64{*office.ID}}, []string{}},
		{"token without user", Principal{NetworkIDs: []int64{*home.ID}}, []string{"dev-1"}},
		{"anonymous", Principal{}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.deviceSvc.FindByIDsWithPermissionsCheck(ctx, all, tt.principal)
			if err != nil {
				t.Fatalf("FindByIDsWithPermissionsCheck failed: %v", err)
			}
			gotGUIDs := guidsOf(got)
			if len(gotGUIDs) != len(tt.want) {
				t.Fatalf("Got %v, want %v", gotGUIDs, tt.want)
			}
			for i := range gotGUIDs {
				if gotGUIDs[i] != tt.want[i] {
					t.Errorf("Got %v, want %v", gotGUIDs, tt.want)
				}
			}
		})
	}

	dev, err := env.deviceSvc.FindByIDWithPermissionsCheck(ctx, "dev-1", Principal{User: env.client})
	if err != nil || dev == nil || dev.NetworkID == nil || *dev.NetworkID != *home.ID {
		t.Errorf("Expected dev-1 in home, got %+v (%v)", dev, err)
	}
	if dev, _ := env.deviceSvc.FindByIDWithPermissionsCheck(ctx, "dev-2", Principal{User: env.client}); dev != nil {
		t.Error("Client must not see dev-2")
	}
}

func TestDeviceService_UserWithoutRoleIsNotAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	home := env.network(t, "home")
	office := env.network(t, "office")
	env.device(t, "dev-1", home)
	env.device(t, "dev-2", office)

	bob := &model.User{Login: "bob"}
	if err := env.users.Persist(ctx, bob); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}
	// Never stored, so the role is still unset
	carol := &model.User{ID: model.Int64(404), Login: "carol"}

	for _, u := range []*model.User{bob, carol} {
		t.Run(u.Login, func(t *testing.T) {
			p := Principal{User: u}
			if p.IsAdmin() {
				t.Fatalf("%s must not be admin with role %s", u.Login, u.Role)
			}
			got, err := env.deviceSvc.FindByIDsWithPermissionsCheck(ctx, []string{"dev-1", "dev-2"}, p)
			if err != nil {
				t.Fatalf("FindByIDsWithPermissionsCheck failed: %v", err)
			}
			if len(got) != 0 {
				t.Errorf("Expected no visible devices, got %v", guidsOf(got))
			}
			if _, err := env.deviceSvc.Reassign(ctx, "dev-1", *office.ID, p); !errors.Is(err, dao.ErrNotFound) {
				t.Errorf("Expected ErrNotFound for an invisible device, got %v", err)
			}
		})
	}
}

func TestDeviceService_List(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	home := env.network(t, "home")
	env.device(t, "dev-1", home)
	env.device(t, "dev-2", home)
	env.device(t, "dev-3", nil)

	got, err := env.deviceSvc.List(ctx, *home.ID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Expected 2 devices, got %v", guidsOf(got))
	}
}

func TestDeviceService_Reassign(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	home := env.network(t, "home", env.client)
	lab := env.network(t, "lab", env.client)
	office := env.network(t, "office")
	env.device(t, "dev-1", home)
	env.device(t, "dev-2", office)

	client := Principal{User: env.client}

	dev, err := env.deviceSvc.Reassign(ctx, "dev-1", *lab.ID, client)
	if err != nil {
		t.Fatalf("Reassign failed: %v", err)
	}
	if *dev.NetworkID != *lab.ID {
		t.Errorf("Expected dev-1 in lab, got %d", *dev.NetworkID)
	}
	stored, _ := env.devices.FindByGUID(ctx, "dev-1")
	if *stored.NetworkID != *lab.ID {
		t.Errorf("Stored ownership not updated: %d", *stored.NetworkID)
	}

	tests := []struct {
		name      string
		guid      string
		networkID int64
		principal Principal
		want      error
	}{
		{"target not a member", "dev-1", *office.ID, client, dao.ErrAccessDenied},
		{"device not visible", "dev-2", *home.ID, client, dao.ErrNotFound},
		{"unknown network", "dev-1", 404, client, dao.ErrNotFound},
		{"outside scope", "dev-1", *home.ID, Principal{User: env.admin, NetworkIDs: []int64{*lab.ID}}, dao.ErrAccessDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.deviceSvc.Reassign(ctx, tt.guid, tt.networkID, tt.principal); !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}

	// Admins may move any device anywhere
	if _, err := env.deviceSvc.Reassign(ctx, "dev-2", *home.ID, Principal{User: env.admin}); err != nil {
		t.Errorf("Admin reassign failed: %v", err)
	}
}
