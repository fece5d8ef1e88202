package schema

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/dd0wney/hivegraph/pkg/model"
	"github.com/dd0wney/hivegraph/pkg/storage"
)

func vertexOf(label string, props map[string]storage.Value) *storage.Vertex {
	return &storage.Vertex{ID: 7, Label: label, Properties: props}
}

func TestUserCodec_LowercasesIdentityLogins(t *testing.T) {
	u := &model.User{
		ID:            model.Int64(1),
		Login:         "Alice",
		GoogleLogin:   "Foo@Bar",
		FacebookLogin: "FB.User",
		GithubLogin:   "OctoCat",
	}

	props := UserCodec{}.Encode(u)

	tests := []struct {
		key, want string
	}{
		{PropUserGoogleLogin, "foo@bar"},
		{PropUserFacebookLogin, "fb.user"},
		{PropUserGithubLogin, "octocat"},
		{PropUserLogin, "Alice"},
	}
	for _, tt := range tests {
		got, _ := props[tt.key].AsString()
		if got != tt.want {
			t.Errorf("%s = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestUserCodec_RoundTrip(t *testing.T) {
	last := time.UnixMilli(1700000000123)
	u := &model.User{
		ID:                  model.Int64(42),
		Login:               "alice",
		GoogleLogin:         "alice@example.com",
		PasswordHash:        "hash",
		PasswordSalt:        "salt",
		LoginAttempts:       3,
		LastLogin:           &last,
		Role:                model.UserRoleClient,
		Status:              model.UserStatusLocked,
		Data:                `{"k":1}`,
		AllDevicesAvailable: true,
	}

	got, err := UserCodec{}.Decode(vertexOf(LabelUser, UserCodec{}.Encode(u)))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if diff := cmp.Diff(u, got); diff != "" {
		t.Errorf("Round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestUserCodec_RoleOrdinals(t *testing.T) {
	tests := []struct {
		role    model.UserRole
		ordinal int64
		decoded model.UserRole
	}{
		{model.UserRoleAdmin, 0, model.UserRoleAdmin},
		{model.UserRoleClient, 1, model.UserRoleClient},
		{model.UserRoleUnset, 1, model.UserRoleClient},
	}
	for _, tt := range tests {
		t.Run(tt.role.String(), func(t *testing.T) {
			props := UserCodec{}.Encode(&model.User{ID: model.Int64(1), Login: "alice", Role: tt.role})
			if got, _ := props[PropUserRole].AsInt(); got != tt.ordinal {
				t.Errorf("Stored role = %d, want %d", got, tt.ordinal)
			}
			u, err := UserCodec{}.Decode(vertexOf(LabelUser, props))
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if u.Role != tt.decoded {
				t.Errorf("Decoded role = %s, want %s", u.Role, tt.decoded)
			}
		})
	}
}

func TestNetworkAndDeviceCodec_RoundTrip(t *testing.T) {
	n := &model.Network{ID: model.Int64(5), Name: "home", Description: "the house"}
	gotN, err := NetworkCodec{}.Decode(vertexOf(LabelNetwork, NetworkCodec{}.Encode(n)))
	if err != nil {
		t.Fatalf("Decode network failed: %v", err)
	}
	if diff := cmp.Diff(n, gotN); diff != "" {
		t.Errorf("Network mismatch (-want +got):\n%s", diff)
	}

	d := &model.Device{ID: model.Int64(9), DeviceID: "dev-1", Name: "sensor", Blocked: true}
	gotD, err := DeviceCodec{}.Decode(vertexOf(LabelDevice, DeviceCodec{}.Encode(d)))
	if err != nil {
		t.Fatalf("Decode device failed: %v", err)
	}
	if diff := cmp.Diff(d, gotD); diff != "" {
		t.Errorf("Device mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_CorruptVertices(t *testing.T) {
	full := UserCodec{}.Encode(&model.User{ID: model.Int64(1), Login: "alice"})
	without := func(key string) map[string]storage.Value {
		props := make(map[string]storage.Value, len(full))
		for k, v := range full {
			if k != key {
				props[k] = v
			}
		}
		return props
	}
	withWrongType := without(PropUserStatus)
	withWrongType[PropUserStatus] = storage.StringValue("ACTIVE")
	withStatus9 := without(PropUserStatus)
	withStatus9[PropUserStatus] = storage.IntValue(9)
	withRole9 := without(PropUserRole)
	withRole9[PropUserRole] = storage.IntValue(9)

	tests := []struct {
		name     string
		vertex   *storage.Vertex
		property string
	}{
		{"wrong label", vertexOf(LabelNetwork, full), ""},
		{"missing id", vertexOf(LabelUser, without(PropID)), PropID},
		{"missing login", vertexOf(LabelUser, without(PropUserLogin)), PropUserLogin},
		{"missing status", vertexOf(LabelUser, without(PropUserStatus)), PropUserStatus},
		{"missing role", vertexOf(LabelUser, without(PropUserRole)), PropUserRole},
		{"status not an int", vertexOf(LabelUser, withWrongType), PropUserStatus},
		{"status out of range", vertexOf(LabelUser, withStatus9), PropUserStatus},
		{"role out of range", vertexOf(LabelUser, withRole9), PropUserRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := UserCodec{}.Decode(tt.vertex)
			if u != nil {
				t.Errorf("Expected no partial user, got %+v", u)
			}
			var corrupt *CorruptEntityError
			if !errors.As(err, &corrupt) {
				t.Fatalf("Expected CorruptEntityError, got %v", err)
			}
			if corrupt.Property != tt.property || corrupt.Label != LabelUser {
				t.Errorf("Got %+v, want property %q", corrupt, tt.property)
			}
		})
	}

	if _, err := (NetworkCodec{}).Decode(vertexOf(LabelNetwork, map[string]storage.Value{PropID: storage.IntValue(1)})); err == nil {
		t.Error("Network without name should not decode")
	}
	if _, err := (DeviceCodec{}).Decode(vertexOf(LabelDevice, map[string]storage.Value{PropID: storage.IntValue(1)})); err == nil {
		t.Error("Device without guid should not decode")
	}
}

func TestCodecRoundTripProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("user decode(encode(u)) == u modulo login case", prop.ForAll(
		func(id int64, login, google string, status, role int, attempts int) bool {
			u := &model.User{
				ID:            &id,
				Login:         login,
				GoogleLogin:   NormalizeIdentityLogin(google),
				Status:        model.UserStatus(status),
				Role:          model.UserRole(role),
				LoginAttempts: attempts,
			}
			got, err := UserCodec{}.Decode(vertexOf(LabelUser, UserCodec{}.Encode(u)))
			return err == nil && cmp.Equal(u, got)
		},
		gen.Int64Range(0, 1<<40),
		gen.AnyString(),
		gen.AlphaString(),
		gen.IntRange(0, 3),
		gen.IntRange(int(model.UserRoleAdmin), int(model.UserRoleClient)),
		gen.IntRange(0, 100),
	))

	properties.Property("network round trip", prop.ForAll(
		func(id int64, name, description string) bool {
			n := &model.Network{ID: &id, Name: name, Description: description}
			got, err := NetworkCodec{}.Decode(vertexOf(LabelNetwork, NetworkCodec{}.Encode(n)))
			return err == nil && cmp.Equal(n, got)
		},
		gen.Int64Range(0, 1<<40),
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.Property("device round trip", prop.ForAll(
		func(id int64, guid string, blocked bool) bool {
			d := &model.Device{ID: &id, DeviceID: guid, Blocked: blocked}
			got, err := DeviceCodec{}.Decode(vertexOf(LabelDevice, DeviceCodec{}.Encode(d)))
			return err == nil && cmp.Equal(d, got)
		},
		gen.Int64Range(0, 1<<40),
		gen.AlphaString(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
