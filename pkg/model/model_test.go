package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestUser_Password(t *testing.T) {
	u := &User{Login: "alice"}

	if err := u.SetPassword(""); err != ErrEmptyPassword {
		t.Fatalf("Expected ErrEmptyPassword, got %v", err)
	}
	if err := u.SetPassword("correct horse"); err != nil {
		t.Fatalf("SetPassword failed: %v", err)
	}
	if u.PasswordHash == "" || u.PasswordSalt == "" {
		t.Fatal("Hash and salt must both be stored")
	}

	if !u.CheckPassword("correct horse") {
		t.Error("Correct password rejected")
	}
	if u.CheckPassword("battery staple") {
		t.Error("Wrong password accepted")
	}

	first := u.PasswordSalt
	u.SetPassword("correct horse")
	if u.PasswordSalt == first {
		t.Error("Salt should change on every SetPassword")
	}
}

func TestUser_CheckPasswordWithoutHash(t *testing.T) {
	u := &User{}
	if u.CheckPassword("") {
		t.Error("User without a password must not authenticate")
	}
}

func TestEnumStrings(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{UserStatusActive.String(), "ACTIVE"},
		{UserStatusDeleted.String(), "DELETED"},
		{UserStatus(9).String(), "UserStatus(9)"},
		{UserRoleAdmin.String(), "ADMIN"},
		{UserRoleClient.String(), "CLIENT"},
		{UserRoleUnset.String(), "UNSET"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestUserRole_ZeroValueIsNotAdmin(t *testing.T) {
	u := &User{Login: "bob"}
	if u.Role != UserRoleUnset {
		t.Fatalf("Expected zero role to be UNSET, got %s", u.Role)
	}
	if u.IsAdmin() {
		t.Error("User without a role must not be admin")
	}
}

func TestUserRole_Ordinals(t *testing.T) {
	tests := []struct {
		role    UserRole
		ordinal int64
	}{
		{UserRoleAdmin, 0},
		{UserRoleClient, 1},
		{UserRoleUnset, 1},
	}
	for _, tt := range tests {
		if got := tt.role.Ordinal(); got != tt.ordinal {
			t.Errorf("%s.Ordinal() = %d, want %d", tt.role, got, tt.ordinal)
		}
	}

	for ordinal, want := range map[int64]UserRole{0: UserRoleAdmin, 1: UserRoleClient} {
		got, ok := UserRoleFromOrdinal(ordinal)
		if !ok || got != want {
			t.Errorf("UserRoleFromOrdinal(%d) = %s, %v; want %s", ordinal, got, ok, want)
		}
	}
	for _, ordinal := range []int64{-1, 2, 9} {
		if _, ok := UserRoleFromOrdinal(ordinal); ok {
			t.Errorf("UserRoleFromOrdinal(%d) should fail", ordinal)
		}
	}
}

func TestUserRole_JSONUsesOrdinals(t *testing.T) {
	data, err := json.Marshal(&User{Login: "root", Role: UserRoleAdmin})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"role":0`) {
		t.Errorf("Expected admin as ordinal 0, got %s", data)
	}

	var u User
	if err := json.Unmarshal([]byte(`{"login":"bob","role":1}`), &u); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if u.Role != UserRoleClient {
		t.Errorf("Expected CLIENT, got %s", u.Role)
	}
	if err := json.Unmarshal([]byte(`{"role":7}`), &u); err == nil {
		t.Error("Expected an unknown ordinal to fail")
	}
}

func TestUserStatus_Valid(t *testing.T) {
	for _, s := range []UserStatus{UserStatusActive, UserStatusLocked, UserStatusDisabled, UserStatusDeleted} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	for _, s := range []UserStatus{-1, 4, 9} {
		if s.Valid() {
			t.Errorf("%s should not be valid", s)
		}
	}
}

func TestListFilter_Pattern(t *testing.T) {
	tests := []struct {
		in, want string
		ok       bool
	}{
		{"%home%", "home", true},
		{"%%home", "home", true},
		{"plain", "plain", true},
		{"%", "", true},
		{"ho%me", "", false},
		{"%a%b%", "", false},
	}
	for _, tt := range tests {
		got, ok := (ListFilter{NamePattern: tt.in}).Pattern()
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("Pattern(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
