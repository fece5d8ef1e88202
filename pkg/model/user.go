package model

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/crypto/argon2"
)

// UserStatus is stored as its ordinal
type UserStatus int

const (
	UserStatusActive UserStatus = iota
	UserStatusLocked
	UserStatusDisabled
	UserStatusDeleted
)

// Valid reports whether s is one of the declared statuses
func (s UserStatus) Valid() bool {
	return s >= UserStatusActive && s <= UserStatusDeleted
}

func (s UserStatus) String() string {
	switch s {
	case UserStatusActive:
		return "ACTIVE"
	case UserStatusLocked:
		return "LOCKED"
	case UserStatusDisabled:
		return "DISABLED"
	case UserStatusDeleted:
		return "DELETED"
	default:
		return fmt.Sprintf("UserStatus(%d)", int(s))
	}
}

// UserRole is stored as its ordinal, ADMIN=0 and CLIENT=1. The zero value is
// UserRoleUnset: it grants nothing and is written as CLIENT.
type UserRole int

const (
	UserRoleUnset UserRole = iota
	UserRoleAdmin
	UserRoleClient
)

// Ordinal is the stored form of the role
func (r UserRole) Ordinal() int64 {
	if r == UserRoleAdmin {
		return 0
	}
	return 1
}

// UserRoleFromOrdinal maps a stored ordinal back to a role
func UserRoleFromOrdinal(ordinal int64) (UserRole, bool) {
	switch ordinal {
	case 0:
		return UserRoleAdmin, true
	case 1:
		return UserRoleClient, true
	default:
		return UserRoleUnset, false
	}
}

// MarshalJSON writes the stored ordinal
func (r UserRole) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(r.Ordinal(), 10)), nil
}

// UnmarshalJSON reads a stored ordinal
func (r *UserRole) UnmarshalJSON(data []byte) error {
	ordinal, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("role: %w", err)
	}
	role, ok := UserRoleFromOrdinal(ordinal)
	if !ok {
		return fmt.Errorf("role: unknown ordinal %d", ordinal)
	}
	*r = role
	return nil
}

func (r UserRole) String() string {
	switch r {
	case UserRoleUnset:
		return "UNSET"
	case UserRoleAdmin:
		return "ADMIN"
	case UserRoleClient:
		return "CLIENT"
	default:
		return fmt.Sprintf("UserRole(%d)", int(r))
	}
}

// Password hashing parameters (argon2id)
const (
	passwordTime    = 1
	passwordMemory  = 64 * 1024
	passwordThreads = 4
	passwordKeyLen  = 32
	passwordSaltLen = 16
)

var ErrEmptyPassword = errors.New("password cannot be empty")

// User is a platform account
type User struct {
	ID                  *int64     `json:"id,omitempty"`
	Login               string     `json:"login" validate:"required,max=64"`
	GoogleLogin         string     `json:"googleLogin,omitempty" validate:"max=64"`
	FacebookLogin       string     `json:"facebookLogin,omitempty" validate:"max=64"`
	GithubLogin         string     `json:"githubLogin,omitempty" validate:"max=64"`
	PasswordHash        string     `json:"-"`
	PasswordSalt        string     `json:"-"`
	LoginAttempts       int        `json:"loginAttempts" validate:"gte=0"`
	LastLogin           *time.Time `json:"lastLogin,omitempty"`
	Role                UserRole   `json:"role" validate:"gte=0,lte=2"`
	Status              UserStatus `json:"status" validate:"gte=0,lte=3"`
	Data                string     `json:"data,omitempty"`
	AllDevicesAvailable bool       `json:"allDevicesAvailable"`
}

// IsAdmin reports whether the user has the admin role. An unset role is not admin.
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// IsActive reports whether the user can log in
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// SetPassword stores an argon2id hash of password with a fresh salt
func (u *User) SetPassword(password string) error {
	if password == "" {
		return ErrEmptyPassword
	}
	salt := make([]byte, passwordSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}
	hash := argon2.IDKey([]byte(password), salt, passwordTime, passwordMemory, passwordThreads, passwordKeyLen)

	u.PasswordSalt = base64.RawStdEncoding.EncodeToString(salt)
	u.PasswordHash = base64.RawStdEncoding.EncodeToString(hash)
	return nil
}

// CheckPassword reports whether password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	salt, err := base64.RawStdEncoding.DecodeString(u.PasswordSalt)
	if err != nil || len(salt) == 0 {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(u.PasswordHash)
	if err != nil {
		return false
	}
	got := argon2.IDKey([]byte(password), salt, passwordTime, passwordMemory, passwordThreads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}

// UserWithNetworks is a user together with the networks it is a member of
type UserWithNetworks struct {
	User
	Networks []Network `json:"networks"`
}
