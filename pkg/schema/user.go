package schema

import (
	"fmt"

	"github.com/dd0wney/hivegraph/pkg/model"
	"github.com/dd0wney/hivegraph/pkg/storage"
)

// UserCodec maps model.User to User vertices
type UserCodec struct{}

var _ Codec[*model.User] = UserCodec{}

func (UserCodec) Label() string { return LabelUser }

// Encode lower-cases the external identity logins
func (UserCodec) Encode(u *model.User) map[string]storage.Value {
	props := map[string]storage.Value{
		PropUserLogin:               storage.StringValue(u.Login),
		PropUserLoginAttempts:       storage.IntValue(int64(u.LoginAttempts)),
		PropUserRole:                storage.IntValue(u.Role.Ordinal()),
		PropUserStatus:              storage.IntValue(int64(u.Status)),
		PropUserAllDevicesAvailable: storage.BoolValue(u.AllDevicesAvailable),
	}
	putID(props, u.ID)
	putString(props, PropUserGoogleLogin, NormalizeIdentityLogin(u.GoogleLogin))
	putString(props, PropUserFacebookLogin, NormalizeIdentityLogin(u.FacebookLogin))
	putString(props, PropUserGithubLogin, NormalizeIdentityLogin(u.GithubLogin))
	putString(props, PropUserPasswordHash, u.PasswordHash)
	putString(props, PropUserPasswordSalt, u.PasswordSalt)
	putString(props, PropUserData, u.Data)
	if u.LastLogin != nil {
		props[PropUserLastLogin] = storage.TimestampValue(*u.LastLogin)
	}
	return props
}

func (UserCodec) Decode(v *storage.Vertex) (*model.User, error) {
	d := newDecoder(v, LabelUser)
	u := &model.User{
		ID:                  d.id(),
		Login:               d.getString(PropUserLogin, true),
		Status:              decodeStatus(d),
		Role:                decodeRole(d),
		GoogleLogin:         d.getString(PropUserGoogleLogin, false),
		FacebookLogin:       d.getString(PropUserFacebookLogin, false),
		GithubLogin:         d.getString(PropUserGithubLogin, false),
		PasswordHash:        d.getString(PropUserPasswordHash, false),
		PasswordSalt:        d.getString(PropUserPasswordSalt, false),
		LoginAttempts:       int(d.getInt(PropUserLoginAttempts, false)),
		LastLogin:           d.getTime(PropUserLastLogin),
		Data:                d.getString(PropUserData, false),
		AllDevicesAvailable: d.getBool(PropUserAllDevicesAvailable),
	}
	if d.err != nil {
		return nil, d.err
	}
	return u, nil
}

func decodeStatus(d *decoder) model.UserStatus {
	status := model.UserStatus(d.getInt(PropUserStatus, true))
	if d.err == nil && !status.Valid() {
		d.fail(PropUserStatus, fmt.Sprintf("unknown status ordinal %d", int(status)))
	}
	return status
}

func decodeRole(d *decoder) model.UserRole {
	ordinal := d.getInt(PropUserRole, true)
	if d.err != nil {
		return model.UserRoleUnset
	}
	role, ok := model.UserRoleFromOrdinal(ordinal)
	if !ok {
		d.fail(PropUserRole, fmt.Sprintf("unknown role ordinal %d", ordinal))
	}
	return role
}
