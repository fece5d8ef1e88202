package schema

// Vertex labels
const (
	LabelUser    = "User"
	LabelNetwork = "Network"
	LabelDevice  = "Device"
)

// Edge labels
const (
	EdgeIsMemberOf = "IS_MEMBER_OF"
	EdgeBelongsTo  = "BELONGS_TO"
)

// PropID is the domain id every entity vertex carries, distinct from the store's vertex id
const PropID = "id"

// User properties
const (
	PropUserLogin               = "login"
	PropUserGoogleLogin         = "google_login"
	PropUserFacebookLogin       = "facebook_login"
	PropUserGithubLogin         = "github_login"
	PropUserPasswordHash        = "password_hash"
	PropUserPasswordSalt        = "password_salt"
	PropUserLoginAttempts       = "login_attempts"
	PropUserLastLogin           = "last_login"
	PropUserRole                = "role"
	PropUserStatus              = "status"
	PropUserData                = "data"
	PropUserAllDevicesAvailable = "all_devices_available"
)

// Network properties
const (
	PropNetworkName        = "name"
	PropNetworkDescription = "description"
)

// Device properties
const (
	PropDeviceGUID    = "guid"
	PropDeviceName    = "name"
	PropDeviceData    = "data"
	PropDeviceBlocked = "blocked"
)

// Index names a (label, property) pair the store should index
type Index struct {
	Label string
	Key   string
}

// Indexes lists the lookups the DAOs and the access engine issue by equality
var Indexes = []Index{
	{LabelUser, PropID},
	{LabelUser, PropUserLogin},
	{LabelUser, PropUserGoogleLogin},
	{LabelUser, PropUserFacebookLogin},
	{LabelUser, PropUserGithubLogin},
	{LabelNetwork, PropID},
	{LabelNetwork, PropNetworkName},
	{LabelDevice, PropID},
	{LabelDevice, PropDeviceGUID},
}

// Indexer creates property indexes; *storage.GraphStorage implements it
type Indexer interface {
	CreatePropertyIndex(label, key string) error
}

// EnsureIndexes creates every index in Indexes
func EnsureIndexes(ix Indexer) error {
	for _, idx := range Indexes {
		if err := ix.CreatePropertyIndex(idx.Label, idx.Key); err != nil {
			return err
		}
	}
	return nil
}
