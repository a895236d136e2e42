package domain

// Role represents what kind of client a player or connection is
type Role string

const (
	RoleHost   Role = "host"
	RolePlayer Role = "player"
	RoleTV     Role = "tv"
)

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleHost, RolePlayer, RoleTV:
		return true
	}
	return false
}
