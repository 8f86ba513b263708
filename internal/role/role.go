// Package role translates an identity into its authorization role. The role
// lives in the marketplace API, not in the identity provider, so it is
// fetched separately and cached per email.
package role

// Role is the closed set of authorization levels
type Role string

const (
	// Unknown is the fail-closed default: no role-gated view treats it as granted
	Unknown Role = ""
	User    Role = "user"
	Vendor  Role = "vendor"
	Admin   Role = "admin"
)

// Parse maps a role string from the API onto the closed set. Anything
// outside the set resolves to Unknown.
func Parse(s string) Role {
	switch Role(s) {
	case User, Vendor, Admin:
		return Role(s)
	default:
		return Unknown
	}
}

// Known reports whether the role is one of the enumerated values
func (r Role) Known() bool {
	return r != Unknown
}

func (r Role) String() string {
	if r == Unknown {
		return "unknown"
	}
	return string(r)
}
