package lifecycle

import "strings"

// Role is the caller's resolved capability tag. Role claims arrive as
// opaque strings from the identity collaborator and are parsed once at the
// boundary.
type Role int

const (
	RoleUnknown Role = iota
	RoleAdmin
	RoleBiomedical
	RoleTechnician
)

// ParseRole maps a raw role claim to a Role. Unrecognized claims carry no
// capabilities.
func ParseRole(claim string) Role {
	switch strings.ToLower(strings.TrimSpace(claim)) {
	case "admin":
		return RoleAdmin
	case "biomedical", "biomedicalengineer":
		return RoleBiomedical
	case "technician":
		return RoleTechnician
	default:
		return RoleUnknown
	}
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleBiomedical:
		return "biomedical"
	case RoleTechnician:
		return "technician"
	default:
		return "unknown"
	}
}

// Capability is one gated lifecycle transition.
type Capability int

const (
	CapSchedule Capability = iota
	CapUpdateProgress
	CapMarkComplete
	CapReview
	CapConfirm
	CapViewHealth
	CapDelete
)

var grants = map[Role][]Capability{
	RoleAdmin:      {CapSchedule, CapUpdateProgress, CapMarkComplete, CapReview, CapConfirm, CapViewHealth, CapDelete},
	RoleBiomedical: {CapSchedule, CapReview, CapConfirm, CapViewHealth},
	RoleTechnician: {CapUpdateProgress, CapMarkComplete},
}

// Can reports whether the role holds the capability.
func (r Role) Can(c Capability) bool {
	for _, granted := range grants[r] {
		if granted == c {
			return true
		}
	}
	return false
}
