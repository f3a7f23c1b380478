package clinic

import "strings"

// RoleSet is the set of roles a route accepts. Sets are fixed at
// startup and never mutated; each route declares its own.
type RoleSet []UserRole

// Predefined role sets. Monotonic by privilege in this domain, but the
// gate only ever performs a membership test.
var (
	// AdminOnly gates account administration and destructive operations
	AdminOnly = RoleSet{RoleAdmin}
	// ClinicalStaff gates schedule management
	ClinicalStaff = RoleSet{RoleAdmin, RoleDoctor}
	// AnyAccount gates routes every authenticated account may reach
	AnyAccount = RoleSet{RoleAdmin, RoleDoctor, RolePatient}
)

// Contains reports whether role is a member of the set
func (s RoleSet) Contains(role UserRole) bool {
	for _, r := range s {
		if r == role {
			return true
		}
	}
	return false
}

// Strings returns the member roles for diagnostic metadata
func (s RoleSet) Strings() []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func (s RoleSet) String() string {
	return strings.Join(s.Strings(), ", ")
}

// IsValid checks if the role is one of the predefined valid roles
func IsValidRole(r UserRole) bool {
	switch r {
	case RoleAdmin, RoleDoctor, RolePatient:
		return true
	default:
		return false
	}
}

// GetAllRoles returns all predefined roles in descending privilege order
func GetAllRoles() []UserRole {
	return []UserRole{
		RoleAdmin,
		RoleDoctor,
		RolePatient,
	}
}

// ParseRole safely parses a string into a UserRole type
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(strings.ToLower(strings.TrimSpace(roleStr)))
	return role, IsValidRole(role)
}
