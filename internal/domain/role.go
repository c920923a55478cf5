package domain

import "strings"

// Role is the single privilege level a user holds.
type Role string

const (
	RoleAdmin Role = "Admin"
	RoleIT    Role = "IT"
	RoleStaff Role = "Staff"
)

// Roles lists every role in ascending privilege.
func Roles() []Role {
	return []Role{RoleStaff, RoleIT, RoleAdmin}
}

// ParseRole matches a role name case-insensitively.
func ParseRole(value string) (Role, bool) {
	value = strings.TrimSpace(value)
	for _, r := range Roles() {
		if strings.EqualFold(string(r), value) {
			return r, true
		}
	}
	return "", false
}

// IsSupport reports whether the role may triage tickets and manage the directory.
func (r Role) IsSupport() bool {
	return r == RoleAdmin || r == RoleIT
}
