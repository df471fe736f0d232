package auth

import "strings"

// Role is the authorization role carried in a claim.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleEmployee Role = "EMPLOYEE"
)

// AllRoles lists every role a claim may grant.
var AllRoles = []Role{RoleAdmin, RoleEmployee}

// ParseRole normalises a role claim. Unknown or empty values grant nothing.
func ParseRole(value string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(value))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleEmployee:
		return RoleEmployee, true
	default:
		return "", false
	}
}

// RoleOf extracts the granted role from a verified claim.
func RoleOf(claims *Claims) (Role, bool) {
	if claims == nil {
		return "", false
	}
	return ParseRole(claims.Role)
}
