package middleware

import (
	"strings"

	"retail-inventory/internal/auth"
)

// AccessRule grants a method and path pattern to a set of roles.
// In patterns "*" matches exactly one segment and a trailing "**" matches zero or more.
// An empty Method or "*" matches every method.
type AccessRule struct {
	Method  string
	Pattern string
	Roles   []auth.Role
}

type compiledRule struct {
	method   string
	segments []string
	roles    []auth.Role
}

// Gate resolves the roles allowed on a route. The first matching rule wins;
// unmatched routes allow the fallback roles.
type Gate struct {
	rules    []compiledRule
	fallback []auth.Role
}

// NewGate compiles rules in order. Without fallback roles every known role is allowed on unmatched routes.
func NewGate(rules []AccessRule, fallback ...auth.Role) *Gate {
	if len(fallback) == 0 {
		fallback = auth.AllRoles
	}
	compiled := make([]compiledRule, 0, len(rules))
	for _, rule := range rules {
		compiled = append(compiled, compiledRule{
			method:   strings.ToUpper(rule.Method),
			segments: splitPath(rule.Pattern),
			roles:    rule.Roles,
		})
	}
	return &Gate{rules: compiled, fallback: fallback}
}

// AllowedRoles returns the roles granted on method and path
func (g *Gate) AllowedRoles(method, path string) []auth.Role {
	method = strings.ToUpper(method)
	segments := splitPath(path)
	for _, rule := range g.rules {
		if rule.method != "" && rule.method != "*" && rule.method != method {
			continue
		}
		if matchSegments(rule.segments, segments) {
			return rule.roles
		}
	}
	return g.fallback
}

// Allows reports whether role may call method on path
func (g *Gate) Allows(role auth.Role, method, path string) bool {
	for _, allowed := range g.AllowedRoles(method, path) {
		if allowed == role {
			return true
		}
	}
	return false
}

func matchSegments(pattern, path []string) bool {
	for i, segment := range pattern {
		if segment == "**" {
			return true
		}
		if i >= len(path) {
			return false
		}
		if segment != "*" && segment != path[i] {
			return false
		}
	}
	return len(pattern) == len(path)
}

func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	segments := parts[:0]
	for _, part := range parts {
		if part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}
