package middleware

import (
	"testing"

	"retail-inventory/internal/auth"

	"github.com/stretchr/testify/assert"
)

func testGate() *Gate {
	return NewGate([]AccessRule{
		{Method: "POST", Pattern: "/inventory", Roles: []auth.Role{auth.RoleAdmin}},
		{Method: "GET", Pattern: "/inventory/movements", Roles: []auth.Role{auth.RoleAdmin}},
		{Method: "GET", Pattern: "/inventory/movements/**", Roles: []auth.Role{auth.RoleAdmin}},
		{Method: "PUT", Pattern: "/inventory/**", Roles: []auth.Role{auth.RoleAdmin, auth.RoleEmployee}},
		{Method: "GET", Pattern: "/inventory/*", Roles: []auth.Role{auth.RoleAdmin, auth.RoleEmployee}},
		{Method: "DELETE", Pattern: "/inventory/**", Roles: []auth.Role{}},
	})
}

func TestGate_Allows(t *testing.T) {
	gate := testGate()

	testCases := []struct {
		name     string
		role     auth.Role
		method   string
		path     string
		expected bool
	}{
		{"admin registers", auth.RoleAdmin, "POST", "/inventory", true},
		{"employee cannot register", auth.RoleEmployee, "POST", "/inventory", false},
		{"employee moves stock", auth.RoleEmployee, "PUT", "/inventory/1/2", true},
		{"employee lists store", auth.RoleEmployee, "GET", "/inventory/7", true},
		{"employee cannot list movements", auth.RoleEmployee, "GET", "/inventory/movements", false},
		{"employee cannot read metrics", auth.RoleEmployee, "GET", "/inventory/movements/metrics", false},
		{"admin reads store movements", auth.RoleAdmin, "GET", "/inventory/movements/3", true},
		{"method is case insensitive", auth.RoleAdmin, "post", "/inventory/", true},
		{"empty role set denies everyone", auth.RoleAdmin, "DELETE", "/inventory/1", false},
		{"unmatched route allows known roles", auth.RoleEmployee, "GET", "/health/deep", true},
		{"unknown role never allowed", auth.Role("GUEST"), "GET", "/health/deep", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, gate.Allows(tc.role, tc.method, tc.path))
		})
	}
}

func TestGate_FirstMatchWins(t *testing.T) {
	gate := NewGate([]AccessRule{
		{Method: "GET", Pattern: "/products/**", Roles: []auth.Role{auth.RoleAdmin}},
		{Method: "GET", Pattern: "/products/*", Roles: []auth.Role{auth.RoleEmployee}},
	})

	assert.Equal(t, []auth.Role{auth.RoleAdmin}, gate.AllowedRoles("GET", "/products/1"))
}

func TestGate_WildcardSemantics(t *testing.T) {
	assert.True(t, matchSegments(splitPath("/a/**"), splitPath("/a")))
	assert.True(t, matchSegments(splitPath("/a/**"), splitPath("/a/b/c")))
	assert.True(t, matchSegments(splitPath("/a/*"), splitPath("/a/b")))
	assert.False(t, matchSegments(splitPath("/a/*"), splitPath("/a")))
	assert.False(t, matchSegments(splitPath("/a/*"), splitPath("/a/b/c")))
	assert.False(t, matchSegments(splitPath("/a/b"), splitPath("/a/c")))
}

func TestGate_CustomFallback(t *testing.T) {
	gate := NewGate(nil, auth.RoleAdmin)

	assert.True(t, gate.Allows(auth.RoleAdmin, "GET", "/anything"))
	assert.False(t, gate.Allows(auth.RoleEmployee, "GET", "/anything"))
}
