package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	r, ok := ParseRole("it")
	assert.True(t, ok)
	assert.Equal(t, RoleIT, r)

	_, ok = ParseRole("Manager")
	assert.False(t, ok)
}

func TestRoleIsSupport(t *testing.T) {
	assert.True(t, RoleAdmin.IsSupport())
	assert.True(t, RoleIT.IsSupport())
	assert.False(t, RoleStaff.IsSupport())
}

func TestUserHelpers(t *testing.T) {
	u := &User{FirstName: "Ada", LastName: "Lovelace", Email: " ", IsActive: true}
	assert.Equal(t, "Ada Lovelace", u.FullName())
	assert.False(t, u.HasEmail())
	assert.False(t, u.EligibleManager())

	u.IsStaff = true
	assert.True(t, u.EligibleManager())

	var missing *User
	assert.False(t, missing.HasEmail())
}
