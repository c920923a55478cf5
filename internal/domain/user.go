package domain

import (
	"strings"
	"time"
)

// User is an account that submits or works tickets.
type User struct {
	ID              string
	Email           string
	PasswordHash    string
	FirstName       string
	MiddleName      string
	LastName        string
	PhoneNumber     string
	Role            Role
	IsStaff         bool
	IsActive        bool
	DepartmentID    *int64
	SubDepartmentID *int64
	PositionID      *int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// HasEmail reports whether notifications can reach the user.
func (u *User) HasEmail() bool {
	return u != nil && strings.TrimSpace(u.Email) != ""
}

// EligibleManager reports whether the user shows up in manager pickers.
func (u *User) EligibleManager() bool {
	return u.IsActive && u.IsStaff
}
