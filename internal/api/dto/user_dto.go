package dto

import "time"

// RegisterRequest payload for self-registration.
type RegisterRequest struct {
	FirstName       string `json:"firstName" label:"First name" validate:"required,max=100"`
	MiddleName      string `json:"middleName" label:"Middle name" validate:"omitempty,max=100"`
	LastName        string `json:"lastName" label:"Last name" validate:"required,max=100"`
	Email           string `json:"email" label:"Email" validate:"required,email"`
	PhoneNumber     string `json:"phoneNumber" label:"Phone number" validate:"omitempty,max=30"`
	Password        string `json:"password" label:"Password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" label:"Confirm password" validate:"required,eqfield=Password"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email" label:"Email" validate:"required,email"`
	Password string `json:"password" label:"Password" validate:"required"`
}

// UpdatePasswordRequest payload for changing the caller's password.
type UpdatePasswordRequest struct {
	CurrentPassword    string `json:"currentPassword" label:"Current password" validate:"required"`
	NewPassword        string `json:"newPassword" label:"New password" validate:"required,min=6"`
	ConfirmNewPassword string `json:"confirmNewPassword" label:"Confirm new password" validate:"required,eqfield=NewPassword"`
}

// AuthResponse is returned by login.
type AuthResponse struct {
	Token      string       `json:"token"`
	Expiration time.Time    `json:"expiration"`
	User       UserResponse `json:"user"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	FirstName       string    `json:"firstName"`
	MiddleName      string    `json:"middleName,omitempty"`
	LastName        string    `json:"lastName"`
	FullName        string    `json:"fullName"`
	PhoneNumber     string    `json:"phoneNumber,omitempty"`
	Role            string    `json:"role"`
	IsStaff         bool      `json:"isStaff"`
	IsActive        bool      `json:"isActive"`
	DepartmentID    *int64    `json:"departmentId"`
	SubDepartmentID *int64    `json:"subDepartmentId"`
	PositionID      *int64    `json:"positionId"`
	CreatedAt       time.Time `json:"createdAt"`
}

// UserSummary is the compact user embedded in tickets and comments.
type UserSummary struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// AssignRoleRequest payload for POST /api/UserRole/assign.
type AssignRoleRequest struct {
	UserID string `json:"userId" label:"User id" validate:"required"`
	Role   string `json:"role" label:"Role" validate:"required"`
}

// AssignRoleResponse tells the client whose session must be discarded.
type AssignRoleResponse struct {
	Message        string `json:"message"`
	ForceLogoutFor string `json:"forceLogoutFor"`
}

// ConfirmUserResponse reports the approval flag after a toggle.
type ConfirmUserResponse struct {
	Message string `json:"message"`
	IsStaff bool   `json:"isStaff"`
}

// PlacementRequest sets or clears (null) one org unit reference on a user.
type PlacementRequest struct {
	ID *int64 `json:"id"`
}
