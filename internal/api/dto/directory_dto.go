package dto

import "time"

// DepartmentRequest payload for create and update.
type DepartmentRequest struct {
	Name        string `json:"name" label:"Department name" validate:"required,max=100"`
	Description string `json:"description" label:"Description" validate:"max=500"`
	Remarks     string `json:"remarks" label:"Remarks"`
}

// SubDepartmentRequest payload for create and update.
type SubDepartmentRequest struct {
	DepartmentID int64  `json:"departmentId" label:"Department id" validate:"gt=0"`
	Name         string `json:"name" label:"Sub-department name" validate:"required,max=100"`
	Description  string `json:"description" label:"Description" validate:"max=500"`
	Remarks      string `json:"remarks" label:"Remarks"`
}

// PositionRequest payload for create and update. IsActive defaults to true on create.
type PositionRequest struct {
	SubDepartmentID int64  `json:"subDepartmentId" label:"Sub-department id" validate:"gt=0"`
	Name            string `json:"name" label:"Position name" validate:"required,max=100"`
	Description     string `json:"description" label:"Description" validate:"max=500"`
	Remarks         string `json:"remarks" label:"Remarks"`
	IsActive        *bool  `json:"isActive"`
}

// BulkDeleteRequest lists departments to delete together.
type BulkDeleteRequest struct {
	DepartmentIDs []int64 `json:"departmentIds"`
}

// BulkDeleteResponse reports the outcome of a bulk delete.
type BulkDeleteResponse struct {
	Message      string  `json:"message"`
	DeletedCount int     `json:"deletedCount"`
	Deleted      []int64 `json:"deleted"`
	Skipped      []int64 `json:"skipped"`
}

// AssignManagerRequest names the org unit and the manager to set on it.
type AssignManagerRequest struct {
	EntityID   int64  `json:"entityId" label:"Entity id" validate:"gt=0"`
	EmployeeID string `json:"employeeId" label:"Employee id" validate:"required"`
}

// RemoveManagerRequest names the org unit whose manager is cleared.
type RemoveManagerRequest struct {
	EntityID int64 `json:"entityId" label:"Entity id" validate:"gt=0"`
}

type DepartmentResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Remarks     string    `json:"remarks"`
	ManagerID   *string   `json:"managerId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type SubDepartmentResponse struct {
	ID           int64     `json:"id"`
	DepartmentID int64     `json:"departmentId"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Remarks      string    `json:"remarks"`
	ManagerID    *string   `json:"managerId"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type PositionResponse struct {
	ID              int64     `json:"id"`
	SubDepartmentID int64     `json:"subDepartmentId"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Remarks         string    `json:"remarks"`
	IsActive        bool      `json:"isActive"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// ManagerCandidateResponse is an eligible manager for the picker.
type ManagerCandidateResponse struct {
	ID         string `json:"id"`
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	Department string `json:"department"`
}
