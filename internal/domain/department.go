package domain

import "time"

// Department is the top level of the organizational tree.
type Department struct {
	ID          int64
	Name        string
	Description string
	Remarks     string
	ManagerID   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SubDepartment belongs to exactly one Department.
type SubDepartment struct {
	ID           int64
	DepartmentID int64
	Name         string
	Description  string
	Remarks      string
	ManagerID    *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Position belongs to exactly one SubDepartment.
type Position struct {
	ID              int64
	SubDepartmentID int64
	Name            string
	Description     string
	Remarks         string
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// BulkDeleteResult summarizes a department bulk delete.
type BulkDeleteResult struct {
	Deleted []int64
	Skipped []int64
}
