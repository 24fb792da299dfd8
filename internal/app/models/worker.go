package models

import "time"

// Worker is a staff account; admins are workers with RoleAdmin
type Worker struct {
	ID           int64      `json:"id" db:"id" example:"1"`
	EmployeeID   string     `json:"employeeId" db:"employee_id" example:"EMP042"`
	Email        string     `json:"email" db:"email" example:"office@college.edu"`
	PasswordHash string     `json:"-" db:"password_hash"`
	FullName     string     `json:"fullName" db:"full_name"`
	Department   string     `json:"department" db:"department"`
	PhoneNumber  string     `json:"phoneNumber" db:"phone_number"`
	Role         WorkerRole `json:"role" db:"role" example:"worker"`
	IsActive     bool       `json:"isActive" db:"is_active"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" db:"updated_at"`
}

// IsAdmin reports whether w holds the admin role
func (w *Worker) IsAdmin() bool {
	return w != nil && w.Role == RoleAdmin
}
