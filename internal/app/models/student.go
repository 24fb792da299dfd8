package models

import "time"

// Student defines the student model based on the 'students' table
type Student struct {
	ID           int64     `json:"id" db:"id" example:"1"`
	RollNumber   string    `json:"rollNumber" db:"roll_number" example:"CS2023001"`         // Upper-cased on write
	Email        string    `json:"email" db:"email" example:"asha@college.edu"`             // Lower-cased on write
	PasswordHash string    `json:"-" db:"password_hash"`                                    // bcrypt, never serialised
	FullName     string    `json:"fullName" db:"full_name" example:"Asha Patil"`
	Department   string    `json:"department" db:"department" example:"Computer Engineering"`
	YearOfStudy  string    `json:"yearOfStudy" db:"year_of_study" example:"SE"`
	Division     string    `json:"division" db:"division" example:"A"`
	PhoneNumber  string    `json:"phoneNumber" db:"phone_number" example:"9876543210"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
