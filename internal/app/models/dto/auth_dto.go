package dto

import "github.com/yigit/servicedesk/internal/app/models"

// LoginRequest accepts a roll number / employee ID or an email address
type LoginRequest struct {
	LoginID  string `json:"loginId" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// StudentRegisterRequest is the student sign-up form
type StudentRegisterRequest struct {
	RollNumber      string `json:"rollNumber" binding:"required,identifier"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
	FullName        string `json:"fullName" binding:"required,max=200"`
	Department      string `json:"department" binding:"required,max=100"`
	YearOfStudy     string `json:"yearOfStudy" binding:"required,max=20"`
	Division        string `json:"division" binding:"omitempty,max=10"`
	PhoneNumber     string `json:"phoneNumber" binding:"omitempty,phone"`
}

// WorkerRegisterRequest is the staff sign-up form
type WorkerRegisterRequest struct {
	EmployeeID      string `json:"employeeId" binding:"required,identifier"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
	FullName        string `json:"fullName" binding:"required,max=200"`
	Department      string `json:"department" binding:"omitempty,max=100"`
	PhoneNumber     string `json:"phoneNumber" binding:"omitempty,phone"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType" example:"Bearer"`
	ExpiresIn   int64  `json:"expiresIn"`
}

// StudentAuthResponse is returned after student login or registration
type StudentAuthResponse struct {
	Token   TokenResponse   `json:"token"`
	Student *models.Student `json:"student"`
}

// WorkerAuthResponse is returned after worker login or registration
type WorkerAuthResponse struct {
	Token  TokenResponse  `json:"token"`
	Worker *models.Worker `json:"worker"`
}
