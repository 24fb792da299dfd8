package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/servicedesk/internal/app/models"
	"github.com/yigit/servicedesk/internal/app/models/dto"
	"github.com/yigit/servicedesk/internal/app/repositories"
	"github.com/yigit/servicedesk/internal/pkg/apperrors"
	"github.com/yigit/servicedesk/internal/pkg/auth"
	"github.com/yigit/servicedesk/internal/pkg/ratelimit"
	"github.com/yigit/servicedesk/internal/pkg/validation"
)

// AuthService registers and logs in students and workers
type AuthService struct {
	studentRepo   repositories.IStudentRepository
	workerRepo    repositories.IWorkerRepository
	jwtService    *auth.JWTService
	loginAttempts *ratelimit.Attempts
	logger        zerolog.Logger
}

// NewAuthService creates a new AuthService. loginAttempts may be nil.
func NewAuthService(
	studentRepo repositories.IStudentRepository,
	workerRepo repositories.IWorkerRepository,
	jwtService *auth.JWTService,
	loginAttempts *ratelimit.Attempts,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		studentRepo:   studentRepo,
		workerRepo:    workerRepo,
		jwtService:    jwtService,
		loginAttempts: loginAttempts,
		logger:        logger,
	}
}

func checkPasswords(password, confirm string) error {
	if len(password) < auth.MinPasswordLength {
		return apperrors.NewFieldValidationError("password",
			fmt.Sprintf("password must be at least %d characters", auth.MinPasswordLength))
	}
	if password != confirm {
		return apperrors.NewCustomError(apperrors.ErrPasswordMismatch, "Passwords do not match").
			WithDetails(map[string]interface{}{"field": "confirmPassword"})
	}
	return nil
}

func (s *AuthService) issueToken(p auth.Principal) (dto.TokenResponse, error) {
	token, expiresIn, err := s.jwtService.GenerateAccessToken(p)
	if err != nil {
		s.logger.Error().Err(err).Int64("principalID", p.ID).Msg("Failed to generate access token")
		return dto.TokenResponse{}, fmt.Errorf("failed to generate access token: %w", err)
	}
	return dto.TokenResponse{AccessToken: token, TokenType: "Bearer", ExpiresIn: expiresIn}, nil
}

// RegisterStudent creates a student account and logs it in
func (s *AuthService) RegisterStudent(ctx context.Context, req *dto.StudentRegisterRequest) (*dto.StudentAuthResponse, error) {
	if err := checkPasswords(req.Password, req.ConfirmPassword); err != nil {
		return nil, err
	}

	student := &models.Student{
		RollNumber:  validation.NormalizeIdentifier(req.RollNumber),
		Email:       validation.NormalizeEmail(req.Email),
		FullName:    req.FullName,
		Department:  req.Department,
		YearOfStudy: req.YearOfStudy,
		Division:    req.Division,
		PhoneNumber: req.PhoneNumber,
	}

	exists, err := s.studentRepo.RollNumberExists(ctx, student.RollNumber)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.ErrRollNumberExists
	}
	exists, err = s.studentRepo.EmailExists(ctx, student.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.ErrEmailAlreadyExists
	}

	student.PasswordHash, err = auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// The unique constraints still decide when two registrations race past the checks above
	if err := s.studentRepo.Create(ctx, student); err != nil {
		return nil, err
	}

	token, err := s.issueToken(auth.Principal{ID: student.ID, Kind: models.PrincipalStudent})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("studentID", student.ID).Str("rollNumber", student.RollNumber).Msg("Student registered")
	return &dto.StudentAuthResponse{Token: token, Student: student}, nil
}

// RegisterWorker creates an active staff account with the worker role
func (s *AuthService) RegisterWorker(ctx context.Context, req *dto.WorkerRegisterRequest) (*dto.WorkerAuthResponse, error) {
	if err := checkPasswords(req.Password, req.ConfirmPassword); err != nil {
		return nil, err
	}

	worker := &models.Worker{
		EmployeeID:  validation.NormalizeIdentifier(req.EmployeeID),
		Email:       validation.NormalizeEmail(req.Email),
		FullName:    req.FullName,
		Department:  req.Department,
		PhoneNumber: req.PhoneNumber,
		Role:        models.RoleWorker,
		IsActive:    true,
	}

	exists, err := s.workerRepo.EmployeeIDExists(ctx, worker.EmployeeID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.ErrEmployeeIDExists
	}
	exists, err = s.workerRepo.EmailExists(ctx, worker.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.ErrEmailAlreadyExists
	}

	worker.PasswordHash, err = auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.workerRepo.Create(ctx, worker); err != nil {
		return nil, err
	}

	token, err := s.issueToken(auth.Principal{ID: worker.ID, Kind: models.PrincipalWorker, Role: worker.Role})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("workerID", worker.ID).Str("employeeID", worker.EmployeeID).Msg("Worker registered")
	return &dto.WorkerAuthResponse{Token: token, Worker: worker}, nil
}

// guardLogin refuses logins for a key that used up its failed attempts.
// Redis trouble is logged and the login proceeds.
func (s *AuthService) guardLogin(ctx context.Context, key string) error {
	blocked, wait, err := s.loginAttempts.Blocked(ctx, key)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Login limiter unavailable")
		return nil
	}
	if blocked {
		return apperrors.NewCustomError(apperrors.ErrRateLimited,
			fmt.Sprintf("Too many failed login attempts, try again in %s", wait.Round(time.Second)))
	}
	return nil
}

func (s *AuthService) loginFailed(ctx context.Context, key string) error {
	if err := s.loginAttempts.Fail(ctx, key); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to record login attempt")
	}
	return apperrors.ErrInvalidCredentials
}

func (s *AuthService) loginSucceeded(ctx context.Context, key string) {
	if err := s.loginAttempts.Reset(ctx, key); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to reset login attempts")
	}
}

// LoginStudent accepts the roll number or the email as login ID
func (s *AuthService) LoginStudent(ctx context.Context, req *dto.LoginRequest) (*dto.StudentAuthResponse, error) {
	key := "student:" + validation.NormalizeEmail(req.LoginID)
	if err := s.guardLogin(ctx, key); err != nil {
		return nil, err
	}

	student, err := s.studentRepo.FindByLogin(ctx,
		validation.NormalizeIdentifier(req.LoginID), validation.NormalizeEmail(req.LoginID))
	if err != nil {
		if errors.Is(err, apperrors.ErrStudentNotFound) {
			return nil, s.loginFailed(ctx, key)
		}
		return nil, err
	}
	if !auth.CheckPassword(student.PasswordHash, req.Password) {
		return nil, s.loginFailed(ctx, key)
	}
	s.loginSucceeded(ctx, key)

	token, err := s.issueToken(auth.Principal{ID: student.ID, Kind: models.PrincipalStudent})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("studentID", student.ID).Msg("Student logged in")
	return &dto.StudentAuthResponse{Token: token, Student: student}, nil
}

// LoginWorker accepts the employee ID or the email as login ID; inactive workers are refused
func (s *AuthService) LoginWorker(ctx context.Context, req *dto.LoginRequest) (*dto.WorkerAuthResponse, error) {
	key := "worker:" + validation.NormalizeEmail(req.LoginID)
	if err := s.guardLogin(ctx, key); err != nil {
		return nil, err
	}

	worker, err := s.workerRepo.FindByLogin(ctx,
		validation.NormalizeIdentifier(req.LoginID), validation.NormalizeEmail(req.LoginID))
	if err != nil {
		if errors.Is(err, apperrors.ErrWorkerNotFound) {
			return nil, s.loginFailed(ctx, key)
		}
		return nil, err
	}
	if !auth.CheckPassword(worker.PasswordHash, req.Password) {
		return nil, s.loginFailed(ctx, key)
	}
	s.loginSucceeded(ctx, key)

	if !worker.IsActive {
		s.logger.Warn().Int64("workerID", worker.ID).Msg("Login attempt by inactive worker")
		return nil, apperrors.ErrWorkerInactive
	}

	token, err := s.issueToken(auth.Principal{ID: worker.ID, Kind: models.PrincipalWorker, Role: worker.Role})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("workerID", worker.ID).Str("role", string(worker.Role)).Msg("Worker logged in")
	return &dto.WorkerAuthResponse{Token: token, Worker: worker}, nil
}

// GetStudentProfile returns the student behind a token
func (s *AuthService) GetStudentProfile(ctx context.Context, studentID int64) (*models.Student, error) {
	return s.studentRepo.GetByID(ctx, studentID)
}
