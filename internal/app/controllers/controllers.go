// Package controllers handles HTTP request handling
package controllers

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yigit/servicedesk/internal/app/models"
	"github.com/yigit/servicedesk/internal/app/models/dto"
	"github.com/yigit/servicedesk/internal/app/services"
	"github.com/yigit/servicedesk/internal/domain"
	"github.com/yigit/servicedesk/internal/pkg/apperrors"
)

// AuthService is what AuthController needs from services.AuthService
type AuthService interface {
	RegisterStudent(ctx context.Context, req *dto.StudentRegisterRequest) (*dto.StudentAuthResponse, error)
	RegisterWorker(ctx context.Context, req *dto.WorkerRegisterRequest) (*dto.WorkerAuthResponse, error)
	LoginStudent(ctx context.Context, req *dto.LoginRequest) (*dto.StudentAuthResponse, error)
	LoginWorker(ctx context.Context, req *dto.LoginRequest) (*dto.WorkerAuthResponse, error)
	GetStudentProfile(ctx context.Context, studentID int64) (*models.Student, error)
}

// RequestService is what the request controllers need from services.RequestService
type RequestService interface {
	CreateRequest(ctx context.Context, studentID int64, in services.NewRequestInput) (*models.ServiceRequest, error)
	ListForStudent(ctx context.Context, studentID int64) (*dto.StudentRequestList, error)
	GetForStudent(ctx context.Context, studentID, requestID int64) (*dto.ServiceRequestDetail, error)
	ListQueue(ctx context.Context, filter models.QueueFilter) ([]*models.ServiceRequest, dto.PaginationInfo, error)
	GetForWorker(ctx context.Context, requestID int64) (*dto.ServiceRequestDetail, error)
}

// LifecycleService is what WorkerController needs from services.LifecycleService
type LifecycleService interface {
	Transition(ctx context.Context, workerID, requestID int64, action domain.Action, remarks string) (*dto.ServiceRequestDetail, error)
}

// AdminService is what AdminController needs from services.AdminService
type AdminService interface {
	SetWorkerActive(ctx context.Context, adminID, workerID int64, active bool) (*models.Worker, error)
	DeleteStudent(ctx context.Context, adminID, studentID int64) error
}

var (
	_ AuthService      = (*services.AuthService)(nil)
	_ RequestService   = (*services.RequestService)(nil)
	_ LifecycleService = (*services.LifecycleService)(nil)
	_ AdminService     = (*services.AdminService)(nil)
)

// parseIDParam reads a positive int64 path parameter
func parseIDParam(ctx *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewFieldValidationError(name, "Invalid "+name)
	}
	return id, nil
}
