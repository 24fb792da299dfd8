package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/yigit/servicedesk/internal/app/models"
	"github.com/yigit/servicedesk/internal/app/repositories"
	"github.com/yigit/servicedesk/internal/pkg/apperrors"
	"github.com/yigit/servicedesk/internal/pkg/filestorage"
)

// AdminService holds account management reserved for admins
type AdminService struct {
	studentRepo repositories.IStudentRepository
	workerRepo  repositories.IWorkerRepository
	requestRepo repositories.IRequestRepository
	storage     filestorage.FileStorage
	logger      zerolog.Logger
}

// NewAdminService creates a new AdminService
func NewAdminService(
	studentRepo repositories.IStudentRepository,
	workerRepo repositories.IWorkerRepository,
	requestRepo repositories.IRequestRepository,
	storage filestorage.FileStorage,
	logger zerolog.Logger,
) *AdminService {
	return &AdminService{
		studentRepo: studentRepo,
		workerRepo:  workerRepo,
		requestRepo: requestRepo,
		storage:     storage,
		logger:      logger,
	}
}

// requireAdmin checks the stored account rather than the token, which may predate a role change
func (s *AdminService) requireAdmin(ctx context.Context, adminID int64) error {
	admin, err := s.workerRepo.GetByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, apperrors.ErrWorkerNotFound) {
			return apperrors.ErrAdminRequired
		}
		return err
	}
	if !admin.IsActive {
		return apperrors.ErrWorkerInactive
	}
	if !admin.IsAdmin() {
		return apperrors.ErrAdminRequired
	}
	return nil
}

// SetWorkerActive enables or disables a worker account
func (s *AdminService) SetWorkerActive(ctx context.Context, adminID, workerID int64, active bool) (*models.Worker, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	if adminID == workerID && !active {
		return nil, apperrors.ErrCannotDeactivateSelf
	}

	if err := s.workerRepo.SetActive(ctx, workerID, active); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("adminID", adminID).Int64("workerID", workerID).Bool("active", active).Msg("Worker active flag changed")
	return s.workerRepo.GetByID(ctx, workerID)
}

// DeleteStudent removes a student, their requests and the documents attached to them
func (s *AdminService) DeleteStudent(ctx context.Context, adminID, studentID int64) error {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return err
	}

	handles, err := s.requestRepo.DocumentHandlesForStudent(ctx, studentID)
	if err != nil {
		return err
	}

	if err := s.studentRepo.Delete(ctx, studentID); err != nil {
		return err
	}

	for _, h := range handles {
		if err := s.storage.DeleteFile(h); err != nil {
			s.logger.Error().Err(err).Str("handle", h).Msg("Failed to delete document of removed student")
		}
	}

	s.logger.Info().Int64("adminID", adminID).Int64("studentID", studentID).Int("documents", len(handles)).Msg("Student deleted")
	return nil
}
