package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/servicedesk/internal/app/models"
	"github.com/yigit/servicedesk/internal/app/models/dto"
	"github.com/yigit/servicedesk/internal/app/repositories"
	"github.com/yigit/servicedesk/internal/domain"
	"github.com/yigit/servicedesk/internal/pkg/apperrors"
	"github.com/yigit/servicedesk/internal/pkg/events"
	"github.com/yigit/servicedesk/internal/pkg/filestorage"
	"github.com/yigit/servicedesk/internal/pkg/helpers"
	"github.com/yigit/servicedesk/internal/pkg/ratelimit"
)

// Upload is one document attached to a new request
type Upload struct {
	Kind     domain.DocumentKind
	Filename string
	Content  io.Reader
}

// NewRequestInput is a student's submission before validation
type NewRequestInput struct {
	Type      string
	Fields    map[string]string
	Remarks   string
	Documents []Upload
}

// RequestService handles submission and lookup of service requests
type RequestService struct {
	requestRepo repositories.IRequestRepository
	storage     filestorage.FileStorage
	cooldown    *ratelimit.Cooldown
	publisher   events.Publisher
	createOpts  repositories.CreateOptions
	now         func() time.Time
	logger      zerolog.Logger
}

// NewRequestService creates a new RequestService. cooldown may be nil.
func NewRequestService(
	requestRepo repositories.IRequestRepository,
	storage filestorage.FileStorage,
	cooldown *ratelimit.Cooldown,
	publisher events.Publisher,
	createOpts repositories.CreateOptions,
	logger zerolog.Logger,
) *RequestService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &RequestService{
		requestRepo: requestRepo,
		storage:     storage,
		cooldown:    cooldown,
		publisher:   publisher,
		createOpts:  createOpts,
		now:         time.Now,
		logger:      logger,
	}
}

func payloadError(err error) error {
	var fe *domain.FieldError
	if errors.As(err, &fe) {
		return apperrors.NewFieldValidationError(fe.Field, fe.Field+" "+fe.Message)
	}
	return apperrors.NewValidationError(err.Error())
}

// CreateRequest validates a submission, stores its documents and records it with a fresh token.
// Documents stored before a failure are removed again.
func (s *RequestService) CreateRequest(ctx context.Context, studentID int64, in NewRequestInput) (*models.ServiceRequest, error) {
	requestType, ok := domain.ParseRequestType(in.Type)
	if !ok {
		return nil, apperrors.NewCustomError(apperrors.ErrUnknownRequestType, fmt.Sprintf("Unknown service %q", in.Type))
	}

	payload, err := domain.PayloadFromFields(requestType, in.Fields)
	if err != nil {
		return nil, payloadError(err)
	}
	if err := payload.Validate(); err != nil {
		return nil, payloadError(err)
	}

	cooldownKey := fmt.Sprintf("student:%d", studentID)
	allowed, wait, err := s.cooldown.Allow(ctx, cooldownKey)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Submission cooldown unavailable")
		allowed = true
	}
	if !allowed {
		return nil, apperrors.NewCustomError(apperrors.ErrRateLimited,
			fmt.Sprintf("Please wait %s before submitting another request", wait.Round(time.Second)))
	}

	now := s.now()
	req := &models.ServiceRequest{
		RequestType: requestType,
		StudentID:   studentID,
		Status:      domain.StatusSubmitted,
		Details:     payload,
		SubmittedAt: now,
		UpdatedAt:   now,
	}
	if remarks := strings.TrimSpace(in.Remarks); remarks != "" {
		req.Remarks = &remarks
	}

	var stored []string
	fail := func(err error) (*models.ServiceRequest, error) {
		s.discard(stored)
		if relErr := s.cooldown.Release(ctx, cooldownKey); relErr != nil {
			s.logger.Warn().Err(relErr).Msg("Failed to release submission cooldown")
		}
		return nil, err
	}

	subPath := fmt.Sprintf("requests/%d", studentID)
	for _, doc := range in.Documents {
		handle, err := s.storage.Store(doc.Content, doc.Filename, subPath)
		if err != nil {
			s.logger.Warn().Err(err).Str("kind", string(doc.Kind)).Str("filename", doc.Filename).Msg("Document rejected")
			return fail(err)
		}
		stored = append(stored, handle)
		req.Documents.Set(doc.Kind, handle)
	}

	if err := s.requestRepo.Create(ctx, req, s.createOpts); err != nil {
		return fail(err)
	}

	s.publish(ctx, events.RequestSubmitted, req, nil)
	return req, nil
}

func (s *RequestService) discard(handles []string) {
	for _, h := range handles {
		if err := s.storage.DeleteFile(h); err != nil {
			s.logger.Error().Err(err).Str("handle", h).Msg("Failed to remove orphaned document")
		}
	}
}

func (s *RequestService) publish(ctx context.Context, eventType string, req *models.ServiceRequest, workerID *int64) {
	publishEvent(ctx, s.publisher, s.logger, eventType, req, workerID, s.now())
}

func publishEvent(ctx context.Context, p events.Publisher, log zerolog.Logger, eventType string, req *models.ServiceRequest, workerID *int64, at time.Time) {
	e := events.Event{
		Type:        eventType,
		RequestID:   req.ID,
		TokenNumber: req.TokenNumber,
		RequestType: string(req.RequestType),
		Status:      string(req.Status),
		StudentID:   req.StudentID,
		WorkerID:    workerID,
		OccurredAt:  at,
	}
	if req.Status == domain.StatusRejected {
		e.Remarks = req.Remarks
	}
	if err := p.Publish(ctx, e); err != nil {
		log.Warn().Err(err).Str("event", eventType).Str("token", req.TokenNumber).Msg("Event publish failed")
	}
}

// ListForStudent returns the student's requests, newest first, with status counts
func (s *RequestService) ListForStudent(ctx context.Context, studentID int64) (*dto.StudentRequestList, error) {
	reqs, err := s.requestRepo.ListForStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	list := &dto.StudentRequestList{Requests: reqs}
	if list.Requests == nil {
		list.Requests = []*models.ServiceRequest{}
	}
	for _, r := range reqs {
		list.Stats.Add(r.Status)
	}
	return list, nil
}

// GetForStudent returns one request if it belongs to studentID
func (s *RequestService) GetForStudent(ctx context.Context, studentID, requestID int64) (*dto.ServiceRequestDetail, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.StudentID != studentID {
		s.logger.Warn().Int64("studentID", studentID).Int64("requestID", requestID).Msg("Student tried to read another student's request")
		return nil, apperrors.NewForbiddenError("You can only view your own requests")
	}

	detail := dto.NewServiceRequestDetail(req)
	return &detail, nil
}

// ListQueue returns one page of requests for workers, oldest first
func (s *RequestService) ListQueue(ctx context.Context, filter models.QueueFilter) ([]*models.ServiceRequest, dto.PaginationInfo, error) {
	reqs, total, err := s.requestRepo.ListQueue(ctx, filter)
	if err != nil {
		return nil, dto.PaginationInfo{}, err
	}
	if reqs == nil {
		reqs = []*models.ServiceRequest{}
	}
	return reqs, helpers.NewPaginationInfo(total, filter.Page, filter.PageSize), nil
}

// GetForWorker returns any request with its student and timeline
func (s *RequestService) GetForWorker(ctx context.Context, requestID int64) (*dto.ServiceRequestDetail, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	detail := dto.NewServiceRequestDetail(req)
	return &detail, nil
}
