package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/servicedesk/internal/app/models"
	"github.com/yigit/servicedesk/internal/app/models/dto"
	"github.com/yigit/servicedesk/internal/app/repositories"
	"github.com/yigit/servicedesk/internal/domain"
	"github.com/yigit/servicedesk/internal/pkg/apperrors"
	"github.com/yigit/servicedesk/internal/pkg/email"
	"github.com/yigit/servicedesk/internal/pkg/events"
)

// LifecycleService moves requests through their statuses on behalf of workers
type LifecycleService struct {
	requestRepo repositories.IRequestRepository
	publisher   events.Publisher
	notifier    email.Notifier
	now         func() time.Time
	logger      zerolog.Logger
}

// NewLifecycleService creates a new LifecycleService
func NewLifecycleService(
	requestRepo repositories.IRequestRepository,
	publisher events.Publisher,
	notifier email.Notifier,
	logger zerolog.Logger,
) *LifecycleService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &LifecycleService{
		requestRepo: requestRepo,
		publisher:   publisher,
		notifier:    notifier,
		now:         time.Now,
		logger:      logger,
	}
}

// Transition applies action to the request as workerID. Reject needs remarks, which become the
// rejection reason; other actions ignore them. The row stays locked from read to write.
func (s *LifecycleService) Transition(ctx context.Context, workerID, requestID int64, action domain.Action, remarks string) (*dto.ServiceRequestDetail, error) {
	target, ok := action.Target()
	if !ok {
		return nil, apperrors.NewValidationError("Unknown action " + string(action))
	}

	reason := strings.TrimSpace(remarks)
	if target == domain.StatusRejected && reason == "" {
		return nil, apperrors.NewFieldValidationError("remarks", "remarks are required when rejecting a request")
	}

	now := s.now()
	updated, err := s.requestRepo.UpdateLifecycle(ctx, requestID, workerID, func(req *models.ServiceRequest) error {
		l := req.Lifecycle()
		if err := l.Apply(target, workerID, reason, now); err != nil {
			var te *domain.TransitionError
			if errors.As(err, &te) {
				return apperrors.NewCustomError(apperrors.ErrInvalidTransition,
					"Cannot move request from "+string(te.From)+" to "+string(te.To)).
					WithDetails(map[string]interface{}{"from": te.From, "to": te.To})
			}
			return err
		}
		req.SetLifecycle(l)
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidTransition) {
			s.logger.Warn().Err(err).Int64("requestID", requestID).Int64("workerID", workerID).Msg("Rejected status transition")
		}
		return nil, err
	}

	// Re-read for the processor name, which the locked row was loaded without when this call set it
	if fresh, err := s.requestRepo.GetByID(ctx, requestID); err == nil {
		updated = fresh
	} else {
		s.logger.Warn().Err(err).Int64("requestID", requestID).Msg("Failed to reload request after transition")
	}

	publishEvent(ctx, s.publisher, s.logger, events.RequestStatusChanged, updated, &workerID, now)
	s.notify(updated)

	s.logger.Info().
		Int64("requestID", requestID).
		Str("token", updated.TokenNumber).
		Str("status", string(updated.Status)).
		Int64("workerID", workerID).
		Msg("Request status changed")

	detail := dto.NewServiceRequestDetail(updated)
	return &detail, nil
}

func (s *LifecycleService) notify(req *models.ServiceRequest) {
	if s.notifier == nil || req.Student == nil || req.Student.Email == "" {
		return
	}

	var err error
	service := req.RequestType.DisplayName()
	switch req.Status {
	case domain.StatusReady:
		err = s.notifier.SendRequestReady(req.Student.Email, req.Student.FullName, req.TokenNumber, service)
	case domain.StatusRejected:
		reason := ""
		if req.Remarks != nil {
			reason = *req.Remarks
		}
		err = s.notifier.SendRequestRejected(req.Student.Email, req.Student.FullName, req.TokenNumber, service, reason)
	default:
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("token", req.TokenNumber).Msg("Failed to notify student")
	}
}
