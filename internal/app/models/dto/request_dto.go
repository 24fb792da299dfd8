package dto

import (
	"time"

	"github.com/yigit/servicedesk/internal/app/models"
	"github.com/yigit/servicedesk/internal/domain"
)

// TransitionRequest carries the optional remarks of a worker action; reject requires them
type TransitionRequest struct {
	Remarks string `json:"remarks" binding:"omitempty,max=2000"`
}

// SetActiveRequest toggles a worker account
type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// TimelineStep is one stage of a request's progress
type TimelineStep struct {
	Status  domain.Status `json:"status"`
	Reached bool          `json:"reached"`
	At      *time.Time    `json:"at,omitempty"`
}

// ServiceRequestDetail is a request plus its display data
type ServiceRequestDetail struct {
	*models.ServiceRequest
	ServiceName string         `json:"serviceName"`
	Timeline    []TimelineStep `json:"timeline"`
}

// StudentRequestList is the student dashboard payload
type StudentRequestList struct {
	Requests []*models.ServiceRequest `json:"requests"`
	Stats    models.RequestStats      `json:"stats"`
}

// BuildTimeline lists the stages of r in order. A rejected request ends with a Rejected step
// instead of Ready/Collected stages it never reached.
func BuildTimeline(r *models.ServiceRequest) []TimelineStep {
	steps := []TimelineStep{
		{Status: domain.StatusSubmitted, Reached: true, At: &r.SubmittedAt},
		{Status: domain.StatusInProgress, Reached: r.ProcessedAt != nil, At: r.ProcessedAt},
	}
	if r.Status == domain.StatusRejected {
		if r.ReadyAt != nil {
			steps = append(steps, TimelineStep{Status: domain.StatusReady, Reached: true, At: r.ReadyAt})
		}
		at := r.UpdatedAt
		return append(steps, TimelineStep{Status: domain.StatusRejected, Reached: true, At: &at})
	}
	return append(steps,
		TimelineStep{Status: domain.StatusReady, Reached: r.ReadyAt != nil, At: r.ReadyAt},
		TimelineStep{Status: domain.StatusCollected, Reached: r.CollectedAt != nil, At: r.CollectedAt},
	)
}

// NewServiceRequestDetail decorates r for the detail endpoints
func NewServiceRequestDetail(r *models.ServiceRequest) ServiceRequestDetail {
	return ServiceRequestDetail{
		ServiceRequest: r,
		ServiceName:    r.RequestType.DisplayName(),
		Timeline:       BuildTimeline(r),
	}
}
