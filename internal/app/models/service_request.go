package models

import (
	"time"

	"github.com/yigit/servicedesk/internal/domain"
)

// ServiceRequest is one row of the 'service_requests' table with its decoded payload
type ServiceRequest struct {
	ID          int64              `json:"id"`
	TokenNumber string             `json:"tokenNumber" example:"RC-2026-0001"`
	RequestType domain.RequestType `json:"requestType" example:"railway"`
	StudentID   int64              `json:"studentId"`
	ProcessedBy *int64             `json:"processedBy,omitempty"`
	Status      domain.Status      `json:"status" example:"Submitted"`
	Details     domain.Payload     `json:"details"`
	Remarks     *string            `json:"remarks,omitempty"`
	Documents   domain.Documents   `json:"documents"`
	SubmittedAt time.Time          `json:"submittedAt"`
	ProcessedAt *time.Time         `json:"processedAt,omitempty"`
	ReadyAt     *time.Time         `json:"readyAt,omitempty"`
	CollectedAt *time.Time         `json:"collectedAt,omitempty"`
	UpdatedAt   time.Time          `json:"updatedAt"`

	// Joined for worker views
	Student       *Student `json:"student,omitempty"`
	ProcessorName string   `json:"processorName,omitempty"`
}

// Lifecycle extracts the mutable lifecycle fields
func (r *ServiceRequest) Lifecycle() domain.Lifecycle {
	return domain.Lifecycle{
		Status:      r.Status,
		ProcessedBy: r.ProcessedBy,
		ProcessedAt: r.ProcessedAt,
		ReadyAt:     r.ReadyAt,
		CollectedAt: r.CollectedAt,
		Remarks:     r.Remarks,
		UpdatedAt:   r.UpdatedAt,
	}
}

// SetLifecycle copies l back onto the request
func (r *ServiceRequest) SetLifecycle(l domain.Lifecycle) {
	r.Status = l.Status
	r.ProcessedBy = l.ProcessedBy
	r.ProcessedAt = l.ProcessedAt
	r.ReadyAt = l.ReadyAt
	r.CollectedAt = l.CollectedAt
	r.Remarks = l.Remarks
	r.UpdatedAt = l.UpdatedAt
}

// RequestStats summarises a student's requests
type RequestStats struct {
	Total     int `json:"total"`
	Submitted int `json:"submitted"`
	Pending   int `json:"pending"` // In Progress
	Ready     int `json:"ready"`
	Collected int `json:"collected"`
	Rejected  int `json:"rejected"`
}

// Add counts one request in status s
func (s *RequestStats) Add(status domain.Status) {
	s.Total++
	switch status {
	case domain.StatusSubmitted:
		s.Submitted++
	case domain.StatusInProgress:
		s.Pending++
	case domain.StatusReady:
		s.Ready++
	case domain.StatusCollected:
		s.Collected++
	case domain.StatusRejected:
		s.Rejected++
	}
}

// QueueFilter narrows the worker queue
type QueueFilter struct {
	Status      *domain.Status
	RequestType *domain.RequestType
	From        *time.Time // submitted_at >= From
	To          *time.Time // submitted_at < To
	Search      string     // token number or roll number prefix
	Page        int
	PageSize    int
}
