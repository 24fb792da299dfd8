package domain

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a service request.
type Status string

const (
	StatusSubmitted  Status = "Submitted"
	StatusInProgress Status = "In Progress"
	StatusReady      Status = "Ready"
	StatusCollected  Status = "Collected"
	StatusRejected   Status = "Rejected"
)

// AllStatuses lists the states in lifecycle order.
var AllStatuses = []Status{StatusSubmitted, StatusInProgress, StatusReady, StatusCollected, StatusRejected}

// ParseStatus accepts the stored form ("In Progress") and the URL form ("in_progress").
func ParseStatus(s string) (Status, bool) {
	switch s {
	case "Submitted", "submitted":
		return StatusSubmitted, true
	case "In Progress", "in_progress", "in-progress":
		return StatusInProgress, true
	case "Ready", "ready":
		return StatusReady, true
	case "Collected", "collected":
		return StatusCollected, true
	case "Rejected", "rejected":
		return StatusRejected, true
	}
	return "", false
}

// Terminal reports whether no further transitions are allowed from s.
func (s Status) Terminal() bool {
	return s == StatusCollected || s == StatusRejected
}

// Action is a worker command on a request.
type Action string

const (
	ActionStart   Action = "start"
	ActionReady   Action = "ready"
	ActionCollect Action = "collect"
	ActionReject  Action = "reject"
)

// Target returns the state an action moves a request into.
func (a Action) Target() (Status, bool) {
	switch a {
	case ActionStart:
		return StatusInProgress, true
	case ActionReady:
		return StatusReady, true
	case ActionCollect:
		return StatusCollected, true
	case ActionReject:
		return StatusRejected, true
	}
	return "", false
}

// CanTransition reports whether from -> to is an edge of the lifecycle graph.
func CanTransition(from, to Status) bool {
	if from.Terminal() {
		return false
	}
	switch to {
	case StatusRejected:
		return true
	case StatusInProgress:
		return from == StatusSubmitted
	case StatusReady:
		return from == StatusInProgress
	case StatusCollected:
		return from == StatusReady
	}
	return false
}

// TransitionError describes a rejected lifecycle move.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move request from %q to %q", e.From, e.To)
}

// Lifecycle is the mutable lifecycle part of a request.
type Lifecycle struct {
	Status      Status
	ProcessedBy *int64
	ProcessedAt *time.Time
	ReadyAt     *time.Time
	CollectedAt *time.Time
	Remarks     *string
	UpdatedAt   time.Time
}

// Apply moves l to `to`, stamping the matching timestamp with now.
// On an illegal move l is left untouched and a *TransitionError is returned.
func (l *Lifecycle) Apply(to Status, workerID int64, reason string, now time.Time) error {
	if !CanTransition(l.Status, to) {
		return &TransitionError{From: l.Status, To: to}
	}

	switch to {
	case StatusInProgress:
		l.ProcessedAt = &now
		l.ProcessedBy = &workerID
	case StatusReady:
		l.ReadyAt = &now
	case StatusCollected:
		l.CollectedAt = &now
	case StatusRejected:
		r := reason
		l.Remarks = &r
		if l.ProcessedBy == nil {
			l.ProcessedBy = &workerID
		}
	}

	l.Status = to
	l.UpdatedAt = now
	return nil
}

// Consistent reports whether the timestamps agree with the status.
func (l Lifecycle) Consistent() bool {
	switch l.Status {
	case StatusSubmitted:
		return l.ProcessedAt == nil && l.ReadyAt == nil && l.CollectedAt == nil
	case StatusInProgress:
		return l.ProcessedAt != nil && l.ReadyAt == nil && l.CollectedAt == nil
	case StatusReady:
		return l.ProcessedAt != nil && l.ReadyAt != nil && l.CollectedAt == nil
	case StatusCollected:
		return l.ProcessedAt != nil && l.ReadyAt != nil && l.CollectedAt != nil
	case StatusRejected:
		// Rejection keeps whatever stages were reached; collection never happened.
		if l.CollectedAt != nil {
			return false
		}
		return l.ReadyAt == nil || l.ProcessedAt != nil
	}
	return false
}
