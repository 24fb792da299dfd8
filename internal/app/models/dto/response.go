package dto

import "time"

// APIResponse is the envelope of every JSON response
type APIResponse struct {
	Success    bool            `json:"success"`
	Data       interface{}     `json:"data,omitempty"`
	Error      *ErrorDetail    `json:"error,omitempty"`
	Pagination *PaginationInfo `json:"pagination,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// NewSuccessResponse wraps data in a successful envelope
func NewSuccessResponse(data interface{}) APIResponse {
	return APIResponse{Success: true, Data: data, Timestamp: time.Now()}
}

// NewPaginatedResponse wraps a page of items
func NewPaginatedResponse(items interface{}, pagination PaginationInfo) APIResponse {
	return APIResponse{Success: true, Data: items, Pagination: &pagination, Timestamp: time.Now()}
}

// SuccessResponse represents a standard message-only response
type SuccessResponse struct {
	Message string `json:"message"`
}

// PaginationInfo describes the page returned by a list endpoint
type PaginationInfo struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	PageSize    int   `json:"pageSize"`
	TotalItems  int64 `json:"totalItems"`
}
