package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/servicedesk/internal/app/models/dto"
	"github.com/yigit/servicedesk/internal/pkg/apperrors"
	"github.com/yigit/servicedesk/internal/pkg/logger"
)

type errorMapping struct {
	target  error
	status  int
	code    dto.ErrorCode
	message string
}

// Checked in order; specific sentinels before the generic ones they may wrap.
var errorMappings = []errorMapping{
	{apperrors.ErrInvalidTransition, http.StatusConflict, dto.ErrorCodeInvalidTransition, "Invalid status transition"},
	{apperrors.ErrTokenCollision, http.StatusConflict, dto.ErrorCodeTokenCollision, "Could not allocate a token number, please retry"},
	{apperrors.ErrDailyLimitReached, http.StatusTooManyRequests, dto.ErrorCodeDailyLimit, "Daily request limit reached"},
	{apperrors.ErrRateLimited, http.StatusTooManyRequests, dto.ErrorCodeRateLimited, "Too many requests"},
	{apperrors.ErrUnsupportedDocument, http.StatusBadRequest, dto.ErrorCodeUnsupportedFile, "Unsupported document type"},
	{apperrors.ErrDocumentTooLarge, http.StatusBadRequest, dto.ErrorCodeFileTooLarge, "Document too large"},
	{apperrors.ErrUnknownRequestType, http.StatusBadRequest, dto.ErrorCodeUnknownService, "Unknown service"},
	{apperrors.ErrPasswordMismatch, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Passwords do not match"},
	{apperrors.ErrValidationFailed, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Validation failed"},
	{apperrors.ErrBadRequest, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Bad request"},
	{apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, "Invalid credentials"},
	{apperrors.ErrTokenExpired, http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Token expired"},
	{apperrors.ErrTokenInvalid, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid token"},
	{apperrors.ErrAccountDisabled, http.StatusForbidden, dto.ErrorCodeAccountDisabled, "Account is disabled"},
	{apperrors.ErrWorkerInactive, http.StatusForbidden, dto.ErrorCodeAccountDisabled, "Worker account is inactive"},
	{apperrors.ErrAdminRequired, http.StatusForbidden, dto.ErrorCodeForbidden, "Admin role required"},
	{apperrors.ErrCannotDeactivateSelf, http.StatusForbidden, dto.ErrorCodeForbidden, "Admins cannot deactivate themselves"},
	{apperrors.ErrPermissionDenied, http.StatusForbidden, dto.ErrorCodeForbidden, "Permission denied"},
	{apperrors.ErrRequestNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Service request not found"},
	{apperrors.ErrStudentNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Student not found"},
	{apperrors.ErrWorkerNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Worker not found"},
	{apperrors.ErrResourceNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Resource not found"},
	{apperrors.ErrEmailAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Email already exists"},
	{apperrors.ErrRollNumberExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Roll number already registered"},
	{apperrors.ErrEmployeeIDExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Employee ID already registered"},
	{apperrors.ErrResourceAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Resource already exists"},
	{apperrors.ErrConflict, http.StatusConflict, dto.ErrorCodeConflict, "Conflict"},
}

// HandleAPIError maps err onto a status code and error body.
// A CustomError contributes its message and details; unknown errors become 500.
func HandleAPIError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	detail := dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			status = m.status
			detail = dto.NewErrorDetail(m.code, m.message)
			break
		}
	}

	var custom *apperrors.CustomError
	if status != http.StatusInternalServerError && errors.As(err, &custom) {
		if custom.Message != "" {
			detail.Message = custom.Message
		}
		if len(custom.Details) > 0 {
			if field, ok := custom.Details["field"].(string); ok {
				detail.Field = field
			}
			detail.Details = custom.Details
		}
	}

	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", c.FullPath()).Msg("Unhandled error")
	}

	c.AbortWithStatusJSON(status, dto.NewErrorResponse(detail))
}
