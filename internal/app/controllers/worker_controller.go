package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/servicedesk/internal/app/models"
	"github.com/yigit/servicedesk/internal/app/models/dto"
	"github.com/yigit/servicedesk/internal/domain"
	"github.com/yigit/servicedesk/internal/middleware"
	"github.com/yigit/servicedesk/internal/pkg/apperrors"
	"github.com/yigit/servicedesk/internal/pkg/helpers"
)

// WorkerController serves the processing queue and status changes
type WorkerController struct {
	requestService   RequestService
	lifecycleService LifecycleService
	location         *time.Location
	logger           zerolog.Logger
}

// NewWorkerController creates a new WorkerController; loc interprets the queue date filters
func NewWorkerController(requestService RequestService, lifecycleService LifecycleService, loc *time.Location, logger zerolog.Logger) *WorkerController {
	if loc == nil {
		loc = time.Local
	}
	return &WorkerController{
		requestService:   requestService,
		lifecycleService: lifecycleService,
		location:         loc,
		logger:           logger,
	}
}

// parseQueueFilter reads status, type, from, to (inclusive dates), q, page and size
func (c *WorkerController) parseQueueFilter(ctx *gin.Context) (models.QueueFilter, error) {
	var f models.QueueFilter
	f.Page, f.PageSize = helpers.ParsePaginationParams(ctx)
	f.Search = strings.TrimSpace(ctx.Query("q"))

	if s := ctx.Query("status"); s != "" {
		status, ok := domain.ParseStatus(s)
		if !ok {
			return f, apperrors.NewFieldValidationError("status", "Unknown status "+s)
		}
		f.Status = &status
	}
	if s := ctx.Query("type"); s != "" {
		t, ok := domain.ParseRequestType(s)
		if !ok {
			return f, apperrors.NewFieldValidationError("type", "Unknown service "+s)
		}
		f.RequestType = &t
	}

	from, err := helpers.ParseDate(ctx.Query("from"), c.location)
	if err != nil {
		return f, apperrors.NewFieldValidationError("from", "from must be a date in YYYY-MM-DD format")
	}
	f.From = from

	to, err := helpers.ParseDate(ctx.Query("to"), c.location)
	if err != nil {
		return f, apperrors.NewFieldValidationError("to", "to must be a date in YYYY-MM-DD format")
	}
	if to != nil {
		end := to.AddDate(0, 0, 1)
		f.To = &end
	}
	return f, nil
}

// Queue lists requests for processing, oldest first
func (c *WorkerController) Queue(ctx *gin.Context) {
	filter, err := c.parseQueueFilter(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	reqs, page, err := c.requestService.ListQueue(ctx.Request.Context(), filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewPaginatedResponse(reqs, page))
}

// Get returns any request with student details and timeline
func (c *WorkerController) Get(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	detail, err := c.requestService.GetForWorker(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(detail))
}

// Transition returns the handler applying action; the JSON body with remarks is optional
func (c *WorkerController) Transition(action domain.Action) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		p, _ := middleware.GetPrincipal(ctx)

		id, err := parseIDParam(ctx, "id")
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}

		var body dto.TransitionRequest
		if ctx.Request.ContentLength != 0 {
			if !middleware.BindJSON(ctx, &body) {
				return
			}
		}

		detail, err := c.lifecycleService.Transition(ctx.Request.Context(), p.ID, id, action, body.Remarks)
		if err != nil {
			c.logger.Warn().Err(err).Int64("requestID", id).Str("action", string(action)).Msg("Transition failed")
			middleware.HandleAPIError(ctx, err)
			return
		}

		ctx.JSON(http.StatusOK, dto.NewSuccessResponse(detail))
	}
}
