package controllers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/servicedesk/internal/app/models/dto"
	"github.com/yigit/servicedesk/internal/app/services"
	"github.com/yigit/servicedesk/internal/domain"
	"github.com/yigit/servicedesk/internal/middleware"
	"github.com/yigit/servicedesk/internal/pkg/apperrors"
)

// RequestController serves the student side of service requests
type RequestController struct {
	requestService RequestService
	logger         zerolog.Logger
}

// NewRequestController creates a new RequestController
func NewRequestController(requestService RequestService, logger zerolog.Logger) *RequestController {
	return &RequestController{
		requestService: requestService,
		logger:         logger,
	}
}

// Create handles POST /requests/:type. The form carries the payload fields by their json names,
// an optional "remarks" field and up to one file per document slot.
func (c *RequestController) Create(ctx *gin.Context) {
	p, _ := middleware.GetPrincipal(ctx)

	form, err := ctx.MultipartForm()
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		c.logger.Warn().Err(err).Msg("Invalid request form")
		middleware.HandleAPIError(ctx, apperrors.NewCustomError(apperrors.ErrBadRequest, "Invalid form data"))
		return
	}

	values := ctx.Request.PostForm
	if form != nil {
		values = form.Value
	}
	fields := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			fields[k] = v[0]
		}
	}
	remarks := fields["remarks"]
	delete(fields, "remarks")

	in := services.NewRequestInput{Type: ctx.Param("type"), Fields: fields, Remarks: remarks}
	if form != nil {
		for _, kind := range domain.DocumentKinds {
			headers := form.File[string(kind)]
			if len(headers) == 0 {
				continue
			}
			f, err := headers[0].Open()
			if err != nil {
				middleware.HandleAPIError(ctx, apperrors.NewFieldValidationError(string(kind), "Could not read uploaded file"))
				return
			}
			defer func(f multipart.File) { _ = f.Close() }(f)
			in.Documents = append(in.Documents, services.Upload{Kind: kind, Filename: headers[0].Filename, Content: f})
		}
	}

	req, err := c.requestService.CreateRequest(ctx.Request.Context(), p.ID, in)
	if err != nil {
		c.logger.Warn().Err(err).Int64("studentID", p.ID).Str("type", in.Type).Msg("Request submission failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("studentID", p.ID).Str("token", req.TokenNumber).Msg("Request submitted")
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.NewServiceRequestDetail(req)))
}

// List returns the student's requests with summary counts
func (c *RequestController) List(ctx *gin.Context) {
	p, _ := middleware.GetPrincipal(ctx)

	list, err := c.requestService.ListForStudent(ctx.Request.Context(), p.ID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(list))
}

// Get returns one of the student's own requests
func (c *RequestController) Get(ctx *gin.Context) {
	p, _ := middleware.GetPrincipal(ctx)

	id, err := parseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	detail, err := c.requestService.GetForStudent(ctx.Request.Context(), p.ID, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(detail))
}
