package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/servicedesk/internal/app/models/dto"
	"github.com/yigit/servicedesk/internal/middleware"
)

// AdminController handles account management
type AdminController struct {
	adminService AdminService
	logger       zerolog.Logger
}

// NewAdminController creates a new AdminController
func NewAdminController(adminService AdminService, logger zerolog.Logger) *AdminController {
	return &AdminController{adminService: adminService, logger: logger}
}

// SetWorkerActive handles PATCH /admin/workers/:id/active
func (c *AdminController) SetWorkerActive(ctx *gin.Context) {
	p, _ := middleware.GetPrincipal(ctx)

	id, err := parseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	var req dto.SetActiveRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	worker, err := c.adminService.SetWorkerActive(ctx.Request.Context(), p.ID, id, *req.Active)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(worker))
}

// DeleteStudent handles DELETE /admin/students/:id
func (c *AdminController) DeleteStudent(ctx *gin.Context) {
	p, _ := middleware.GetPrincipal(ctx)

	id, err := parseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	if err := c.adminService.DeleteStudent(ctx.Request.Context(), p.ID, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SuccessResponse{Message: "Student deleted"}))
}
