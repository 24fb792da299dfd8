package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/servicedesk/internal/app/models/dto"
	"github.com/yigit/servicedesk/internal/middleware"
)

// AuthController handles registration, login and the student profile
type AuthController struct {
	authService AuthService
	logger      zerolog.Logger
}

// NewAuthController creates a new AuthController
func NewAuthController(authService AuthService, logger zerolog.Logger) *AuthController {
	return &AuthController{
		authService: authService,
		logger:      logger,
	}
}

// RegisterStudent handles POST /auth/students/register
func (c *AuthController) RegisterStudent(ctx *gin.Context) {
	var req dto.StudentRegisterRequest
	if !middleware.BindJSON(ctx, &req) {
		c.logger.Warn().Msg("Invalid student registration payload")
		return
	}

	resp, err := c.authService.RegisterStudent(ctx.Request.Context(), &req)
	if err != nil {
		c.logger.Warn().Err(err).Str("rollNumber", req.RollNumber).Msg("Student registration failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(resp))
}

// LoginStudent handles POST /auth/students/login
func (c *AuthController) LoginStudent(ctx *gin.Context) {
	var req dto.LoginRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.authService.LoginStudent(ctx.Request.Context(), &req)
	if err != nil {
		c.logger.Warn().Err(err).Str("loginId", req.LoginID).Msg("Student login failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// RegisterWorker handles POST /auth/workers/register
func (c *AuthController) RegisterWorker(ctx *gin.Context) {
	var req dto.WorkerRegisterRequest
	if !middleware.BindJSON(ctx, &req) {
		c.logger.Warn().Msg("Invalid worker registration payload")
		return
	}

	resp, err := c.authService.RegisterWorker(ctx.Request.Context(), &req)
	if err != nil {
		c.logger.Warn().Err(err).Str("employeeId", req.EmployeeID).Msg("Worker registration failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(resp))
}

// LoginWorker handles POST /auth/workers/login
func (c *AuthController) LoginWorker(ctx *gin.Context) {
	var req dto.LoginRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.authService.LoginWorker(ctx.Request.Context(), &req)
	if err != nil {
		c.logger.Warn().Err(err).Str("loginId", req.LoginID).Msg("Worker login failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// Me returns the authenticated student's profile
func (c *AuthController) Me(ctx *gin.Context) {
	p, _ := middleware.GetPrincipal(ctx)

	student, err := c.authService.GetStudentProfile(ctx.Request.Context(), p.ID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(student))
}
