package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yigit/servicedesk/internal/app/models/dto"
	"github.com/yigit/servicedesk/internal/domain"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// CatalogController serves public, unauthenticated data
type CatalogController struct {
	db Pinger
}

// NewCatalogController creates a new CatalogController; db may be nil
func NewCatalogController(db Pinger) *CatalogController {
	return &CatalogController{db: db}
}

// ListServices returns the services students can apply for
func (c *CatalogController) ListServices(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(domain.Catalog()))
}

// Health reports the API and database status
func (c *CatalogController) Health(ctx *gin.Context) {
	status := gin.H{"status": "ok", "database": "ok"}
	if c.db != nil {
		pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
		defer cancel()
		if err := c.db.Ping(pingCtx); err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
			ctx.JSON(http.StatusServiceUnavailable, status)
			return
		}
	}
	ctx.JSON(http.StatusOK, status)
}
