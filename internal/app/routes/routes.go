package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/servicedesk/internal/app/controllers"
	"github.com/yigit/servicedesk/internal/app/models"
	"github.com/yigit/servicedesk/internal/domain"
	"github.com/yigit/servicedesk/internal/middleware"
)

// Controllers bundles the handlers mounted by SetupRouter
type Controllers struct {
	Auth     *controllers.AuthController
	Catalog  *controllers.CatalogController
	Requests *controllers.RequestController
	Worker   *controllers.WorkerController
	Admin    *controllers.AdminController
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, c Controllers, authMiddleware *middleware.AuthMiddleware) {
	v1 := router.Group("/api/v1")

	// --- Public routes ---
	v1.GET("/health", c.Catalog.Health)
	v1.GET("/services", c.Catalog.ListServices)

	auth := v1.Group("/auth")
	{
		auth.POST("/students/register", c.Auth.RegisterStudent)
		auth.POST("/students/login", c.Auth.LoginStudent)
		auth.POST("/workers/register", c.Auth.RegisterWorker)
		auth.POST("/workers/login", c.Auth.LoginWorker)
	}

	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	// --- Student routes ---
	student := authenticated.Group("")
	student.Use(authMiddleware.PrincipalRequired(models.PrincipalStudent))
	{
		student.GET("/students/me", c.Auth.Me)
		student.GET("/requests", c.Requests.List)
		student.GET("/requests/:id", c.Requests.Get)
		student.POST("/requests/:type", c.Requests.Create)
	}

	// --- Worker routes ---
	worker := authenticated.Group("/worker")
	worker.Use(authMiddleware.PrincipalRequired(models.PrincipalWorker))
	{
		worker.GET("/requests", c.Worker.Queue)
		worker.GET("/requests/:id", c.Worker.Get)
		worker.POST("/requests/:id/start", c.Worker.Transition(domain.ActionStart))
		worker.POST("/requests/:id/ready", c.Worker.Transition(domain.ActionReady))
		worker.POST("/requests/:id/collect", c.Worker.Transition(domain.ActionCollect))
		worker.POST("/requests/:id/reject", c.Worker.Transition(domain.ActionReject))
	}

	// --- Admin routes ---
	admin := authenticated.Group("/admin")
	admin.Use(authMiddleware.RoleRequired(models.RoleAdmin))
	{
		admin.PATCH("/workers/:id/active", c.Admin.SetWorkerActive)
		admin.DELETE("/students/:id", c.Admin.DeleteStudent)
	}
}
