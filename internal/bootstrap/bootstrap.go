package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	appControllers "github.com/yigit/servicedesk/internal/app/controllers"
	appMigrations "github.com/yigit/servicedesk/internal/app/migrations"
	appRepos "github.com/yigit/servicedesk/internal/app/repositories"
	appRoutes "github.com/yigit/servicedesk/internal/app/routes"
	appServices "github.com/yigit/servicedesk/internal/app/services"
	"github.com/yigit/servicedesk/internal/config"
	"github.com/yigit/servicedesk/internal/db"
	appMiddleware "github.com/yigit/servicedesk/internal/middleware"
	pkgAuth "github.com/yigit/servicedesk/internal/pkg/auth"
	"github.com/yigit/servicedesk/internal/pkg/email"
	"github.com/yigit/servicedesk/internal/pkg/events"
	"github.com/yigit/servicedesk/internal/pkg/filestorage"
	"github.com/yigit/servicedesk/internal/pkg/helpers"
	"github.com/yigit/servicedesk/internal/pkg/logger"
	"github.com/yigit/servicedesk/internal/pkg/ratelimit"
	"github.com/yigit/servicedesk/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos          *appRepos.Repositories
	Services       *appServices.Services
	Controllers    appRoutes.Controllers
	AuthMiddleware *appMiddleware.AuthMiddleware
	JWTService     *pkgAuth.JWTService
	FileStorage    *filestorage.LocalStorage
	Redis          *redis.Client
	Publisher      events.Publisher
	Logger         zerolog.Logger
}

// Close releases the optional Redis client and the event publisher
func (d *Dependencies) Close() {
	if d.Publisher != nil {
		if err := d.Publisher.Close(); err != nil {
			d.Logger.Warn().Err(err).Msg("Failed to close event publisher")
		}
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Warn().Err(err).Msg("Failed to close redis client")
		}
	}
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
// CONFIG_PATH overrides the default configs/config.yaml.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = filepath.Join("configs", "config.yaml")
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	lgr := logger.Configure(logger.Config{
		Level:   logLevel,
		Pretty:  strings.ToLower(cfg.Logging.Format) == "text",
		Service: "servicedesk",
	})

	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection, runs migrations and seeds the admin account.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	dbPool := database.Pool
	lgr.Info().Msg("Database connection successfully established.")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	migrationsDir := cfg.Database.MigrationsDir
	if migrationsDir == "" {
		migrationsDir = "migrations"
	}
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		dbPool.Close()
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	lgr.Info().Str("dir", migrationsDir).Msg("Running database migrations...")
	if err := appMigrations.NewMigrator(dbPool, lgr).MigrateFromDirectory(ctx, migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		dbPool.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	if err := seed.EnsureAdmin(ctx, appRepos.NewWorkerRepository(dbPool), seed.AdminAccount{
		EmployeeID: cfg.Seed.AdminEmployeeID,
		Email:      cfg.Seed.AdminEmail,
		Password:   cfg.Seed.AdminPassword,
	}, lgr); err != nil {
		// Startup continues; an admin can still be promoted by hand
		lgr.Error().Err(err).Msg("Failed to seed admin account, proceeding anyway...")
	}

	return dbPool, nil
}

// BuildDependencies initializes repositories, services, controllers and the optional Redis/AMQP clients.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(dbPool)

	var err error
	deps.FileStorage, err = filestorage.NewLocalStorage(cfg.Storage.Path, cfg.MaxUploadBytes(), cfg.Storage.AllowedTypes)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize file storage")
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 168*time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})

	var (
		loginAttempts *ratelimit.Attempts
		cooldown      *ratelimit.Cooldown
	)
	if cfg.Redis.Enabled {
		deps.Redis = ratelimit.NewRedisClient(context.Background(), ratelimit.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if deps.Redis != nil {
			loginAttempts = ratelimit.NewAttempts(deps.Redis, "login", cfg.Redis.LoginAttempts,
				helpers.ParseDuration(cfg.Redis.LoginWindow, 15*time.Minute))
			cooldown = ratelimit.NewCooldown(deps.Redis, "submit",
				helpers.ParseDuration(cfg.Requests.SubmissionCooldown, 10*time.Second))
		}
	}

	if cfg.RabbitMQ.Enabled {
		deps.Publisher = events.NewAMQPPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		lgr.Info().Str("exchange", cfg.RabbitMQ.Exchange).Msg("Publishing request events to RabbitMQ")
	} else {
		deps.Publisher = events.NoopPublisher{}
	}

	notifier := email.NewNotifier(email.SMTPConfig{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromName:  cfg.SMTP.FromName,
		FromEmail: cfg.SMTP.FromEmail,
	}, lgr)

	loc := cfg.Location()
	deps.Services = &appServices.Services{
		Auth: appServices.NewAuthService(deps.Repos.Students, deps.Repos.Workers, deps.JWTService, loginAttempts, lgr),
		Requests: appServices.NewRequestService(deps.Repos.Requests, deps.FileStorage, cooldown, deps.Publisher,
			appRepos.CreateOptions{
				TokenAttempts: cfg.Requests.TokenAttempts,
				DailyLimit:    cfg.Requests.DailyConcessionLimit,
				Location:      loc,
			}, lgr),
		Lifecycle: appServices.NewLifecycleService(deps.Repos.Requests, deps.Publisher, notifier, lgr),
		Admin:     appServices.NewAdminService(deps.Repos.Students, deps.Repos.Workers, deps.Repos.Requests, deps.FileStorage, lgr),
	}

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	deps.Controllers = appRoutes.Controllers{
		Auth:     appControllers.NewAuthController(deps.Services.Auth, lgr),
		Catalog:  appControllers.NewCatalogController(dbPool),
		Requests: appControllers.NewRequestController(deps.Services.Requests, lgr),
		Worker:   appControllers.NewWorkerController(deps.Services.Requests, deps.Services.Lifecycle, loc, lgr),
		Admin:    appControllers.NewAdminController(deps.Services.Admin, lgr),
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	if err := appMiddleware.RegisterValidators(); err != nil {
		lgr.Error().Err(err).Msg("Failed to register custom validators")
	}

	router := gin.New()
	router.Use(gin.Recovery(), appMiddleware.RequestLogger(lgr))

	origins := cfg.CORS.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Multipart bodies beyond this spill to temp files
	router.MaxMultipartMemory = cfg.MaxUploadBytes()

	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware)

	return router
}
