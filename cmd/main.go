package main

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"taskhub-service/internal/handler"
	"taskhub-service/internal/middleware"
	"taskhub-service/internal/service"
	"taskhub-service/internal/store"
	"taskhub-service/pkg/config"
	"taskhub-service/pkg/database"
	"taskhub-service/pkg/hash"
	"taskhub-service/pkg/jwtutil"
	"taskhub-service/pkg/logger"
	"taskhub-service/prometheus"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	if err := logger.Init(&logger.Config{Level: cfg.Log.Level, Environment: cfg.Server.Env}); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	log.Info("Starting taskhub service...", cfg.LogConfig()...)

	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Wire the kernel: store -> services -> handlers. Everything takes
	// its collaborators explicitly; there is no ambient handle.
	st := store.New(db)
	tokens := jwtutil.New(&cfg.JWT)
	hasher := hash.NewBcrypt()

	authSvc := service.NewAuthService(st, hasher, tokens, log)
	tenantSvc := service.NewTenantService(st, hasher, log)
	userSvc := service.NewUserService(st, hasher, log)
	projectSvc := service.NewProjectService(st, log)
	taskSvc := service.NewTaskService(st, log)

	authHandler := handler.NewAuthHandler(authSvc, tenantSvc)
	userHandler := handler.NewUserHandler(userSvc)
	projectHandler := handler.NewProjectHandler(projectSvc)
	taskHandler := handler.NewTaskHandler(taskSvc)
	adminHandler := handler.NewAdminHandler(tenantSvc)

	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestID)
	e.Use(logger.Middleware())
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)
	e.POST("/api/auth/register-tenant", authHandler.RegisterTenant)
	e.POST("/api/auth/login", authHandler.Login)

	// API routes - all require authentication
	api := e.Group("/api")
	api.Use(middleware.Auth(tokens))

	api.GET("/auth/me", authHandler.Me)

	// Tenant user management
	api.POST("/tenants/:tenantId/users", userHandler.Add)
	api.GET("/tenants/:tenantId/users", userHandler.List)
	api.PATCH("/users/:id", userHandler.Update)
	api.DELETE("/users/:id", userHandler.Delete)

	// Projects
	api.POST("/projects", projectHandler.Create)
	api.GET("/projects", projectHandler.List)
	api.GET("/projects/:id", projectHandler.Get)
	api.PATCH("/projects/:id", projectHandler.Update)
	api.DELETE("/projects/:id", projectHandler.Delete)

	// Tasks
	api.POST("/projects/:projectId/tasks", taskHandler.Create)
	api.GET("/projects/:projectId/tasks", taskHandler.List)
	api.PATCH("/tasks/:id", taskHandler.Update)
	api.PATCH("/tasks/:id/status", taskHandler.UpdateStatus)
	api.DELETE("/tasks/:id", taskHandler.Delete)

	// Super-admin tenant administration
	api.GET("/admin/tenants", adminHandler.ListTenants)
	api.PATCH("/admin/tenants/:id/status", adminHandler.SetTenantStatus)

	log.Info("Starting server", zap.String("port", cfg.Server.Port))
	if err := e.Start(":" + cfg.Server.Port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
