package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskapi/internal/auth"
	"taskapi/internal/config"
	"taskapi/internal/database"
	"taskapi/internal/handler"
	"taskapi/internal/logging"
	"taskapi/internal/middleware"
	"taskapi/internal/model"
	"taskapi/internal/repository"
	"taskapi/internal/service"
	"taskapi/internal/storage"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

type Server struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Config *config.Config
}

// Services are the application services the router dispatches to.
type Services struct {
	Auth        handler.AuthService
	Authn       middleware.Authenticator
	Tasks       handler.TaskService
	Attachments handler.AttachmentService
	Users       handler.UserService
}

func Init(cfg *config.Config) (*Server, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}

	// Storage
	local, err := storage.NewLocalStore(cfg.Upload.Dir, cfg.PublicBaseURL+"/files")
	if err != nil {
		return nil, err
	}
	blobs := storage.NewBreakerStore(local, cfg.BlobBreaker.MaxFailures, cfg.BlobBreaker.Timeout)

	// Services
	store := repository.NewStore(db)
	authService := service.NewAuthService(store.Users, store.RefreshTokens, auth.NewTokenIssuer(cfg.JWT))
	services := Services{
		Auth:        authService,
		Authn:       authService,
		Tasks:       service.NewTaskService(store.Users, store.Tasks),
		Attachments: service.NewAttachmentService(store, store.Tasks, store.Attachments, blobs),
		Users:       service.NewUserService(store.Users),
	}

	return &Server{
		Engine: NewRouter(cfg, services, local.Root()),
		DB:     db,
		Config: cfg,
	}, nil
}

// NewRouter registers every route. filesDir is served under /files.
func NewRouter(cfg *config.Config, svc Services, filesDir string) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	handler.RegisterValidators()

	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery(), middleware.ErrorHandler())

	authHandler := handler.NewAuthHandler(svc.Auth)
	taskHandler := handler.NewTaskHandler(svc.Tasks)
	attachmentHandler := handler.NewAttachmentHandler(svc.Attachments, cfg.Upload.MaxSizeBytes)
	userHandler := handler.NewUserHandler(svc.Users)

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Task API is running"})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.Static("/files", filesDir)

	api := r.Group("/api")
	requireAuth := middleware.JWTAuthMiddleware(svc.Authn)
	staff := middleware.RequireRoles(model.RoleAdmin, model.RoleManager)
	adminOnly := middleware.RequireRoles(model.RoleAdmin)

	// Public routes
	limiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", limiter.Middleware(), authHandler.Register)
		authRoutes.POST("/login", limiter.Middleware(), authHandler.Login)
		authRoutes.POST("/refresh-token", authHandler.Refresh)
		authRoutes.POST("/logout", requireAuth, authHandler.Logout)
	}

	// Protected routes
	authorized := api.Group("")
	authorized.Use(requireAuth)
	{
		authorized.POST("/tasks", staff, taskHandler.Create)
		authorized.GET("/tasks", taskHandler.GetAll)
		authorized.GET("/tasks/:id", taskHandler.GetByID)
		authorized.PATCH("/tasks/:id", staff, taskHandler.Update)
		authorized.DELETE("/tasks/:id", staff, taskHandler.Delete)

		authorized.POST("/tasks/:id/attachments", attachmentHandler.Upload)
		authorized.DELETE("/attachments/:id", attachmentHandler.Delete)

		authorized.GET("/users", adminOnly, userHandler.GetAll)
		authorized.GET("/users/:id", staff, userHandler.GetByID)
		authorized.DELETE("/users/:id", adminOnly, userHandler.Delete)
	}

	return r
}

func (s *Server) Run() {
	srv := &http.Server{
		Addr:    ":" + s.Config.ServerPort,
		Handler: s.Engine,
	}

	go func() {
		logging.Logger.Infof("Event ID: SERVER_STARTED, Description: Server running on port %s", s.Config.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Logger.Fatalf("Event ID: SERVER_LISTEN_FAILED, Description: Failed to listen: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Logger.Info("Event ID: SERVER_STOPPING, Description: Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.Logger.Fatalf("Event ID: SERVER_SHUTDOWN_FAILED, Description: Server forced to shutdown: %v", err)
	}

	if sqlDB, err := s.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logging.Logger.Info("Event ID: SERVER_STOPPED, Description: Server exited properly")
}
