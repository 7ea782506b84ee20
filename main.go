package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"main/config"
	"main/handler"
	"main/middleware"
	"main/repository"
	"main/services"
	"main/usecase"
	"main/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
)

const maxRequestBodySize = 1 << 20 // 1 MiB

func init() {
	if err := godotenv.Load(); err != nil && os.Getenv("GO_ENV") != "test" {
		log.Printf("No .env file loaded: %v", err)
	}
	utils.InitValidator()
}

type application struct {
	dbCfg     config.DatabaseConfig
	srvCfg    config.ServerConfig
	client    *mongo.Client
	tasks     *usecase.TaskService
	users     *usecase.UserService
	sessions  *repository.SessionRepo
	scheduler *services.Scheduler
}

func setupRouter(app *application) *gin.Engine {
	router := gin.New()

	router.Use(middleware.EnhancedRecoveryMiddleware())
	router.Use(middleware.RequestTracingMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestSizeLimiter(maxRequestBodySize))
	router.Use(middleware.SessionMiddleware(app.sessions))

	authHandler := handler.NewAuthHandler(app.users, app.sessions, app.srvCfg)
	taskHandler := handler.NewTaskHandler(app.tasks)
	sessionHandler := handler.NewSessionHandler(app.sessions)
	statsHandler := handler.NewStatsHandler(app.users, app.tasks, app.sessions)
	healthHandler := handler.NewHealthHandler(app.client)

	router.GET("/health", healthHandler.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	public := router.Group("/api")
	{
		auth := public.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}
	}

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware())
	protected.Use(middleware.NoCacheMiddleware())
	{
		tasks := protected.Group("/tasks")
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("/calendar", taskHandler.Calendar)
			tasks.GET("/stats", taskHandler.GetTaskStats)
			tasks.POST("/:id/toggle", taskHandler.ToggleTask)
			tasks.PUT("/:id", taskHandler.ModifyTask)
			tasks.DELETE("/:id", taskHandler.DeleteTask)
		}

		user := protected.Group("/user")
		{
			user.GET("/profile", authHandler.GetProfile)
			user.GET("/stats", statsHandler.GetUserStats)
			user.POST("/logout", authHandler.Logout)
		}

		sessions := protected.Group("/sessions")
		{
			sessions.GET("/active", sessionHandler.GetActiveSessions)
			sessions.POST("/logout-all", sessionHandler.LogoutAllSessions)
		}
	}

	return router
}

func main() {
	dbCfg := config.LoadDatabaseConfig()
	srvCfg := config.LoadServerConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	client, err := repository.Connect(ctx, dbCfg)
	cancel()
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	err = repository.EnsureIndexes(ctx, client, dbCfg.DatabaseName)
	cancel()
	if err != nil {
		log.Fatalf("Failed to ensure indexes: %v", err)
	}

	if cache, err := services.NewSessionCache(srvCfg.RedisURL); err != nil {
		log.Printf("Session cache unavailable, continuing without it: %v", err)
	} else {
		services.GlobalSessionCache = cache
	}

	if blacklist, err := services.NewTokenBlacklist(srvCfg.RedisURL); err != nil {
		log.Printf("Token blacklist unavailable, continuing without it: %v", err)
	} else {
		services.TokenBlacklist = blacklist
	}

	if err := services.InitTokenService(srvCfg); err != nil {
		log.Fatalf("Failed to initialize token service: %v", err)
	}

	tasksRepo := repository.GetTasksRepo(client, dbCfg.DatabaseName)
	usersRepo := repository.GetUserRepo(client, dbCfg.DatabaseName)
	sessionRepo := repository.GetSessionRepo(client, dbCfg.DatabaseName)

	app := &application{
		dbCfg:    dbCfg,
		srvCfg:   srvCfg,
		client:   client,
		tasks:    usecase.NewTaskService(tasksRepo),
		users:    &usecase.UserService{UsersRepo: usersRepo},
		sessions: sessionRepo,
	}

	app.scheduler = services.NewScheduler(time.UTC)
	if _, err := app.scheduler.ScheduleInterval(srvCfg.SweepInterval, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		moved, err := app.tasks.SweepNow(ctx)
		if err != nil {
			log.Printf("Warning: background expiry sweep failed: %v", err)
			return
		}
		if moved > 0 {
			log.Printf("Expiry sweep moved %d tasks to expired", moved)
		}
	}); err != nil {
		log.Fatalf("Failed to schedule expiry sweep: %v", err)
	}
	app.scheduler.Start()

	router := setupRouter(app)

	srv := &http.Server{
		Addr:    ":" + srvCfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	sig := <-signalChan
	log.Printf("Caught signal %s, shutting down", sig)

	app.scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	if err := client.Disconnect(shutdownCtx); err != nil {
		log.Printf("MongoDB disconnect error: %v", err)
	}
	log.Println("Server shutdown complete")
}
