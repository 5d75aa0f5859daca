// Package main runs the ExpertCall appointment API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/expertcall/backend/config"
	"github.com/expertcall/backend/internal/appointments"
	"github.com/expertcall/backend/internal/auth"
	"github.com/expertcall/backend/internal/emails"
	"github.com/expertcall/backend/internal/guests"
	"github.com/expertcall/backend/internal/middleware"
	"github.com/expertcall/backend/internal/notify"
	"github.com/expertcall/backend/internal/session"
	"github.com/expertcall/backend/internal/worker"
	"github.com/expertcall/backend/internal/zego"
	"github.com/expertcall/backend/pkg/database"
	"github.com/expertcall/backend/pkg/queue"
	"github.com/expertcall/backend/pkg/redis"
	"github.com/expertcall/backend/pkg/response"
)

// zegoTokenValidSec bounds provider-side token validity; the cache TTL and
// access window are far shorter, so one hour is plenty.
const zegoTokenValidSec = 3600

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	redisPubSub := notify.NewRedisPubSub(rdb.Client, logger)
	hub := notify.NewHub(logger, redisPubSub, redisPubSub)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Auth and guests
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)
	guestRepo := guests.NewRepository(pool)
	guestHandler := guests.NewHandler(guestRepo, logger)

	// Appointments
	apptRepo := appointments.NewRepository(pool)
	transitionPolicy, err := appointments.NewTransitionPolicy()
	if err != nil {
		logger.Fatal("transition policy", zap.Error(err))
	}
	apptHandler := appointments.NewHandler(apptRepo, transitionPolicy, authRepo, guestRepo, jobQueue, hub, logger)

	// Call sessions
	minter, err := zego.NewMinter(cfg.Zego.AppID, cfg.Zego.ServerSecret, zegoTokenValidSec)
	if err != nil {
		logger.Fatal("call token provider", zap.Error(err))
	}
	sessionRepo := session.NewRepository(pool)
	issuer := session.NewIssuer(sessionRepo, minter, cfg.Appointment.CredentialTTL, cfg.Appointment.MintTimeout, logger)
	window := appointments.AccessWindow{
		Before: cfg.Appointment.AccessWindowBefore(),
		After:  cfg.Appointment.AccessWindowAfter(),
	}
	broker := session.NewBroker(apptRepo, issuer, window, nil, logger)
	sessionHandler := session.NewHandler(broker, logger)

	// Email log
	emailRepo := emails.NewRepository(pool)
	emailHandler := emails.NewHandler(emailRepo, apptRepo)
	emailSender := emails.NewSender(cfg.Email)
	emailProcessor := worker.NewEmailProcessor(emailSender, emailRepo, jobQueue, logger)

	jwtValidate := func(token string) (string, error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return "", err
		}
		return claims.UserID.String(), nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Guest identity (public) and guest-scoped appointment routes
	router.POST("/guests", guestHandler.Create)
	guestAPI := router.Group("/guest")
	guestAPI.Use(middleware.GuestHash(guestRepo))
	{
		guestAPI.POST("/appointments", apptHandler.Create)
		guestAPI.GET("/appointments", apptHandler.List)
		guestAPI.PUT("/appointments/status", apptHandler.UpdateStatus)
		guestAPI.GET("/appointments/:id/session-token", sessionHandler.GetToken)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		api.GET("/users", middleware.RequireRole("admin"), authHandler.List)

		api.POST("/appointments", apptHandler.Create)
		api.GET("/appointments", apptHandler.List)
		api.PUT("/appointments/status", apptHandler.UpdateStatus)
		api.GET("/appointments/:id/session-token", sessionHandler.GetToken)
		api.GET("/appointments/:id/emails", emailHandler.ListByAppointment)
	}

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws", notify.ServeWs(hub, logger, jwtValidate))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// In-process email worker; cmd/worker runs the same loop standalone.
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if emailSender.Enabled() {
		go emailProcessor.Run(workerCtx)
		logger.Info("email worker started")
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
