package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	rediscache "pronet-backend/internal/cache/redis"
	"pronet-backend/internal/common/config"
	"pronet-backend/internal/common/logger"
	"pronet-backend/internal/common/middleware"
	notifservice "pronet-backend/internal/features/notification/service"
	relhttp "pronet-backend/internal/features/relationship/delivery/http"
	reldynamo "pronet-backend/internal/features/relationship/repository/dynamo"
	relservice "pronet-backend/internal/features/relationship/service"
	userhttp "pronet-backend/internal/features/user/delivery/http"
	userdynamo "pronet-backend/internal/features/user/repository/dynamo"
	userservice "pronet-backend/internal/features/user/service"
	awsplatform "pronet-backend/internal/platform/aws"
	"pronet-backend/internal/platform/identity"
	redisplatform "pronet-backend/internal/platform/redis"
	"pronet-backend/internal/platform/storage"
)

const serviceName = "pronet-backend"

func main() {
	cfg := config.Load()

	logger.Init(serviceName, cfg.Debug)
	logger.Info().Bool("debug", cfg.Debug).Msg("Starting server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	awsClients, err := awsplatform.NewClients(ctx, cfg.AWS.Region, cfg.AWS.Endpoint)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize AWS clients")
	}

	redisClient, err := redisplatform.Open(ctx,
		fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	userRepository := userdynamo.NewUserRepository(awsClients.DynamoDB, cfg.AWS.UsersTable)
	edgeRepository := reldynamo.NewEdgeRepository(awsClients.DynamoDB, cfg.AWS.FollowsTable, cfg.AWS.ConnectionsTable)

	notifier := notifservice.NewSQSNotifier(awsClients.SQS, cfg.AWS.NotificationQueueURL)
	signer := storage.NewSigner(awsClients.S3, cfg.AWS.UploadBucket)

	userSvc := userservice.NewUserService(userRepository, signer)
	relationshipSvc := relservice.NewRelationshipService(edgeRepository, userRepository, notifier)

	verifier := identity.NewUserInfoVerifier(cfg.Auth.UserInfoURL)
	tokenCache := rediscache.NewTokenCache(redisClient, cfg.Auth.CacheTTL)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "Accept"}
	router.Use(cors.New(corsConfig))

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(verifier, tokenCache, userSvc))
	userhttp.NewUserHandler(userSvc).RegisterRoutes(v1)
	relhttp.NewRelationshipHandler(relationshipSvc).RegisterRoutes(v1)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		})
	})
	router.GET("/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "redis unavailable"})
			return
		}
		c.Status(http.StatusOK)
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}
