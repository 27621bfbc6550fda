package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"teambingo/internal/cache"
	"teambingo/internal/config"
	"teambingo/internal/repository"
	"teambingo/internal/service"
	"teambingo/internal/transport/rest"
	"teambingo/internal/transport/ws"
)

func main() {
	log.Println("started")
	ctx := context.Background()

	cfg := config.Load()

	// Load AI config and log model settings
	aiConfig := config.DefaultAIConfig()
	log.Printf("AI Config:")
	log.Printf("  Eval:   %s", aiConfig.Models.Eval)
	log.Printf("  Report: %s", aiConfig.Models.Report)
	if aiConfig.IsEnabled() {
		log.Println("  API Key: configured ✓")
	} else {
		log.Println("  API Key: NOT SET (using fallback evaluator)")
	}

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(ctx)

	// Ping MongoDB
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB:", err)
	}
	log.Println("Connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	redisAddr := cfg.RedisAddr
	// Remove redis:// prefix if present
	if len(redisAddr) > 8 && redisAddr[:8] == "redis://" {
		redisAddr = redisAddr[8:]
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})
	defer rdb.Close()

	// Ping Redis
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	log.Println("Connected to Redis")

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	// Initialize repositories
	sessionRepo := repository.NewSessionRepo(db)
	roundRepo := repository.NewRoundRepo(db)
	cardRepo := repository.NewCardRepo(db)
	reportRepo := repository.NewReportRepo(db)

	// Initialize caches
	sessionCache := cache.NewSessionCache(rdb)
	stateCache := cache.NewGameStateCache(rdb)
	leaderboard := cache.NewLeaderboardCache(rdb)
	metrics := cache.NewMetricsCache(rdb)

	// Initialize services
	authSvc := service.NewAuthService()
	evaluator := service.NewEvaluatorService()
	sessionSvc := service.NewSessionService(sessionRepo, cardRepo, roundRepo, sessionCache, stateCache, leaderboard, metrics, authSvc)
	gameSvc := service.NewGameService(sessionRepo, roundRepo, sessionCache, stateCache, leaderboard, metrics, evaluator)
	reportSvc := service.NewReportService(sessionRepo, roundRepo, reportRepo, stateCache, metrics)

	// Inject broadcaster (wsHub implements service.Broadcaster)
	sessionSvc.SetBroadcaster(wsHub)
	gameSvc.SetBroadcaster(wsHub)

	// Create router with container
	container := &rest.Container{
		AuthService:    authSvc,
		SessionService: sessionSvc,
		GameService:    gameSvc,
		ReportService:  reportSvc,
		Leaderboard:    leaderboard,
		StateCache:     stateCache,
		WSHub:          wsHub,
	}

	router := rest.NewRouter(container)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.HTTPPort)
		log.Println("Endpoints:")
		log.Println("  POST /v1/auth/login")
		log.Println("  POST/GET /v1/sessions")
		log.Println("  POST /v1/join/{accessCode}")
		log.Println("  POST /v1/sessions/{sessionId}/game/start")
		log.Println("  GET  /v1/sessions/{sessionId}/game/state")
		log.Println("  GET/POST /v1/reports/{sessionId}")
		log.Println("  WS  /v1/ws/sessions/{sessionId}/admin")
		log.Println("  WS  /v1/ws/sessions/{sessionId}/team")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
