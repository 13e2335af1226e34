package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"study-dashboard/config"
	"study-dashboard/internal/gatewaysrv"
)

func main() {
	log.Printf("[INFO] Starting data gateway...")

	if err := godotenv.Load(); err != nil {
		log.Printf("[INFO] No .env file found, using environment")
	}

	cfg := config.Load()
	log.Printf("[INFO] Configuration loaded: port=%s page_size=%d",
		cfg.GatewayPort, cfg.PageSize)

	var repo gatewaysrv.Repository
	if cfg.PostgresDSN != "" {
		pgRepo, err := gatewaysrv.NewPostgresRepository(cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("[FATAL] Failed to connect to PostgreSQL: %v", err)
		}
		defer pgRepo.Close()
		log.Printf("[INFO] Connected to PostgreSQL")
		repo = pgRepo
	} else {
		memRepo := gatewaysrv.NewMemoryRepository()
		gatewaysrv.SeedDemo(memRepo)
		log.Printf("[INFO] No POSTGRES_DSN set, serving seeded in-memory data")
		repo = memRepo
	}

	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Printf("[WARN] Redis unavailable, serving without cache: %v", err)
		} else {
			repo = gatewaysrv.NewCachedRepository(repo, redisClient, cfg.CacheTTL)
			log.Printf("[INFO] Connected to Redis, caching zones and adherence for %s", cfg.CacheTTL)
		}
		cancel()
	}

	handler := gatewaysrv.NewHandler(repo, cfg.PageSize)

	router := mux.NewRouter()
	handler.RegisterRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.GatewayPort,
		Handler: gatewaysrv.CORS()(router),
	}

	serverErrChan := make(chan error, 1)
	go func() {
		log.Printf("[INFO] HTTP server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrChan:
		log.Printf("[ERROR] Server error: %v", err)

	case sig := <-shutdownChan:
		log.Printf("[INFO] Received signal %v, starting graceful shutdown...", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] Graceful shutdown failed: %v", err)
		}

		log.Printf("[INFO] Graceful shutdown completed")
	}

	log.Printf("[INFO] Server stopped")
}
