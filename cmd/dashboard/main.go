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
	httpSwagger "github.com/swaggo/http-swagger"

	"study-dashboard/config"
	"study-dashboard/internal/dashboard"
	"study-dashboard/internal/gateway"
	"study-dashboard/internal/plot"
	"study-dashboard/internal/ws"

	_ "study-dashboard/docs" // Swagger docs
)

// @title Biometric Study Dashboard API
// @version 1.0
// @description API for browsing participant biometric time-series, heart-rate zones and adherence reports.
// @description
// @description Plots are paginated: adding a plot fetches the first page from the data gateway,
// @description and load-more appends subsequent pages. Heart-rate plots carry zone-band overlays.
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@studydashboard.local

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8090
// @BasePath /api
// @schemes http

func main() {
	log.Printf("[INFO] Starting dashboard server...")

	if err := godotenv.Load(); err != nil {
		log.Printf("[INFO] No .env file found, using environment")
	}

	cfg := config.Load()
	log.Printf("[INFO] Configuration loaded: port=%s gateway=%s timeout=%s",
		cfg.DashboardPort, cfg.GatewayBaseURL, cfg.RequestTimeout)

	client := gateway.NewClient(cfg.GatewayBaseURL, cfg.RequestTimeout)
	registry := plot.NewRegistry()
	selection := dashboard.NewSelectionController(registry)

	hub := ws.NewHub()
	go hub.Run()

	orchestrator := dashboard.NewOrchestrator(client, registry, selection, hub)
	httpHandler := dashboard.NewHTTPHandler(orchestrator, selection, registry)

	// The participant list and adherence report are fetched once at startup.
	// A gateway that is down at boot is not fatal; the dashboard starts with
	// empty lists and the operator can restart it once the gateway is up.
	startupCtx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()

	if participants, err := client.Users(startupCtx); err != nil {
		log.Printf("[WARN] Failed to fetch participants from gateway: %v", err)
	} else {
		httpHandler.SetParticipants(participants)
		log.Printf("[INFO] Loaded %d participants", len(participants))
	}

	if report, err := client.Adherence(startupCtx); err != nil {
		log.Printf("[WARN] Failed to fetch adherence report from gateway: %v", err)
	} else {
		httpHandler.SetReport(report)
		log.Printf("[INFO] Loaded adherence report with %d records", len(report))
	}

	router := mux.NewRouter()
	httpHandler.RegisterRoutes(router)
	router.HandleFunc("/ws", hub.HandleWebSocket)

	router.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	server := &http.Server{
		Addr:    ":" + cfg.DashboardPort,
		Handler: dashboard.CORS()(router),
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
