// cmd/sync/main.go
package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/andresuchdata/demand-planner/internal/cache"
	"github.com/andresuchdata/demand-planner/internal/config"
	"github.com/andresuchdata/demand-planner/internal/source/stocksheet"
	"github.com/andresuchdata/demand-planner/pkg/logger"
)

// The sync service exposes the stock spreadsheet directly: listing tabs,
// serving the parsed snapshot, and forcing a cache refresh. It runs next to
// the main API so spreadsheet maintenance never touches planning traffic.
func main() {
	// Load environment variables from .env file if it exists
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()
	logger.SetLevel(cfg.Server.Mode)

	// Initialize the spreadsheet source
	svc, err := stocksheet.NewService(cfg.Sources)
	if err != nil {
		log.Fatalf("Failed to initialize stock sheet source: %v", err)
	}

	stockCache, err := cache.NewStockCache(cfg.Cache)
	if err != nil {
		log.Fatalf("Failed to initialize stock cache: %v", err)
	}

	// Create router
	r := mux.NewRouter()

	// Register routes
	handler := stocksheet.NewHandler(svc, stockCache)
	handler.RegisterRoutes(r)

	// Health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Sync service starting on %s\n", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}
