/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the factory operations server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load environment configuration (with optional .env)
  2. Parse command-line flags (flags win over environment)
  3. Initialize SQLite store
  4. Build domain services and API handler
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: PORT env or 8080)
  -db      SQLite database path (default: DB_PATH env)
           Use ":memory:" for an in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/factory.db"

  # Run with in-memory database
  ./server -db=":memory:"

  # Run on different port
  ./server -port=3000

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Environment configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/factory-ops/api"
	"github.com/warp/factory-ops/config"
	"github.com/warp/factory-ops/inventory"
	"github.com/warp/factory-ops/payroll"
	"github.com/warp/factory-ops/production"
	"github.com/warp/factory-ops/recipe"
	"github.com/warp/factory-ops/reports"
	"github.com/warp/factory-ops/settings"
	"github.com/warp/factory-ops/store/sqlite"
)

func main() {
	cfg := config.Load()
	log := config.NewLogger(cfg)

	// Flags override the environment.
	port := flag.String("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	flag.Parse()

	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	defer store.Close()

	// Domain services all share the one store.
	inventorySvc := inventory.NewService(store, log)
	recipeReg := recipe.NewRegistry(store)
	engine := production.NewEngine(store, recipeReg, log)
	settingsSvc := settings.NewService(store)
	reportsSvc := reports.NewService(store, settingsSvc)
	payrollSvc := payroll.NewService(store, log)

	handler := api.NewHandler(inventorySvc, engine, recipeReg, reportsSvc, settingsSvc, payrollSvc, store, log)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("port", *port).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}

	log.Info("server stopped")
}
