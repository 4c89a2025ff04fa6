/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the food balance sheet server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize SQLite store
  3. Optionally seed the demo dataset
  4. Create API handler and router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite database path (default: foodbalance.db)
           Use ":memory:" for an in-memory database
  -seed    Load the demo dataset on startup if it is missing

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/foodbalance.db"

  # Run in-memory with demo data
  ./server -db=":memory:" -seed

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/arable/foodbalance/api"
	"github.com/arable/foodbalance/dataset"
	"github.com/arable/foodbalance/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "foodbalance.db", "SQLite database path")
	seed := flag.Bool("seed", false, "load the demo dataset on startup if missing")
	flag.Parse()

	log := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(log)

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Error("failed to initialize database", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	if *seed {
		if err := seedIfMissing(context.Background(), store); err != nil {
			log.Error("failed to seed demo dataset", "err", err)
			os.Exit(1)
		}
	}

	// Handler and router
	handler := api.NewHandler(store, log)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server starting", "addr", fmt.Sprintf("http://localhost:%d", *port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "err", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}

func seedIfMissing(ctx context.Context, store dataset.Store) error {
	_, err := store.GetDataset(ctx, api.DemoDatasetID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, dataset.ErrNotFound) {
		return err
	}
	sheet, err := api.DemoSheet()
	if err != nil {
		return err
	}
	return store.SaveDataset(ctx, dataset.Dataset{
		ID:          api.DemoDatasetID,
		Name:        "UK demo balance sheet",
		Description: "Synthetic national balance sheet, 2020 base year carried to 2050",
		CreatedAt:   time.Now().UTC(),
		Sheet:       sheet,
	})
}
