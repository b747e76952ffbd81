/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the commission engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Load the civil timezone
  3. Initialize SQLite store
  4. Create API handler with dependencies
  5. Start the expiry sweeper
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite database path (default: commission.db)
           Use ":memory:" for in-memory database
  -tz      IANA timezone for civil-day boundaries (default: Asia/Shanghai)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the sweeper
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/commission.db"

  # Run with in-memory database
  ./server -db=":memory:"

  # Run with UTC day boundaries
  ./server -tz="UTC"

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/commission-engine/api"
	"github.com/warp/commission-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "commission.db", "SQLite database path")
	tz := flag.String("tz", "Asia/Shanghai", "IANA timezone for civil-day boundaries")
	flag.Parse()

	// Timezone drives today/month rollup windows and reminder days
	loc, err := time.LoadLocation(*tz)
	if err != nil {
		log.Fatalf("Failed to load timezone %q: %v", *tz, err)
	}

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Initialize handler
	handler := api.NewHandler(store, loc)

	// Create router
	router := api.NewRouter(handler)

	// Start expiry sweeper
	sweeper := api.NewExpirySweeper(handler)
	sweeper.Start()
	defer sweeper.Stop()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%d", *port)
		log.Printf("📊 API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
