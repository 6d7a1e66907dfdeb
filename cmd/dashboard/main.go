// Package main serves the analytics dashboard: poll the destination tables
// on an interval and expose the aggregated view over HTTP and WebSocket.
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

	"payment-stream-lab/internal/config"
	"payment-stream-lab/internal/dashboard"
	"payment-stream-lab/internal/observability"
	"payment-stream-lab/internal/storage"
	cassstore "payment-stream-lab/internal/storage/cassandra"
	"payment-stream-lab/internal/storage/memory"
	pgstore "payment-stream-lab/internal/storage/postgres"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to YAML config file")
	backend := flag.String("backend", "", "Destination backend: memory, cassandra, postgres")
	addr := flag.String("addr", "", "Dashboard HTTP address")
	pollInterval := flag.Duration("poll-interval", 0, "Poll interval for destination reads")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[dashboard] ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if *backend != "" {
		cfg.Backend = *backend
	}
	if *addr != "" {
		cfg.Dashboard.Addr = *addr
	}
	if *pollInterval > 0 {
		cfg.Dashboard.PollInterval = config.Duration(*pollInterval)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dest, closeFn, err := openDestinations(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to open backend: %v", err)
	}
	defer closeFn()

	metrics := observability.NewMetrics("")
	poller, err := dashboard.NewPoller(dashboard.PollerOptions{
		Destinations: dest,
		UserID:       cfg.Stream.UserID,
		Interval:     cfg.Dashboard.PollInterval.Std(),
		FeedLimit:    cfg.Dashboard.FeedLimit,
		Metrics:      metrics,
		Logger:       logger,
	})
	if err != nil {
		logger.Fatalf("Failed to create poller: %v", err)
	}
	go poller.Run(ctx)

	router := dashboard.NewServer(poller, logger).Router()
	router.Handle("/metrics", observability.Handler())

	server := &http.Server{Addr: cfg.Dashboard.Addr, Handler: router}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Printf("Shutdown error: %v", err)
		}
	}()

	logger.Printf("Dashboard listening on %s", cfg.Dashboard.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server error: %v", err)
	}
}

// openDestinations connects the configured backend for read-side polling.
func openDestinations(ctx context.Context, cfg config.Config, logger *log.Logger) (*storage.Destinations, func(), error) {
	switch cfg.Backend {
	case "memory":
		// Useful only for smoke-testing the API; memory state is per-process.
		return memory.NewDestinations(), func() {}, nil
	case "cassandra":
		session, err := cassstore.NewSession(cassstore.Config{
			Hosts:    cfg.Cassandra.Hosts,
			Port:     cfg.Cassandra.Port,
			Keyspace: cfg.Cassandra.Keyspace,
			Timeout:  cfg.Cassandra.Timeout.Std(),
		})
		if err != nil {
			return nil, nil, err
		}
		logger.Printf("Connected to Cassandra at %v", cfg.Cassandra.Hosts)
		return cassstore.Destinations(session), session.Close, nil
	case "postgres":
		pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, nil, err
		}
		logger.Println("Connected to PostgreSQL")
		return pgstore.Destinations(pool), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
