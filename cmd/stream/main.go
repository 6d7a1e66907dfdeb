// Package main runs the transaction stream: load the source dataset, sample
// a working set, connect to a destination backend, and fan synthesized
// events out to every destination table until stopped.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"payment-stream-lab/internal/config"
	"payment-stream-lab/internal/dataset"
	"payment-stream-lab/internal/observability"
	"payment-stream-lab/internal/sampling"
	"payment-stream-lab/internal/storage"
	cassstore "payment-stream-lab/internal/storage/cassandra"
	"payment-stream-lab/internal/storage/memory"
	pgstore "payment-stream-lab/internal/storage/postgres"
	"payment-stream-lab/internal/stream"
	"payment-stream-lab/internal/synth"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to YAML config file")
	backend := flag.String("backend", "", "Destination backend: memory, cassandra, postgres")
	source := flag.String("source", "", "Path to the source transaction CSV")
	hosts := flag.String("hosts", "", "Comma-separated Cassandra hosts")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	delay := flag.Duration("delay", 0, "Delay between events")
	capacity := flag.Int("capacity", 0, "Working set sample capacity")
	user := flag.String("user", "", "User identity stamped on every event")
	maxEvents := flag.Int64("max-events", 0, "Stop after N events (0 = run until cancelled)")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty to use config)")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[stream] ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	applyFlags(&cfg, *backend, *source, *hosts, *postgresDSN, *delay, *capacity, *user, *maxEvents, *metricsAddr)
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid config: %v", err)
	}

	metrics := observability.NewMetrics("")
	metrics.SetStreamDelay(cfg.Stream.Delay.Std())

	// Start metrics server if enabled
	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	// Load and sample the source dataset
	src, err := dataset.OpenCSV(cfg.Stream.SourcePath)
	if err != nil {
		logger.Fatalf("Failed to open source dataset: %v", err)
	}
	ws, err := sampling.Sample(src, cfg.Stream.SampleCapacity, nil)
	src.Close()
	if err != nil {
		logger.Fatalf("Failed to sample source dataset: %v", err)
	}
	logger.Printf("Sampled working set: %d records (capacity %d)", ws.Len(), cfg.Stream.SampleCapacity)
	metrics.SetWorkingSetSize(ws.Len())

	synthesizer, err := synth.New(synth.Options{
		WorkingSet: ws,
		UserID:     cfg.Stream.UserID,
		Rand:       rand.New(rand.NewSource(time.Now().UnixNano())),
	})
	if err != nil {
		logger.Fatalf("Failed to create synthesizer: %v", err)
	}

	connector, err := buildConnector(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to configure backend: %v", err)
	}

	driver, err := stream.NewDriver(stream.Options{
		Connector:       connector,
		Synthesizer:     synthesizer,
		ConnectAttempts: cfg.Connect.Attempts,
		ConnectDelay:    cfg.Connect.Delay.Std(),
		EventDelay:      cfg.Stream.Delay.Std(),
		MaxEvents:       cfg.Stream.MaxEvents,
		ReportEvery:     cfg.Stream.ReportEvery,
		HourlyRetention: cfg.Stream.HourlyRetention.Std(),
		Metrics:         metrics,
		Logger:          logger,
	})
	if err != nil {
		logger.Fatalf("Failed to create driver: %v", err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown signals with graceful timeout
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	summary, err := driver.Run(ctx)
	close(done)
	cancel()

	if err != nil {
		logger.Fatalf("Stream failed: %v", err)
	}
	logger.Printf("Stream stopped: %d events, %d writes (%d failed)",
		summary.Events, summary.Writes, summary.WriteErrors)
}

// applyFlags overlays non-zero flag values onto the config.
func applyFlags(cfg *config.Config, backend, source, hosts, postgresDSN string, delay time.Duration, capacity int, user string, maxEvents int64, metricsAddr string) {
	if backend != "" {
		cfg.Backend = backend
	}
	if source != "" {
		cfg.Stream.SourcePath = source
	}
	if hosts != "" {
		cfg.Cassandra.Hosts = splitHosts(hosts)
	}
	if postgresDSN != "" {
		cfg.Postgres.DSN = postgresDSN
	}
	if delay != 0 {
		cfg.Stream.Delay = config.Duration(delay)
	}
	if capacity > 0 {
		cfg.Stream.SampleCapacity = capacity
	}
	if user != "" {
		cfg.Stream.UserID = user
	}
	if maxEvents > 0 {
		cfg.Stream.MaxEvents = maxEvents
	}
	if metricsAddr != "" {
		cfg.MetricsAddr = metricsAddr
	}
}

func splitHosts(s string) []string {
	var out []string
	for _, h := range strings.Split(s, ",") {
		if h = strings.TrimSpace(h); h != "" {
			out = append(out, h)
		}
	}
	return out
}

// buildConnector returns a connector for the configured backend.
func buildConnector(cfg config.Config, logger *log.Logger) (stream.Connector, error) {
	switch cfg.Backend {
	case "memory":
		return stream.ConnectorFunc(func(ctx context.Context) (*storage.Destinations, func(), error) {
			return memory.NewDestinations(), func() {}, nil
		}), nil
	case "cassandra":
		return stream.ConnectorFunc(func(ctx context.Context) (*storage.Destinations, func(), error) {
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
		}), nil
	case "postgres":
		return stream.ConnectorFunc(func(ctx context.Context) (*storage.Destinations, func(), error) {
			pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
			if err != nil {
				return nil, nil, err
			}
			logger.Println("Connected to PostgreSQL")
			return pgstore.Destinations(pool), pool.Close, nil
		}), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
