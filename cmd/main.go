package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnknownOlympus/locus/internal/api"
	"github.com/UnknownOlympus/locus/internal/cache"
	"github.com/UnknownOlympus/locus/internal/config"
	"github.com/UnknownOlympus/locus/internal/events"
	"github.com/UnknownOlympus/locus/internal/geocoding"
	"github.com/UnknownOlympus/locus/internal/metrics"
	"github.com/UnknownOlympus/locus/internal/repository"
	"github.com/UnknownOlympus/locus/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

// pinger is a dependency checked by /healthz.
type pinger interface {
	Ping(ctx context.Context) error
}

// main is the entry point of the application.
func main() {
	// Create a context that will be canceled when an interrupt signal is received.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()
	logger := setupLogger(cfg.Env)

	// Create a separate registry for metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	dtb, err := repository.NewDatabase(
		ctx, cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name,
	)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer dtb.Close()

	repo := repository.NewRepository(dtb, logger)
	if err = repo.Migrate(ctx); err != nil {
		log.Fatalf("Failed to migrate DB: %v", err)
	}

	geoProvider, err := geocoding.NewProvider(geocoding.ProviderConfig{
		Type:      geocoding.ProviderType(cfg.Provider.Type),
		APIKey:    cfg.Provider.APIKey,
		BaseURL:   cfg.Provider.URL,
		UserAgent: cfg.Provider.UserAgent,
		RateLimit: cfg.Provider.RateLimit,
		Logger:    logger,
	})
	if err != nil {
		log.Fatalf("Failed to create geocoding provider: %v", err)
	}
	logger.InfoContext(ctx, "Geocoding provider initialized", "type", cfg.Provider.Type)

	checks := map[string]pinger{"database": dtb}

	geocodeCache, closeCache, err := setupCache(cfg.Cache)
	if err != nil {
		log.Fatalf("Failed to create geocode cache: %v", err)
	}
	defer closeCache()
	if p, ok := geocodeCache.(pinger); ok {
		checks["cache"] = p
	}

	geocoder := geocoding.NewGeocoder(geoProvider, geocoding.GeocoderConfig{
		ProviderName: cfg.Provider.Type,
		Qualifier:    cfg.RegionQualifier,
		Precision:    cfg.GeocodePrecision,
		Cache:        geocodeCache,
	}, appMetrics, logger)

	publisher := setupPublisher(ctx, logger, cfg.NATSURL)
	if closer, ok := publisher.(interface{ Close() }); ok {
		defer closer.Close()
	}

	directory := service.NewDirectoryService(
		logger,
		repo,
		geocoder,
		publisher,
		appMetrics,
		cfg.Workers,
		cfg.Interval,
		cfg.QuantizeDeviceLocation,
	)

	if cfg.Env != envLocal {
		gin.SetMode(gin.ReleaseMode)
	}
	apiServer := newServer(cfg.HTTPPort, api.NewRouter(api.NewHandler(directory, logger), cfg.CORSOrigins, logger))
	monitoringServer := newServer(cfg.HealthPort, monitoringHandler(ctx, logger, reg, checks))

	go serve(ctx, logger, "directory API", apiServer)
	go serve(ctx, logger, "monitoring", monitoringServer)
	go directory.Run(ctx)

	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.")

	// Wait for the context to be canceled (e.g., by Ctrl+C).
	<-ctx.Done()

	logger.InfoContext(ctx, "Shutdown signal received. Stopping application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, server := range []*http.Server{apiServer, monitoringServer} {
		if err = server.Shutdown(shutdownCtx); err != nil {
			logger.ErrorContext(shutdownCtx, "Server shutdown failed", "addr", server.Addr, "error", err)
		}
	}

	logger.InfoContext(shutdownCtx, "Application stopped gracefully.")
}

// setupCache builds the geocode cache selected by the configuration.
// The "none" backend returns a nil cache.
func setupCache(cfg config.CacheConfig) (geocoding.Cache, func(), error) {
	switch cfg.Backend {
	case "valkey":
		store, err := cache.NewValkey(cfg.ValkeyAddr, cfg.TTL)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case "none":
		return nil, func() {}, nil
	default:
		return cache.NewMemory(cfg.TTL), func() {}, nil
	}
}

// setupPublisher connects to NATS when a URL is configured. Registration keeps
// working without it, so a connection failure only disables events.
func setupPublisher(ctx context.Context, logger *slog.Logger, url string) events.Publisher {
	if url == "" {
		return events.Noop{}
	}

	publisher, err := events.NewNATSPublisher(url)
	if err != nil {
		logger.WarnContext(ctx, "NATS unavailable, registration events are disabled", "error", err)
		return events.Noop{}
	}

	return publisher
}

func newServer(port int, handler http.Handler) *http.Server {
	readTimeout := 5
	writeTimeout := 10

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  time.Duration(readTimeout) * time.Second,
		WriteTimeout: time.Duration(writeTimeout) * time.Second,
	}
}

func serve(ctx context.Context, log *slog.Logger, name string, server *http.Server) {
	log.InfoContext(ctx, "Starting server", "server", name, "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.ErrorContext(ctx, "Server failed", "server", name, "error", err)
	}
}

// monitoringHandler serves the health check and metrics endpoints.
//
// Parameters:
// - ctx: A context.Context for managing cancellation and timeouts.
// - log: A logger for logging server events and errors.
// - reg: A registry with Prometheus collectors.
// - checks: Dependencies pinged by /healthz, keyed by name.
func monitoringHandler(
	ctx context.Context,
	log *slog.Logger,
	reg *prometheus.Registry,
	checks map[string]pinger,
) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(writer http.ResponseWriter, req *http.Request) {
		log.DebugContext(ctx, "Performing health checks...")
		status, body := http.StatusOK, "OK"
		for name, check := range checks {
			if err := check.Ping(req.Context()); err != nil {
				status, body = http.StatusServiceUnavailable, name+" ping failed"
				break
			}
		}
		writer.WriteHeader(status)
		if _, err := writer.Write([]byte(body)); err != nil {
			log.ErrorContext(ctx, "failed to write reply", "error", err)
		}

		log.DebugContext(ctx, "Health checks completed", "status", status)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return mux
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:       slog.LevelWarn,
				ReplaceAttr: dropTime,
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:       slog.LevelError,
				ReplaceAttr: dropTime,
			}),
		)

		log.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}

func dropTime(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		return slog.Attr{}
	}
	return a
}
