package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"fuel-economy/internal/common/camunda"
	"fuel-economy/internal/common/config"
	commonhttp "fuel-economy/internal/common/http"
	"fuel-economy/internal/common/logger"
	"fuel-economy/internal/common/observability"
	"fuel-economy/internal/fueleconomy"
	"fuel-economy/internal/render"

	rr "fuel-economy/internal/workers/fuel-economy/range-report"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "console", "").Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	obs := observability.New("worker-manager", nil)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Zeebe ---
	zeebe, err := camunda.Connect(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      time.Duration(cfg.Camunda.RequestTimeout) * time.Millisecond,
	}, log)
	if err != nil {
		zapLog.Fatal("zeebe connection failed", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Resolver tree ---
	tree := fueleconomy.New(
		commonhttp.NewClient(cfg.FuelEconomy.TimeoutDuration()),
		fueleconomy.Options{
			BaseURL:        cfg.FuelEconomy.BaseURL,
			MaxConcurrency: cfg.FuelEconomy.MaxConcurrency,
		},
		log,
	)
	aggregator := fueleconomy.NewAggregator(tree, obs, log)

	// --- Workers ---
	var workers []worker.JobWorker

	if wcfg := cfg.Workers[rr.TaskType]; wcfg.Enabled {
		workerCfg := rr.LoadConfig(wcfg)

		// Console sinks have no audience here; only stores are attached.
		if cfg.Render.Sink == config.SinkPostgres || cfg.Render.Sink == config.SinkElasticsearch {
			sink, err := render.New(ctx, cfg, nil, "", log)
			if err != nil {
				zapLog.Fatal("render sink init failed", zap.Error(err), zap.String("sink", cfg.Render.Sink))
			}
			defer sink.Close()
			workerCfg.Sink = sink
		}

		handler := rr.NewHandler(workerCfg, aggregator, log)
		if w := camunda.StartWorker(zeebe.GetClient(), rr.TaskType, wcfg, handler.Handle, log); w != nil {
			workers = append(workers, w)
		}
	} else {
		zapLog.Info("worker disabled", zap.String("taskType", rr.TaskType))
	}

	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status, code := "healthy", http.StatusOK
		if err := zeebe.HealthCheck(r.Context()); err != nil {
			status, code = "unhealthy", http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{
			"status": status,
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: cfg.Metrics.Address, Handler: mux}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Metrics.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Close()
		w.AwaitClose()
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping metrics server", zap.Error(err))
	}

	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}
