package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"fuel-economy/internal/common/config"
	commonhttp "fuel-economy/internal/common/http"
	"fuel-economy/internal/common/logger"
	"fuel-economy/internal/common/observability"
	"fuel-economy/internal/fueleconomy"
	"fuel-economy/internal/render"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "config file (default: configs/config.yaml)")
	year := flag.Int("year", 0, "model year (overrides query.year)")
	vehicleMake := flag.String("make", "", "manufacturer (overrides query.make)")
	sink := flag.String("sink", "", "table, json, postgres or elasticsearch (overrides render.sink)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		return 1
	}
	if *year != 0 {
		cfg.Query.Year = *year
	}
	if *vehicleMake != "" {
		cfg.Query.Make = *vehicleMake
	}
	if *sink != "" {
		cfg.Render.Sink = *sink
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		return 1
	}

	// Logs go to stderr so stdout only carries the report.
	output := cfg.Logging.Output
	if output == "" || output == "stdout" {
		output = "stderr"
	}
	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	obs := observability.New("range-report", nil)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.FuelEconomy.TimeoutDuration())
	defer cancel()

	title := fmt.Sprintf("%d %s", cfg.Query.Year, cfg.Query.Make)
	renderer, err := render.New(ctx, cfg, os.Stdout, title, log)
	if err != nil {
		zapLog.Error("render sink init failed", zap.Error(err), zap.String("sink", cfg.Render.Sink))
		return 1
	}
	defer renderer.Close()

	tree := fueleconomy.New(
		commonhttp.NewClient(cfg.FuelEconomy.TimeoutDuration()),
		fueleconomy.Options{
			BaseURL:        cfg.FuelEconomy.BaseURL,
			MaxConcurrency: cfg.FuelEconomy.MaxConcurrency,
		},
		log,
	)
	aggregator := fueleconomy.NewAggregator(tree, obs, log)

	if err := aggregator.AggregateAndPresent(ctx, cfg.Query.Year, cfg.Query.Make, renderer); err != nil {
		zapLog.Error("range report failed", zap.Error(err))
		return 1
	}
	return 0
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}
