package fueleconomy

import (
	"context"
	stderrors "errors"
	"sort"
	"time"

	"fuel-economy/internal/common/errors"
	"fuel-economy/internal/common/logger"
	"fuel-economy/internal/common/metrics"
	"fuel-economy/internal/common/observability"
)

// Renderer receives the final, sorted records exactly once per aggregation.
// The context passed to Render carries the Query; see QueryFromContext.
type Renderer interface {
	Render(ctx context.Context, records []VariantRecord) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, records []VariantRecord) error

func (f RendererFunc) Render(ctx context.Context, records []VariantRecord) error {
	return f(ctx, records)
}

type Aggregator struct {
	makes  MakeFetcher
	obs    *observability.Observability
	logger logger.Logger
}

// NewAggregator builds an Aggregator. obs may be nil.
func NewAggregator(makes MakeFetcher, obs *observability.Observability, log logger.Logger) *Aggregator {
	return &Aggregator{makes: makes, obs: obs, logger: log}
}

// AggregateAndPresent resolves every variant of vehicleMake for year, sorts
// them by range (highest first) and hands them to renderer. If resolution
// fails the renderer is not called and the failure is returned.
func (a *Aggregator) AggregateAndPresent(ctx context.Context, year int, vehicleMake string, renderer Renderer) error {
	start := time.Now()
	log := a.logger.With(map[string]interface{}{"year": year, "make": vehicleMake})

	records, err := a.makes.FetchMakeVariants(ctx, year, vehicleMake)
	if err != nil {
		a.finish(ctx, vehicleMake, "fetch_failed", start, 0)
		log.WithError(err).Error("aggregation failed", nil)
		return err
	}

	SortByRange(records)

	renderCtx := WithQuery(ctx, Query{Year: year, Make: vehicleMake})
	if err := renderer.Render(renderCtx, records); err != nil {
		if !stderrors.As(err, new(*errors.StandardError)) {
			err = errors.NewRenderFailedError("renderer", err)
		}
		a.finish(ctx, vehicleMake, "render_failed", start, 0)
		log.WithError(err).Error("render failed", nil)
		return err
	}

	a.finish(ctx, vehicleMake, "success", start, len(records))
	log.Info("aggregation rendered", map[string]interface{}{
		"records":    len(records),
		"durationMs": time.Since(start).Milliseconds(),
	})
	return nil
}

func (a *Aggregator) finish(ctx context.Context, vehicleMake, status string, start time.Time, records int) {
	metrics.Aggregations.WithLabelValues(status).Inc()
	a.obs.RecordRun(ctx, vehicleMake, status, time.Since(start), records)
}

// SortByRange orders records by range, highest first. Equal ranges keep their
// relative order, so identical input always sorts identically.
func SortByRange(records []VariantRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Range > records[j].Range
	})
}
