// Package fueleconomy resolves every variant of a make/year from the EPA fuel
// economy REST API: make -> models -> variant ids -> detail records.
package fueleconomy

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fuel-economy/internal/common/logger"
	"fuel-economy/internal/common/metrics"
)

// Fetcher returns the body of a successful GET, or a FETCH_FAILED error.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// VariantFetcher resolves one variant identifier.
type VariantFetcher interface {
	FetchVariant(ctx context.Context, id string) (VariantRecord, error)
}

// ModelFetcher resolves every variant of one model.
type ModelFetcher interface {
	FetchModelVariants(ctx context.Context, year int, vehicleMake, model string) ([]VariantRecord, error)
}

// MakeFetcher resolves every variant of every model of a make.
type MakeFetcher interface {
	FetchMakeVariants(ctx context.Context, year int, vehicleMake string) ([]VariantRecord, error)
}

// Options configures the resolver tree.
type Options struct {
	BaseURL        string
	MaxConcurrency int
}

// Endpoints builds the data source URLs.
type Endpoints struct {
	BaseURL string
}

func (e Endpoints) ModelMenu(year int, vehicleMake string) string {
	q := url.Values{}
	q.Set("year", strconv.Itoa(year))
	q.Set("make", vehicleMake)
	return e.base() + "/vehicle/menu/model?" + q.Encode()
}

func (e Endpoints) VariantMenu(year int, vehicleMake, model string) string {
	q := url.Values{}
	q.Set("year", strconv.Itoa(year))
	q.Set("make", vehicleMake)
	q.Set("model", model)
	return e.base() + "/vehicle/menu/options?" + q.Encode()
}

func (e Endpoints) Vehicle(id string) string {
	return e.base() + "/vehicle/" + url.PathEscape(id)
}

func (e Endpoints) base() string {
	return strings.TrimRight(e.BaseURL, "/")
}

// source wraps a Fetcher with per-endpoint request metrics.
type source struct {
	fetcher   Fetcher
	endpoints Endpoints
}

func (s source) get(ctx context.Context, endpoint, u string) ([]byte, error) {
	start := time.Now()
	body, err := s.fetcher.Fetch(ctx, u)
	metrics.UpstreamRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.UpstreamRequests.WithLabelValues(endpoint, status).Inc()
	return body, err
}

// New wires the full resolver tree over fetcher and returns its root.
func New(fetcher Fetcher, opts Options, log logger.Logger) *MakeResolver {
	src := source{fetcher: fetcher, endpoints: Endpoints{BaseURL: opts.BaseURL}}
	variants := &VariantResolver{src: src, logger: log}
	models := &ModelResolver{src: src, variants: variants, limit: opts.MaxConcurrency, logger: log}
	return &MakeResolver{src: src, models: models, limit: opts.MaxConcurrency, logger: log}
}

// ==========================
// Variant (leaf)
// ==========================

type VariantResolver struct {
	src    source
	logger logger.Logger
}

func NewVariantResolver(fetcher Fetcher, baseURL string, log logger.Logger) *VariantResolver {
	return &VariantResolver{
		src:    source{fetcher: fetcher, endpoints: Endpoints{BaseURL: baseURL}},
		logger: log,
	}
}

// FetchVariant fetches the detail record for id. Failures are returned as is.
func (r *VariantResolver) FetchVariant(ctx context.Context, id string) (VariantRecord, error) {
	u := r.src.endpoints.Vehicle(id)
	body, err := r.src.get(ctx, metrics.EndpointVehicle, u)
	if err != nil {
		return VariantRecord{}, err
	}

	record, err := parseVariant(u, id, body)
	if err != nil {
		return VariantRecord{}, err
	}
	metrics.VariantsResolved.Inc()
	return record, nil
}

// ==========================
// Model
// ==========================

type ModelResolver struct {
	src      source
	variants VariantFetcher
	limit    int
	logger   logger.Logger
}

func NewModelResolver(fetcher Fetcher, variants VariantFetcher, opts Options, log logger.Logger) *ModelResolver {
	return &ModelResolver{
		src:      source{fetcher: fetcher, endpoints: Endpoints{BaseURL: opts.BaseURL}},
		variants: variants,
		limit:    opts.MaxConcurrency,
		logger:   log,
	}
}

// FetchModelVariants discovers the variant ids of model and fetches each one
// concurrently. Records come back in menu order; any failure fails the call.
func (r *ModelResolver) FetchModelVariants(ctx context.Context, year int, vehicleMake, model string) ([]VariantRecord, error) {
	discover := func(ctx context.Context) ([]MenuEntry, error) {
		u := r.src.endpoints.VariantMenu(year, vehicleMake, model)
		body, err := r.src.get(ctx, metrics.EndpointVariantMenu, u)
		if err != nil {
			return nil, err
		}
		entries, err := parseDiscovery(u, body)
		if err != nil {
			return nil, err
		}
		r.logger.Debug("variants discovered", map[string]interface{}{
			"year":  year,
			"make":  vehicleMake,
			"model": model,
			"count": len(entries),
		})
		return entries, nil
	}

	fetch := func(ctx context.Context, entry MenuEntry) ([]VariantRecord, error) {
		record, err := r.variants.FetchVariant(ctx, entry.Value)
		if err != nil {
			return nil, err
		}
		return []VariantRecord{record}, nil
	}

	return resolveLevel(ctx, r.limit, discover, fetch)
}

// ==========================
// Make (root)
// ==========================

type MakeResolver struct {
	src    source
	models ModelFetcher
	limit  int
	logger logger.Logger
}

func NewMakeResolver(fetcher Fetcher, models ModelFetcher, opts Options, log logger.Logger) *MakeResolver {
	return &MakeResolver{
		src:    source{fetcher: fetcher, endpoints: Endpoints{BaseURL: opts.BaseURL}},
		models: models,
		limit:  opts.MaxConcurrency,
		logger: log,
	}
}

// FetchMakeVariants discovers the models of vehicleMake, resolves each model
// concurrently and returns all records flattened in (model, variant) menu
// order. The result is unsorted.
func (r *MakeResolver) FetchMakeVariants(ctx context.Context, year int, vehicleMake string) ([]VariantRecord, error) {
	discover := func(ctx context.Context) ([]MenuEntry, error) {
		u := r.src.endpoints.ModelMenu(year, vehicleMake)
		body, err := r.src.get(ctx, metrics.EndpointModelMenu, u)
		if err != nil {
			return nil, err
		}
		entries, err := parseDiscovery(u, body)
		if err != nil {
			return nil, err
		}
		r.logger.Debug("models discovered", map[string]interface{}{
			"year":  year,
			"make":  vehicleMake,
			"count": len(entries),
		})
		return entries, nil
	}

	fetch := func(ctx context.Context, entry MenuEntry) ([]VariantRecord, error) {
		return r.models.FetchModelVariants(ctx, year, vehicleMake, entry.Value)
	}

	return resolveLevel(ctx, r.limit, discover, fetch)
}
