// Package render holds the presentation sinks an aggregation hands its sorted
// records to. Every sink reports failures as RENDER_FAILED.
package render

import (
	"context"
	"fmt"
	"io"

	"fuel-economy/internal/common/config"
	"fuel-economy/internal/common/database"
	"fuel-economy/internal/common/logger"
	"fuel-economy/internal/fueleconomy"
)

// Sink is a Renderer that may hold a connection.
type Sink interface {
	fueleconomy.Renderer
	Close() error
}

// New builds the sink named by cfg.Render.Sink. title labels console output.
func New(ctx context.Context, cfg *config.Config, out io.Writer, title string, log logger.Logger) (Sink, error) {
	switch cfg.Render.Sink {
	case config.SinkTable, "":
		return NewTableRenderer(out, title), nil

	case config.SinkJSON:
		return NewJSONRenderer(out), nil

	case config.SinkPostgres:
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return nil, err
		}
		if err := pg.Ping(ctx); err != nil {
			pg.Close()
			return nil, fmt.Errorf("postgres ping failed: %w", err)
		}
		return NewPostgresRenderer(pg, cfg.Render.Table, log), nil

	case config.SinkElasticsearch:
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch, nil)
		if err != nil {
			return nil, err
		}
		if err := es.Ping(ctx); err != nil {
			return nil, err
		}
		return NewElasticsearchRenderer(es, cfg.Render.Index, log), nil

	default:
		return nil, fmt.Errorf("unknown render sink %q", cfg.Render.Sink)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
