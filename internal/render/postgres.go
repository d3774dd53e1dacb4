package render

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fuel-economy/internal/common/config"
	"fuel-economy/internal/common/database"
	"fuel-economy/internal/common/errors"
	"fuel-economy/internal/common/logger"
	"fuel-economy/internal/fueleconomy"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresRenderer stores one report per Render call. Every record becomes a
// row keyed by (report_id, position), where position is its rank by range.
//
//	CREATE TABLE variant_ranges (
//	    report_id   UUID NOT NULL,
//	    position    INT NOT NULL,
//	    vehicle_id  TEXT NOT NULL,
//	    model       TEXT NOT NULL,
//	    range_miles DOUBLE PRECISION NOT NULL,
//	    record      JSONB NOT NULL,
//	    created_at  TIMESTAMPTZ NOT NULL,
//	    PRIMARY KEY (report_id, position)
//	);
type PostgresRenderer struct {
	db     *database.PostgresClient
	table  string
	logger logger.Logger

	newID func() uuid.UUID
	now   func() time.Time
}

func NewPostgresRenderer(db *database.PostgresClient, table string, log logger.Logger) *PostgresRenderer {
	return &PostgresRenderer{
		db:     db,
		table:  table,
		logger: log,
		newID:  uuid.New,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (p *PostgresRenderer) Render(ctx context.Context, records []fueleconomy.VariantRecord) error {
	reportID := p.newID()
	createdAt := p.now()

	if err := p.insert(ctx, reportID, createdAt, records); err != nil {
		return errors.NewRenderFailedError(config.SinkPostgres, err)
	}

	p.logger.Info("report stored", map[string]interface{}{
		"reportId": reportID.String(),
		"table":    p.table,
		"rows":     len(records),
	})
	return nil
}

func (p *PostgresRenderer) insert(ctx context.Context, reportID uuid.UUID, createdAt time.Time, records []fueleconomy.VariantRecord) error {
	tx, err := p.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (report_id, position, vehicle_id, model, range_miles, record, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`, pq.QuoteIdentifier(p.table))

	for i, r := range records {
		recordJSON, err := json.Marshal(r)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("marshal record %s: %w", r.ID, err)
		}

		if _, err := tx.ExecContext(ctx, query,
			reportID.String(),
			i+1,
			r.ID,
			r.Model,
			r.Range,
			recordJSON,
			createdAt,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert record %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (p *PostgresRenderer) Close() error {
	return p.db.Close()
}
