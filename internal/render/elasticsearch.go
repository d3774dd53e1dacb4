package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"fuel-economy/internal/common/config"
	"fuel-economy/internal/common/database"
	"fuel-economy/internal/common/errors"
	"fuel-economy/internal/common/logger"
	"fuel-economy/internal/fueleconomy"
)

// ElasticsearchRenderer bulk-indexes the records into one index. Documents are
// keyed by year, make and vehicle id, so rendering the same result twice
// leaves the index unchanged and different queries never overwrite each other.
type ElasticsearchRenderer struct {
	es     *database.ElasticsearchClient
	index  string
	logger logger.Logger
}

func NewElasticsearchRenderer(es *database.ElasticsearchClient, index string, log logger.Logger) *ElasticsearchRenderer {
	return &ElasticsearchRenderer{es: es, index: index, logger: log}
}

type rangeDocument struct {
	fueleconomy.Summary
	Year   int                       `json:"year,omitempty"`
	Make   string                    `json:"make,omitempty"`
	Rank   int                       `json:"rank"`
	Record fueleconomy.VariantRecord `json:"record"`
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error,omitempty"`
	} `json:"items"`
}

func (e *ElasticsearchRenderer) Render(ctx context.Context, records []fueleconomy.VariantRecord) error {
	if len(records) == 0 {
		e.logger.Info("nothing to index", map[string]interface{}{"index": e.index})
		return nil
	}

	query, _ := fueleconomy.QueryFromContext(ctx)
	body, err := bulkBody(query, records)
	if err != nil {
		return errors.NewRenderFailedError(config.SinkElasticsearch, err)
	}

	res, err := e.es.Client.Bulk(
		bytes.NewReader(body),
		e.es.Client.Bulk.WithContext(ctx),
		e.es.Client.Bulk.WithIndex(e.index),
		e.es.Client.Bulk.WithRefresh("wait_for"),
	)
	if err != nil {
		return errors.NewRenderFailedError(config.SinkElasticsearch, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return errors.NewRenderFailedError(config.SinkElasticsearch,
			fmt.Errorf("bulk request failed: %s: %s", res.Status(), bytes.TrimSpace(msg)))
	}

	var parsed bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return errors.NewRenderFailedError(config.SinkElasticsearch, fmt.Errorf("decode bulk response: %w", err))
	}
	if parsed.Errors {
		return errors.NewRenderFailedError(config.SinkElasticsearch, firstBulkError(parsed))
	}

	e.logger.Info("records indexed", map[string]interface{}{
		"index": e.index,
		"count": len(records),
	})
	return nil
}

func (e *ElasticsearchRenderer) Close() error {
	return nil
}

// bulkBody builds the NDJSON payload: one action line and one document per record.
func bulkBody(query fueleconomy.Query, records []fueleconomy.VariantRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)

	for i, r := range records {
		action := map[string]interface{}{
			"index": map[string]interface{}{"_id": documentID(query, r.ID)},
		}
		if err := enc.Encode(action); err != nil {
			return nil, err
		}
		doc := rangeDocument{
			Summary: r.Summary(),
			Year:    query.Year,
			Make:    query.Make,
			Rank:    i + 1,
			Record:  r,
		}
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encode record %s: %w", r.ID, err)
		}
	}
	return buf.Bytes(), nil
}

// documentID falls back to the bare vehicle id when no query was recorded.
func documentID(query fueleconomy.Query, id string) string {
	if query == (fueleconomy.Query{}) {
		return id
	}
	return fmt.Sprintf("%d-%s-%s", query.Year, query.Make, id)
}

func firstBulkError(res bulkResponse) error {
	for _, item := range res.Items {
		for op, result := range item {
			if result.Error != nil {
				return fmt.Errorf("%s %s: %s: %s", op, result.ID, result.Error.Type, result.Error.Reason)
			}
		}
	}
	return fmt.Errorf("bulk request reported errors")
}
