package render

import (
	"context"
	"encoding/json"
	"io"

	"fuel-economy/internal/common/config"
	"fuel-economy/internal/common/errors"
	"fuel-economy/internal/fueleconomy"
)

// JSONRenderer writes the records as one indented JSON array, each element
// carrying every field the data source returned.
type JSONRenderer struct {
	nopCloser
	out io.Writer
}

func NewJSONRenderer(out io.Writer) *JSONRenderer {
	return &JSONRenderer{out: out}
}

func (j *JSONRenderer) Render(_ context.Context, records []fueleconomy.VariantRecord) error {
	if records == nil {
		records = []fueleconomy.VariantRecord{}
	}

	enc := json.NewEncoder(j.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return errors.NewRenderFailedError(config.SinkJSON, err)
	}
	return nil
}
