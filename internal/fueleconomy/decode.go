package fueleconomy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"fuel-economy/internal/common/errors"
	"fuel-economy/internal/common/validation"
)

// variantSchema is the minimum a detail record must carry. The data source
// renders numbers as strings, so range may be either.
var variantSchema = validation.MustCompile(map[string]interface{}{
	"type":     "object",
	"required": []string{"model", "range"},
	"properties": map[string]interface{}{
		"model": map[string]interface{}{"type": "string", "minLength": 1},
		"range": map[string]interface{}{
			"anyOf": []interface{}{
				map[string]interface{}{"type": "number"},
				map[string]interface{}{"type": "string", "pattern": `^\s*-?[0-9]+(\.[0-9]+)?\s*$`},
			},
		},
	},
})

// parseDiscovery decodes a menu body into its normalized entries. An empty or
// null body is the data source's way of saying "no results".
func parseDiscovery(url string, body []byte) ([]MenuEntry, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []MenuEntry{}, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, errors.NewMalformedResponseError(url, "discovery body is not a JSON object", err)
	}

	raw, ok := envelope["menuItem"]
	if !ok {
		return nil, errors.NewMalformedResponseError(url, "missing menuItem", nil)
	}

	var resp DiscoveryResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, errors.NewMalformedResponseError(url, "invalid menuItem", err)
	}

	entries := resp.Entries()
	for i, e := range entries {
		if e.Value == "" {
			return nil, errors.NewMalformedResponseError(url, fmt.Sprintf("menuItem[%d] has no value", i), nil)
		}
	}
	return entries, nil
}

// parseVariant decodes a detail body. Every field is kept; numbers stay
// json.Number so they re-encode exactly as received.
func parseVariant(url, id string, body []byte) (VariantRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var fields map[string]interface{}
	if err := dec.Decode(&fields); err != nil {
		return VariantRecord{}, errors.NewMalformedResponseError(url, "detail body is not a JSON object", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return VariantRecord{}, errors.NewMalformedResponseError(url, "trailing data after detail body", nil)
	}
	if fields == nil {
		return VariantRecord{}, errors.NewMalformedResponseError(url, "empty detail body", nil)
	}

	result, err := variantSchema.Validate(fields)
	if err != nil {
		return VariantRecord{}, errors.NewMalformedResponseError(url, "detail record", err)
	}
	if !result.Valid {
		return VariantRecord{}, errors.NewMalformedResponseError(url, result.Summary(), nil)
	}

	rng, err := parseRange(fields["range"])
	if err != nil {
		return VariantRecord{}, errors.NewMalformedResponseError(url, "range", err)
	}

	return VariantRecord{
		ID:     id,
		Model:  fields["model"].(string),
		Range:  rng,
		Fields: fields,
	}, nil
}

func parseRange(v interface{}) (float64, error) {
	switch r := v.(type) {
	case json.Number:
		return r.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(r), 64)
	case float64:
		return r, nil
	default:
		return 0, fmt.Errorf("unsupported range type %T", v)
	}
}
