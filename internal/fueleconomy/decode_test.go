package fueleconomy

import (
	"encoding/json"
	stderrors "errors"
	"testing"

	"fuel-economy/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDiscovery(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    []MenuEntry
		wantErr bool
	}{
		{"list", `{"menuItem":[{"value":"Model 3","text":"Model 3"},{"value":"Model S","text":"Model S"}]}`,
			[]MenuEntry{{Value: "Model 3", Label: "Model 3"}, {Value: "Model S", Label: "Model S"}}, false},
		{"single", `{"menuItem":{"value":"40000","text":"Auto (A1)"}}`,
			[]MenuEntry{{Value: "40000", Label: "Auto (A1)"}}, false},
		{"null menuItem", `{"menuItem":null}`, []MenuEntry{}, false},
		{"empty body", ``, []MenuEntry{}, false},
		{"null body", "null\n", []MenuEntry{}, false},
		{"missing menuItem", `{"items":[]}`, nil, true},
		{"not json", `<menuItems/>`, nil, true},
		{"array body", `[{"value":"1"}]`, nil, true},
		{"entry without value", `{"menuItem":[{"value":"1"},{"text":"no id"}]}`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDiscovery("http://example/menu", []byte(tt.body))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, stderrors.Is(err, errors.ErrMalformedResponse))
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseVariant(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantModel string
		wantRange float64
		wantErr   string
	}{
		{"string range", `{"model":"Model 3 Long Range","range":"310"}`, "Model 3 Long Range", 310, ""},
		{"numeric range", `{"model":"Model S","range":370}`, "Model S", 370, ""},
		{"zero range", `{"model":"Model X","range":"0"}`, "Model X", 0, ""},
		{"fractional range", `{"model":"Model X","range":"289.5"}`, "Model X", 289.5, ""},
		{"missing range", `{"model":"Model S"}`, "", 0, "range"},
		{"missing model", `{"range":"310"}`, "", 0, "model"},
		{"non-numeric range", `{"model":"Model S","range":"far"}`, "", 0, "range"},
		{"null range", `{"model":"Model S","range":null}`, "", 0, "range"},
		{"empty body", ``, "", 0, "detail body"},
		{"null body", `null`, "", 0, "empty detail body"},
		{"trailing whitespace", "{\"model\":\"Model S\",\"range\":\"370\"}\n", "Model S", 370, ""},
		{"trailing garbage", `{"model":"Model S","range":"370"} xyz`, "", 0, "trailing data"},
		{"trailing brace", `{"model":"Model S","range":"370"}}`, "", 0, "trailing data"},
		{"second object", `{"model":"Model S","range":"370"}{"model":"Model X","range":"289"}`, "", 0, "trailing data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseVariant("http://example/vehicle/1", "1", []byte(tt.body))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, stderrors.Is(err, errors.ErrMalformedResponse))
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "1", got.ID)
			assert.Equal(t, tt.wantModel, got.Model)
			assert.Equal(t, tt.wantRange, got.Range)
		})
	}
}

func TestParseRange(t *testing.T) {
	v, err := parseRange(json.Number("240"))
	require.NoError(t, err)
	assert.Equal(t, 240.0, v)

	v, err = parseRange(" 310 ")
	require.NoError(t, err)
	assert.Equal(t, 310.0, v)

	v, err = parseRange(float64(12))
	require.NoError(t, err)
	assert.Equal(t, 12.0, v)

	_, err = parseRange(true)
	assert.Error(t, err)
}
