package fueleconomy

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MenuEntry is one item of a discovery menu. Value feeds the next query, Label
// is for display. The data source calls the label "text".
type MenuEntry struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

func (m *MenuEntry) UnmarshalJSON(b []byte) error {
	var raw struct {
		Value json.RawMessage `json:"value"`
		Text  string          `json:"text"`
		Label string          `json:"label"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	value, err := scalarString(raw.Value)
	if err != nil {
		return fmt.Errorf("menu entry value: %w", err)
	}

	m.Value = value
	m.Label = raw.Label
	if m.Label == "" {
		m.Label = raw.Text
	}
	return nil
}

// scalarString accepts a JSON string or number and returns its text.
func scalarString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("expected string or number, got %s", raw)
	}
	return n.String(), nil
}

// DiscoveryResponse is the menuItem field of a discovery query: the data
// source sends a bare object when there is exactly one result and an array
// otherwise. Entries normalizes both shapes.
type DiscoveryResponse struct {
	single *MenuEntry
	list   []MenuEntry
}

func (d *DiscoveryResponse) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*d = DiscoveryResponse{}

	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		return nil
	case b[0] == '[':
		var list []MenuEntry
		if err := json.Unmarshal(b, &list); err != nil {
			return err
		}
		d.list = list
		return nil
	case b[0] == '{':
		var entry MenuEntry
		if err := json.Unmarshal(b, &entry); err != nil {
			return err
		}
		d.single = &entry
		return nil
	default:
		return fmt.Errorf("menuItem must be an object or an array, got %.20s", b)
	}
}

// IsSingle reports whether the raw shape was a bare object.
func (d DiscoveryResponse) IsSingle() bool {
	return d.single != nil
}

// Entries returns the menu as a list, never nil.
func (d DiscoveryResponse) Entries() []MenuEntry {
	if d.single != nil {
		return []MenuEntry{*d.single}
	}
	if d.list == nil {
		return []MenuEntry{}
	}
	return d.list
}

// VariantRecord is the EPA detail record of one model variant. Model and Range
// are lifted out of Fields for sorting and display; Fields holds the record
// exactly as the data source sent it.
type VariantRecord struct {
	ID     string
	Model  string
	Range  float64
	Fields map[string]interface{}
}

// MarshalJSON emits the upstream record unchanged.
func (r VariantRecord) MarshalJSON() ([]byte, error) {
	if r.Fields == nil {
		return json.Marshal(map[string]interface{}{
			"id":    r.ID,
			"model": r.Model,
			"range": r.Range,
		})
	}
	return json.Marshal(r.Fields)
}

// Field returns an upstream field by name.
func (r VariantRecord) Field(name string) (interface{}, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// Summary is the {model, range} projection the renderers display.
type Summary struct {
	ID    string  `json:"id"`
	Model string  `json:"model"`
	Range float64 `json:"range"`
}

func (r VariantRecord) Summary() Summary {
	return Summary{ID: r.ID, Model: r.Model, Range: r.Range}
}
