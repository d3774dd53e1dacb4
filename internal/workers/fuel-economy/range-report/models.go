package rangereport

import "fuel-economy/internal/fueleconomy"

// Input is read from the job variables. year may arrive as a number or a
// four-digit string.
type Input struct {
	Year int    `json:"year"`
	Make string `json:"make"`
}

type Output struct {
	Year    int                   `json:"year"`
	Make    string                `json:"make"`
	Records []fueleconomy.Summary `json:"records"`
	Count   int                   `json:"count"`
}

var inputSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"year", "make"},
	"properties": map[string]interface{}{
		"year": map[string]interface{}{
			"anyOf": []interface{}{
				map[string]interface{}{"type": "integer", "minimum": 1984},
				map[string]interface{}{"type": "string", "pattern": "^[0-9]{4}$"},
			},
		},
		"make": map[string]interface{}{
			"type":      "string",
			"minLength": 1,
		},
	},
}
