package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// CellString renders a single cell for delimited output. Missing values
// become the empty string, json.Number keeps its exact wire form, and
// timestamps use RFC 3339.
func CellString(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case json.Number:
		return value.String()
	case time.Time:
		return value.Format(time.RFC3339)
	case bool:
		if value {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(value)
	}
}
