package service

import (
	"bytes"
	"encoding/json"
)

// isGeometry accepts any JSON object. GeoJSON geometries are stored as sent,
// so only the outer shape is checked.
func isGeometry(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	return json.Valid(trimmed)
}

// checkGeometry rejects a supplied geometry that is not a JSON object. An
// absent or null geometry passes.
func checkGeometry(raw json.RawMessage) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil
	}
	if !isGeometry(trimmed) {
		return NewValidationError("Geometry must be a GeoJSON object")
	}
	return nil
}
