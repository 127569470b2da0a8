package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// JSONBMap backs every free-form JSONB column in the schema: a
// BronzeRow's raw payload (§3), a Load's `details`, an AuditLog's
// before/after snapshots (§4.11), and a TaxonomyVersion's affected-nodes/
// affected-attributes lists and remapping counters (§4.8).
type JSONBMap map[string]interface{}

// Value implements driver.Valuer, marshaling to the JSON text bun sends
// for a jsonb column.
func (j JSONBMap) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	bytes, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(bytes), nil
}

// Scan implements sql.Scanner, unmarshaling a jsonb column back into the
// map. A null or empty column scans to an empty (not nil) map so callers
// never need a nil check before indexing.
func (j *JSONBMap) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSONBMap)
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to scan JSONBMap: value is not []byte")
	}

	if len(bytes) == 0 {
		*j = make(JSONBMap)
		return nil
	}

	return json.Unmarshal(bytes, j)
}
