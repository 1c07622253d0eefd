// internal/output/types.go

// Package output implements the record sinks: JSON, CSV and Excel files,
// SQLite, PostgreSQL and MySQL warehouses, MongoDB collections and S3
// objects, plus the object-storage asset store for resolved videos. All
// sinks write the canonical schema in a fixed column order.
package output

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/socialpulse/viralpipe/pkg/types"
)

// columns is the sink column order, shared by every tabular sink.
func columns() []string {
	return types.CanonicalFields()
}

// convertValue flattens a record value for storage. Nested structures become
// JSON text; everything else passes through.
func convertValue(value interface{}) interface{} {
	switch v := value.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, time.Time:
		return v
	case []interface{}, map[string]interface{}:
		if data, err := json.Marshal(v); err == nil {
			return string(data)
		}
		return fmt.Sprintf("%v", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
