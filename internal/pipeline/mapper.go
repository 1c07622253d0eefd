// internal/pipeline/mapper.go

// Package pipeline implements the invariant-bearing core of viralpipe: the
// schema mapper that normalizes raw vendor records onto the canonical schema,
// the viral classifier, and the orchestrator that sequences the stages.
package pipeline

import (
	"github.com/socialpulse/viralpipe/pkg/types"
)

// Normalize applies a column mapping to a batch of raw vendor records,
// producing normalized records restricted to the canonical schema.
//
// For each (raw, canonical) pair of the mapping present in a record, the
// value is copied under the canonical key. Raw fields not named in the
// mapping are dropped by contract: unmapped vendor fields never reach
// downstream stages. A mapped raw field absent from a given record is simply
// omitted for that record, with no default substituted and no error raised.
// Output order follows input order. Pure function; no I/O.
func Normalize(raws []types.RawRecord, mapping types.ColumnMapping) []types.Record {
	out := make([]types.Record, 0, len(raws))
	for _, raw := range raws {
		rec := make(types.Record, len(mapping))
		for rawKey, canonicalKey := range mapping {
			if value, ok := raw[rawKey]; ok {
				rec[canonicalKey] = value
			}
		}
		out = append(out, rec)
	}
	return out
}
