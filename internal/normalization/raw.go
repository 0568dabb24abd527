package normalization

import (
	"bytes"
	"encoding/json"
	"fmt"

	"cs2-telemetry/internal/domain"
)

// RawRecord is one undecoded event record tagged with its source convention.
// Implementations are LiveRecord and HistoricalRecord.
type RawRecord interface {
	Source() domain.Source
	field(key string) (any, bool)
}

// LiveRecord is a record in the live feed convention: snake_case keys,
// weapon fields nested under "active_gun", timestamps in seconds.
type LiveRecord map[string]any

// HistoricalRecord is a record in the historical convention: PascalCase
// keys (or snake_case column names), flat Weapon* fields.
type HistoricalRecord map[string]any

// Source returns domain.SourceLive.
func (r LiveRecord) Source() domain.Source { return domain.SourceLive }

func (r LiveRecord) field(key string) (any, bool) {
	v, ok := r[key]
	return v, ok && v != nil
}

// Source returns domain.SourceHistorical.
func (r HistoricalRecord) Source() domain.Source { return domain.SourceHistorical }

func (r HistoricalRecord) field(key string) (any, bool) {
	v, ok := r[key]
	return v, ok && v != nil
}

// DecodeRecord decodes one JSON object into the raw record type of source.
// Numbers are kept as json.Number so large integers survive decoding.
func DecodeRecord(source domain.Source, data json.RawMessage) (RawRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrMalformedRecord, err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: not an object", ErrMalformedRecord)
	}

	switch source {
	case domain.SourceLive:
		return LiveRecord(m), nil
	case domain.SourceHistorical:
		return HistoricalRecord(m), nil
	default:
		return nil, fmt.Errorf("%w: unknown source %q", ErrMalformedRecord, source)
	}
}
