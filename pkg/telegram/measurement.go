package telegram

import (
	"encoding/json"
	"log"
	"time"
)

// MeasurementSet is the flattened result of one parsed telegram. Fields are
// keyed by measurement name. Timestamp is the telegram's own 0-0:1.0.0 clock
// and is authoritative for any datastore write; it stays zero when the
// telegram carried no timestamp line.
type MeasurementSet struct {
	Timestamp time.Time      `json:"timestamp"`
	Fields    map[string]any `json:"fields"`
}

func NewMeasurementSet() *MeasurementSet {
	return &MeasurementSet{Fields: make(map[string]any)}
}

func (m *MeasurementSet) Empty() bool {
	return len(m.Fields) == 0 && m.Timestamp.IsZero()
}

// Float returns a named numeric measurement. Integer measurements are
// coerced because JSON decoding on the live feed turns them into float64.
func (m *MeasurementSet) Float(name string) (float64, bool) {
	switch v := m.Fields[name].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func (m *MeasurementSet) Int(name string) (int64, bool) {
	switch v := m.Fields[name].(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	}
	return 0, false
}

// ToJsonBytes serializes the set for the live feed. Returns nil on failure.
func (m *MeasurementSet) ToJsonBytes() []byte {
	data, err := json.Marshal(m)
	if err != nil {
		log.Printf("Error marshaling measurement set: %v", err)
		return nil
	}
	return data
}

// MeasurementSetFromJsonBytes deserializes a live feed message.
// Returns nil if the data is not a valid measurement set.
func MeasurementSetFromJsonBytes(data []byte) *MeasurementSet {
	var m MeasurementSet
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	if m.Fields == nil {
		m.Fields = make(map[string]any)
	}
	return &m
}
