// Package datastore is the boundary to the time-series store. The pipeline
// treats it as an opaque sink: one point per telegram, best effort.
package datastore

import (
	"context"
	"time"
)

// Point is one timestamped set of fields for a measurement.
type Point struct {
	Time        time.Time
	Measurement string
	Fields      map[string]any
}

type Client interface {
	WritePoint(ctx context.Context, p *Point) error
	Close()
}
