// Package forwarder maps measurement sets to datastore points. One write
// attempt per telegram: the meter reports full state every interval, so a
// failed cycle heals itself on the next telegram instead of through retry
// buffering.
package forwarder

import (
	"context"
	"fmt"
	"time"

	"github.com/p1bridge/dsmr_bridge/pkg/datastore"
	"github.com/p1bridge/dsmr_bridge/pkg/telegram"
)

type Forwarder struct {
	client       datastore.Client
	measurement  string
	writeTimeout time.Duration
}

func New(client datastore.Client, measurement string, writeTimeout time.Duration) *Forwarder {
	return &Forwarder{
		client:       client,
		measurement:  measurement,
		writeTimeout: writeTimeout,
	}
}

// Forward writes one point for the set. The point time is the telegram's own
// timestamp so delayed processing never shifts the series; wall clock is only
// a fallback for meters that omit the 0-0:1.0.0 line.
func (f *Forwarder) Forward(ctx context.Context, set *telegram.MeasurementSet) error {
	ts := set.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	fields := make(map[string]any, len(set.Fields)+2)
	for name, value := range set.Fields {
		fields[name] = value
	}
	addDerivedFields(set, fields)

	if len(fields) == 0 {
		return fmt.Errorf("measurement set has no fields")
	}

	writeCtx, cancel := context.WithTimeout(ctx, f.writeTimeout)
	defer cancel()

	point := &datastore.Point{
		Time:        ts,
		Measurement: f.measurement,
		Fields:      fields,
	}
	if err := f.client.WritePoint(writeCtx, point); err != nil {
		return fmt.Errorf("datastore write failed: %w", err)
	}
	return nil
}

// addDerivedFields computes the net figures: current net power in kW and
// lifetime net energy in kWh, both positive while importing.
func addDerivedFields(set *telegram.MeasurementSet, fields map[string]any) {
	imp, okImp := set.Float("active_power_import")
	exp, okExp := set.Float("active_power_export")
	if okImp && okExp {
		fields["active_power_net"] = imp - exp
	}

	impT1, ok1 := set.Float("active_energy_import_tariff1")
	impT2, ok2 := set.Float("active_energy_import_tariff2")
	expT1, ok3 := set.Float("active_energy_export_tariff1")
	expT2, ok4 := set.Float("active_energy_export_tariff2")
	if ok1 && ok2 && ok3 && ok4 {
		fields["active_energy_net"] = (impT1 + impT2) - (expT1 + expT2)
	}
}
