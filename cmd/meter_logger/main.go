// Meter logger subscribes to the bridge's live feed and archives readings
// into the local meter database. Depends on the bridge being online.
package main

import (
	"log"
	"time"

	"github.com/p1bridge/dsmr_bridge/pkg/aggregator"
	"github.com/p1bridge/dsmr_bridge/pkg/config"
	"github.com/p1bridge/dsmr_bridge/pkg/livefeed"
	"github.com/p1bridge/dsmr_bridge/pkg/meterdb"
	"github.com/p1bridge/dsmr_bridge/pkg/telegram"
	"github.com/p1bridge/dsmr_bridge/pkg/units"
)

func main() {
	if err := config.LoadMeterLoggerConfig(); err != nil {
		log.Fatalf("Failed to load meter logger config: %v", err)
	}
	cfg := config.ActiveMeterLoggerConfig

	// Initialize database
	meterdb.InitializeDatabase()

	// Hourly aggregation in the background
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if err := aggregator.AggregateAndCleanup(meterdb.GetDB()); err != nil {
				log.Printf("Aggregation failed: %v", err)
			}
		}
	}()

	// Subscribe to the live feed, blocks until shutdown
	livefeed.StartListener(cfg.BridgeHost, cfg.TLSEnabled, handleMeterReading)
}

// Archive one reading. Partial telegrams are fine; each table only gets a
// row when its measurements are present.
func handleMeterReading(set *telegram.MeasurementSet) {
	db := meterdb.GetDB()

	ts := set.Timestamp.Unix()
	if set.Timestamp.IsZero() {
		ts = time.Now().Unix()
	}

	importKw, okImport := set.Float("active_power_import")
	exportKw, okExport := set.Float("active_power_export")
	if okImport || okExport {
		tariff, _ := set.Int("tariff_indicator")
		err := meterdb.InsertLivePowerReading(db, &meterdb.LivePowerReading{
			Timestamp: ts,
			ImportW:   units.KwToW(importKw),
			ExportW:   units.KwToW(exportKw),
			Tariff:    tariffValue(tariff),
		})
		if err != nil {
			log.Printf("Error inserting live power reading: %v", err)
		}
	}

	it1, ok1 := set.Float("active_energy_import_tariff1")
	it2, ok2 := set.Float("active_energy_import_tariff2")
	et1, ok3 := set.Float("active_energy_export_tariff1")
	et2, ok4 := set.Float("active_energy_export_tariff2")
	if ok1 && ok2 && ok3 && ok4 {
		err := meterdb.InsertEnergyTotals(db, &meterdb.EnergyTotals{
			Timestamp:       ts,
			ImportTariff1Wh: units.KwhToWh(it1),
			ImportTariff2Wh: units.KwhToWh(it2),
			ExportTariff1Wh: units.KwhToWh(et1),
			ExportTariff2Wh: units.KwhToWh(et2),
		})
		if err != nil {
			log.Printf("Error inserting energy totals: %v", err)
		}
	}

	if gas, ok := set.Float("gas_index"); ok {
		err := meterdb.InsertGasTotal(db, &meterdb.GasTotal{
			Timestamp: ts,
			TotalDM3:  units.M3ToDM3(gas),
		})
		if err != nil {
			log.Printf("Error inserting gas total: %v", err)
		}
	}
}

// tariffValue narrows the tariff indicator for storage. DSMR meters report
// 1 or 2; anything outside the stored range is recorded as 0.
func tariffValue(tariff int64) uint8 {
	if tariff < 0 || tariff > 255 {
		return 0
	}
	return uint8(tariff)
}
