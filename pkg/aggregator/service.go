// Package aggregator computes rollups over the meterdb archive: hourly and
// daily averages of live power, hourly snapshots of register standings, and
// cleanup of raw rows once they have been aggregated.
package aggregator

import (
	"database/sql"
	"log"
	"time"
)

// How long raw rows are retained after aggregation.
const rawRetention = 3 * 31 * 24 * time.Hour

// roundToHourStart returns the Unix timestamp of the start of the hour for the given time
func roundToHourStart(t time.Time) int64 {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC).Unix()
}

// roundToDayStart returns the Unix timestamp of the start of the day for the given time
func roundToDayStart(t time.Time) int64 {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Unix()
}

func getHourEnd(hourStart int64) int64 {
	return time.Unix(hourStart, 0).Add(time.Hour).Unix() - 1
}

func getDayEnd(dayStart int64) int64 {
	return time.Unix(dayStart, 0).AddDate(0, 0, 1).Unix() - 1
}

// aggregateLivePower averages raw power samples in [start, end] into the
// named aggregate table.
func aggregateLivePower(db *sql.DB, table, startColumn string, start, end int64) error {
	query := `
		SELECT AVG(import_w), AVG(export_w), COUNT(*)
		FROM live_power_readings
		WHERE timestamp >= ? AND timestamp <= ?
	`

	var avgImport, avgExport sql.NullFloat64
	var count int
	if err := db.QueryRow(query, start, end).Scan(&avgImport, &avgExport, &count); err != nil {
		return err
	}
	if count == 0 {
		// No samples within timeframe, that's okay
		return nil
	}

	insertQuery := `
		INSERT OR REPLACE INTO ` + table + `
		(` + startColumn + `, avg_import_w, avg_export_w, sample_count)
		VALUES (?, ?, ?, ?)
	`
	_, err := db.Exec(insertQuery, start, uint32(avgImport.Float64), uint32(avgExport.Float64), count)
	return err
}

// snapshotEnergyHourly retains the last energy register standing of the hour.
func snapshotEnergyHourly(db *sql.DB, hourStart int64) error {
	query := `
		SELECT import_tariff1_wh, import_tariff2_wh, export_tariff1_wh, export_tariff2_wh
		FROM energy_totals
		WHERE timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp DESC
		LIMIT 1
	`

	var it1, it2, et1, et2 uint32
	err := db.QueryRow(query, hourStart, getHourEnd(hourStart)).Scan(&it1, &it2, &et1, &et2)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil
		}
		return err
	}

	insertQuery := `
		INSERT OR REPLACE INTO snapshot_energy_hourly
		(timestamp, import_tariff1_wh, import_tariff2_wh, export_tariff1_wh, export_tariff2_wh)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err = db.Exec(insertQuery, hourStart, it1, it2, et1, et2)
	return err
}

// snapshotGasHourly retains the last gas register standing of the hour.
func snapshotGasHourly(db *sql.DB, hourStart int64) error {
	query := `
		SELECT total_dm3
		FROM gas_totals
		WHERE timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp DESC
		LIMIT 1
	`

	var dm3Standing uint32
	err := db.QueryRow(query, hourStart, getHourEnd(hourStart)).Scan(&dm3Standing)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil
		}
		return err
	}

	insertQuery := `
		INSERT OR REPLACE INTO snapshot_gas_hourly (timestamp, dm3_standing)
		VALUES (?, ?)
	`
	_, err = db.Exec(insertQuery, hourStart, dm3Standing)
	return err
}

// cleanupOldData removes raw rows past the retention window, but only once
// the hourly aggregates have caught up with the cutoff.
func cleanupOldData(db *sql.DB) error {
	cutoff := time.Now().UTC().Add(-rawRetention).Unix()

	var lastAggregateHour sql.NullInt64
	err := db.QueryRow("SELECT MAX(hour_start) FROM aggregate_live_power_hourly").Scan(&lastAggregateHour)
	if err != nil {
		return err
	}
	if !lastAggregateHour.Valid || lastAggregateHour.Int64 < cutoff {
		// Haven't aggregated far enough yet, keep the raw rows.
		return nil
	}

	for _, table := range []string{"live_power_readings", "energy_totals", "gas_totals"} {
		if _, err := db.Exec("DELETE FROM "+table+" WHERE timestamp < ?", cutoff); err != nil {
			return err
		}
	}

	log.Printf("Cleaned up raw readings older than %s", time.Unix(cutoff, 0).UTC().Format(time.RFC3339))
	return nil
}

// AggregateAndCleanup performs all aggregation and cleanup tasks.
// This is the main function to call, typically once per hour.
func AggregateAndCleanup(db *sql.DB) error {
	now := time.Now().UTC()

	// Aggregate the previous hour (current hour is still ongoing)
	hourStart := roundToHourStart(now.Add(-time.Hour))

	if err := aggregateLivePower(db, "aggregate_live_power_hourly", "hour_start", hourStart, getHourEnd(hourStart)); err != nil {
		log.Printf("Error aggregating hourly live power: %v", err)
		return err
	}
	if err := snapshotEnergyHourly(db, hourStart); err != nil {
		log.Printf("Error creating energy snapshot: %v", err)
		return err
	}
	if err := snapshotGasHourly(db, hourStart); err != nil {
		log.Printf("Error creating gas snapshot: %v", err)
		return err
	}

	// Aggregate the previous day once it is over
	if now.Hour() == 0 {
		dayStart := roundToDayStart(now.AddDate(0, 0, -1))
		if err := aggregateLivePower(db, "aggregate_live_power_daily", "day_start", dayStart, getDayEnd(dayStart)); err != nil {
			log.Printf("Error aggregating daily live power: %v", err)
			return err
		}
	}

	if err := cleanupOldData(db); err != nil {
		log.Printf("Error cleaning up old data: %v", err)
		return err
	}

	return nil
}
