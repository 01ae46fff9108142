package meterdb

import "database/sql"

func InsertLivePowerReading(db *sql.DB, reading *LivePowerReading) error {
	_, err := db.Exec(
		"INSERT INTO live_power_readings (timestamp, import_w, export_w, tariff) "+
			"VALUES (?, ?, ?, ?)",
		reading.Timestamp,
		reading.ImportW,
		reading.ExportW,
		reading.Tariff,
	)
	return err
}

func InsertEnergyTotals(db *sql.DB, totals *EnergyTotals) error {
	_, err := db.Exec(
		"INSERT INTO energy_totals "+
			"(timestamp, import_tariff1_wh, import_tariff2_wh, export_tariff1_wh, export_tariff2_wh) "+
			"VALUES (?, ?, ?, ?, ?)",
		totals.Timestamp,
		totals.ImportTariff1Wh,
		totals.ImportTariff2Wh,
		totals.ExportTariff1Wh,
		totals.ExportTariff2Wh,
	)
	return err
}

func InsertGasTotal(db *sql.DB, total *GasTotal) error {
	_, err := db.Exec(
		"INSERT INTO gas_totals (timestamp, total_dm3) VALUES (?, ?)",
		total.Timestamp,
		total.TotalDM3,
	)
	return err
}

// CountLivePowerReadings returns the number of raw power samples in the
// given timespan, bounds inclusive.
func CountLivePowerReadings(db *sql.DB, from, to int64) (int, error) {
	var count int
	err := db.QueryRow(
		"SELECT COUNT(*) FROM live_power_readings WHERE timestamp >= ? AND timestamp <= ?",
		from, to,
	).Scan(&count)
	return count, err
}
