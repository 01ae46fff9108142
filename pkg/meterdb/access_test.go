package meterdb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyMigrationsCreatesSchema(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "meter.db"))
	require.NoError(t, err)
	defer db.Close()
	ApplyMigrations(db)

	for _, table := range []string{
		"live_power_readings",
		"energy_totals",
		"gas_totals",
		"aggregate_live_power_hourly",
		"aggregate_live_power_daily",
		"snapshot_energy_hourly",
		"snapshot_gas_hourly",
	} {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s missing after migration", table)
	}
}

func TestMigrationsAndInserts(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "meter.db"))
	require.NoError(t, err)
	defer db.Close()
	ApplyMigrations(db)

	err = InsertLivePowerReading(db, &LivePowerReading{
		Timestamp: 1700000000,
		ImportW:   1200,
		ExportW:   0,
		Tariff:    2,
	})
	require.NoError(t, err)

	err = InsertEnergyTotals(db, &EnergyTotals{
		Timestamp:       1700000000,
		ImportTariff1Wh: 123456,
		ImportTariff2Wh: 654321,
		ExportTariff1Wh: 1000,
		ExportTariff2Wh: 2000,
	})
	require.NoError(t, err)

	err = InsertGasTotal(db, &GasTotal{Timestamp: 1700000000, TotalDM3: 5678})
	require.NoError(t, err)

	count, err := CountLivePowerReadings(db, 1700000000, 1700000000)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Bounds are inclusive, so a window ending just before misses the row.
	count, err = CountLivePowerReadings(db, 0, 1699999999)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	var reading LivePowerReading
	err = db.QueryRow(
		"SELECT timestamp, import_w, export_w, tariff FROM live_power_readings",
	).Scan(&reading.Timestamp, &reading.ImportW, &reading.ExportW, &reading.Tariff)
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), reading.Timestamp)
	assert.Equal(t, uint32(1200), reading.ImportW)
	assert.Equal(t, uint8(2), reading.Tariff)

	var totals EnergyTotals
	err = db.QueryRow(
		"SELECT import_tariff1_wh, import_tariff2_wh, export_tariff1_wh, export_tariff2_wh "+
			"FROM energy_totals",
	).Scan(&totals.ImportTariff1Wh, &totals.ImportTariff2Wh, &totals.ExportTariff1Wh, &totals.ExportTariff2Wh)
	require.NoError(t, err)
	assert.Equal(t, uint32(123456), totals.ImportTariff1Wh)
	assert.Equal(t, uint32(2000), totals.ExportTariff2Wh)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "meter.db"))
	require.NoError(t, err)
	defer db.Close()

	ApplyMigrations(db)
	ApplyMigrations(db)

	_, err = db.Exec("SELECT COUNT(*) FROM live_power_readings")
	assert.NoError(t, err)
}
