package meterdb

// LivePowerReading is one instantaneous power sample, taken from a single
// telegram. Power is stored in whole watts.
type LivePowerReading struct {
	Timestamp int64  `db:"timestamp"`
	ImportW   uint32 `db:"import_w"`
	ExportW   uint32 `db:"export_w"`
	Tariff    uint8  `db:"tariff"`
}

// EnergyTotals is a standing of the four lifetime energy registers, in Wh.
type EnergyTotals struct {
	Timestamp       int64  `db:"timestamp"`
	ImportTariff1Wh uint32 `db:"import_tariff1_wh"`
	ImportTariff2Wh uint32 `db:"import_tariff2_wh"`
	ExportTariff1Wh uint32 `db:"export_tariff1_wh"`
	ExportTariff2Wh uint32 `db:"export_tariff2_wh"`
}

// GasTotal is a standing of the gas register, in dm3.
type GasTotal struct {
	Timestamp int64  `db:"timestamp"`
	TotalDM3  uint32 `db:"total_dm3"`
}

// Aggregate model - computed averages over a timeframe
type AggregateLivePower struct {
	StartTime   int64  `db:"start_time"`
	AvgImportW  uint32 `db:"avg_import_w"`
	AvgExportW  uint32 `db:"avg_export_w"`
	SampleCount uint32 `db:"sample_count"`
}

// Snapshot models - retained register standings per hour
type SnapshotEnergyHourly = EnergyTotals

type SnapshotGasHourly struct {
	Timestamp   int64  `db:"timestamp"`
	DM3Standing uint32 `db:"dm3_standing"`
}
