package telegram

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// decoder consumes the value groups of one data line and stores the result.
type decoder func(set *MeasurementSet, groups []string) error

// obisDecoders is the fixed DSMR5.0 mapping from OBIS reference code to
// named measurement. Codes not in this table are skipped so newer meter
// firmware does not break parsing. Extend by adding table entries.
var obisDecoders = map[string]decoder{
	"0-0:1.0.0":   decodeTimestamp,
	"1-3:0.2.8":   stringField("p1_version"),
	"0-0:96.1.1":  hexStringField("equipment_id"),
	"0-1:96.1.1":  hexStringField("gas_equipment_id"),
	"1-0:1.8.1":   floatField("active_energy_import_tariff1", "kWh"),
	"1-0:1.8.2":   floatField("active_energy_import_tariff2", "kWh"),
	"1-0:2.8.1":   floatField("active_energy_export_tariff1", "kWh"),
	"1-0:2.8.2":   floatField("active_energy_export_tariff2", "kWh"),
	"0-0:96.14.0": intField("tariff_indicator"),
	"1-0:1.7.0":   floatField("active_power_import", "kW"),
	"1-0:2.7.0":   floatField("active_power_export", "kW"),
	"1-0:21.7.0":  floatField("power_import_l1", "kW"),
	"1-0:41.7.0":  floatField("power_import_l2", "kW"),
	"1-0:61.7.0":  floatField("power_import_l3", "kW"),
	"1-0:22.7.0":  floatField("power_export_l1", "kW"),
	"1-0:42.7.0":  floatField("power_export_l2", "kW"),
	"1-0:62.7.0":  floatField("power_export_l3", "kW"),
	"1-0:32.7.0":  floatField("voltage_l1", "V"),
	"1-0:52.7.0":  floatField("voltage_l2", "V"),
	"1-0:72.7.0":  floatField("voltage_l3", "V"),
	"1-0:31.7.0":  floatField("current_l1", "A"),
	"1-0:51.7.0":  floatField("current_l2", "A"),
	"1-0:71.7.0":  floatField("current_l3", "A"),
	"0-0:96.7.21": intField("power_failures"),
	"0-0:96.7.9":  intField("long_power_failures"),
	"1-0:32.32.0": intField("voltage_sags_l1"),
	"1-0:52.32.0": intField("voltage_sags_l2"),
	"1-0:72.32.0": intField("voltage_sags_l3"),
	"1-0:32.36.0": intField("voltage_swells_l1"),
	"1-0:52.36.0": intField("voltage_swells_l2"),
	"1-0:72.36.0": intField("voltage_swells_l3"),
	"0-1:24.2.1":  decodeGasIndex,
}

// DSMR timestamps are YYMMDDhhmmss followed by a DST flag: W is winter time
// (CET), S is summer time (CEST). Fixed offsets keep parsing deterministic
// on hosts without tzdata.
var (
	zoneCET  = time.FixedZone("CET", 1*60*60)
	zoneCEST = time.FixedZone("CEST", 2*60*60)
)

func parseDsmrTime(s string) (time.Time, error) {
	if len(s) != 13 {
		return time.Time{}, fmt.Errorf("timestamp %q is not 13 characters", s)
	}
	var zone *time.Location
	switch s[12] {
	case 'W':
		zone = zoneCET
	case 'S':
		zone = zoneCEST
	default:
		return time.Time{}, fmt.Errorf("timestamp %q has unknown DST flag %q", s, s[12])
	}
	return time.ParseInLocation("060102150405", s[:12], zone)
}

func decodeTimestamp(set *MeasurementSet, groups []string) error {
	t, err := parseDsmrTime(groups[0])
	if err != nil {
		return err
	}
	set.Timestamp = t
	return nil
}

// unitValue strips and verifies the "*unit" suffix of a value group.
func unitValue(group, unit string) (string, error) {
	val, got, found := strings.Cut(group, "*")
	if !found || got != unit {
		return "", fmt.Errorf("value %q does not carry unit %q", group, unit)
	}
	return val, nil
}

func floatField(name, unit string) decoder {
	return func(set *MeasurementSet, groups []string) error {
		val, err := unitValue(groups[0], unit)
		if err != nil {
			return err
		}
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("value %q is not numeric", val)
		}
		set.Fields[name] = f
		return nil
	}
}

func intField(name string) decoder {
	return func(set *MeasurementSet, groups []string) error {
		n, err := strconv.ParseInt(groups[0], 10, 64)
		if err != nil {
			return fmt.Errorf("value %q is not an integer", groups[0])
		}
		set.Fields[name] = n
		return nil
	}
}

func stringField(name string) decoder {
	return func(set *MeasurementSet, groups []string) error {
		set.Fields[name] = groups[0]
		return nil
	}
}

// hexStringField decodes equipment identifiers, which are hex-encoded ASCII
// on the wire. Some meters emit plain identifiers; those are kept as-is.
func hexStringField(name string) decoder {
	return func(set *MeasurementSet, groups []string) error {
		if decoded, err := hex.DecodeString(groups[0]); err == nil {
			set.Fields[name] = string(decoded)
		} else {
			set.Fields[name] = groups[0]
		}
		return nil
	}
}

// decodeGasIndex handles 0-1:24.2.1. The first group is the gas meter's own
// capture timestamp, the second the index in m3.
func decodeGasIndex(set *MeasurementSet, groups []string) error {
	if len(groups) < 2 {
		return fmt.Errorf("gas line carries %d value groups, want 2", len(groups))
	}
	val, err := unitValue(groups[1], "m3")
	if err != nil {
		return err
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fmt.Errorf("gas index %q is not numeric", val)
	}
	set.Fields["gas_index"] = f
	return nil
}
