package telegram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var winterNoon = time.Date(2023, time.January, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))

func TestParseFullTelegram(t *testing.T) {
	set, lineErrs := Parse(RawTelegram(fixtureFull))
	assert.Empty(t, lineErrs)
	require.False(t, set.Empty())

	assert.True(t, set.Timestamp.Equal(winterNoon), "timestamp = %v", set.Timestamp)

	assert.Equal(t, "50", set.Fields["p1_version"])
	assert.Equal(t, "E0034006810516", set.Fields["equipment_id"])
	assert.Equal(t, "G0039001700460", set.Fields["gas_equipment_id"])

	assert.Equal(t, 123.456, set.Fields["active_energy_import_tariff1"])
	assert.Equal(t, 456.789, set.Fields["active_energy_import_tariff2"])
	assert.Equal(t, 11.111, set.Fields["active_energy_export_tariff1"])
	assert.Equal(t, 22.222, set.Fields["active_energy_export_tariff2"])

	assert.Equal(t, int64(2), set.Fields["tariff_indicator"])
	assert.Equal(t, 1.193, set.Fields["active_power_import"])
	assert.Equal(t, 0.0, set.Fields["active_power_export"])
	assert.Equal(t, 1.193, set.Fields["power_import_l1"])
	assert.Equal(t, 0.0, set.Fields["power_export_l1"])
	assert.Equal(t, 229.0, set.Fields["voltage_l1"])
	assert.Equal(t, 2.0, set.Fields["current_l1"])

	assert.Equal(t, int64(4), set.Fields["power_failures"])
	assert.Equal(t, int64(2), set.Fields["long_power_failures"])
	assert.Equal(t, int64(0), set.Fields["voltage_sags_l1"])
	assert.Equal(t, int64(1), set.Fields["voltage_swells_l1"])

	assert.Equal(t, 7025.512, set.Fields["gas_index"])

	// The power failure event log (1-0:99.97.0) is not in the mapping
	// table and must be silently skipped.
	assert.NotContains(t, set.Fields, "power_failure_event_log")
}

func TestParseMinimalTelegram(t *testing.T) {
	set, lineErrs := Parse(RawTelegram(fixtureMinimal))
	assert.Empty(t, lineErrs)
	require.False(t, set.Empty())

	assert.True(t, set.Timestamp.Equal(winterNoon))
	assert.Equal(t, map[string]any{"active_energy_import_tariff1": 123.456}, set.Fields)
}

func TestParseIsIdempotent(t *testing.T) {
	first, _ := Parse(RawTelegram(fixtureFull))
	second, _ := Parse(RawTelegram(fixtureFull))
	assert.Equal(t, first, second)
}

func TestParseIsolatesBadLines(t *testing.T) {
	set, lineErrs := Parse(RawTelegram(fixtureBadLine))

	require.Len(t, lineErrs, 1)
	assert.ErrorIs(t, lineErrs[0], ErrLineParse)

	// Sibling lines are unaffected.
	assert.True(t, set.Timestamp.Equal(winterNoon))
	assert.Equal(t, 456.789, set.Fields["active_energy_import_tariff2"])
	assert.NotContains(t, set.Fields, "active_energy_import_tariff1")
}

func TestParseRejectsUnitMismatch(t *testing.T) {
	raw := "/ISK\r\n\r\n1-0:1.8.1(000123.456*Wh)\r\n!0000\r\n"
	set, lineErrs := Parse(RawTelegram(raw))

	require.Len(t, lineErrs, 1)
	assert.ErrorIs(t, lineErrs[0], ErrLineParse)
	assert.NotContains(t, set.Fields, "active_energy_import_tariff1")
}

func TestParseUnknownCodesOnlyIsEmpty(t *testing.T) {
	raw := "/ISK\r\n\r\n9-9:99.99.9(1)\r\n0-0:96.13.0()\r\n!0000\r\n"
	set, lineErrs := Parse(RawTelegram(raw))

	assert.Empty(t, lineErrs)
	assert.True(t, set.Empty())
}

func TestParseSummerTimeFlag(t *testing.T) {
	raw := "/ISK\r\n\r\n0-0:1.0.0(230701120000S)\r\n!0000\r\n"
	set, lineErrs := Parse(RawTelegram(raw))

	assert.Empty(t, lineErrs)
	expected := time.Date(2023, time.July, 1, 12, 0, 0, 0, time.FixedZone("CEST", 7200))
	assert.True(t, set.Timestamp.Equal(expected), "timestamp = %v", set.Timestamp)
}

func TestParseObisLine(t *testing.T) {
	line, err := parseObisLine("1-0:99.97.0(1)(0-0:96.7.19)(181206112732W)(0000007692*s)")
	require.NoError(t, err)
	assert.Equal(t, "1-0:99.97.0", line.Code)
	assert.Equal(t, []string{"1", "0-0:96.7.19", "181206112732W", "0000007692*s"}, line.Groups)

	for _, malformed := range []string{
		"no parens at all",
		"1-0:1.8.1",
		"abc(1)",
		"1-0:1.8.1(unterminated",
		"1-0:1.8.1(1)trailing",
	} {
		_, err := parseObisLine(malformed)
		assert.Error(t, err, "line %q", malformed)
	}
}

func TestMeasurementSetJsonRoundTrip(t *testing.T) {
	set := NewMeasurementSet()
	set.Timestamp = winterNoon
	set.Fields["active_power_import"] = 1.193
	set.Fields["tariff_indicator"] = int64(2)

	decoded := MeasurementSetFromJsonBytes(set.ToJsonBytes())
	require.NotNil(t, decoded)

	assert.True(t, decoded.Timestamp.Equal(winterNoon))
	power, ok := decoded.Float("active_power_import")
	assert.True(t, ok)
	assert.Equal(t, 1.193, power)
	tariff, ok := decoded.Int("tariff_indicator")
	assert.True(t, ok)
	assert.Equal(t, int64(2), tariff)

	assert.Nil(t, MeasurementSetFromJsonBytes([]byte("not json")))
}
