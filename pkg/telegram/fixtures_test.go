package telegram

import "strings"

// Fixture telegrams carry real CRC16-ARC checksums.

// fixtureMinimal is a two-line telegram: one energy register and the clock.
const fixtureMinimal = "/ISK5\\2M550T-1012\r\n" +
	"\r\n" +
	"1-0:1.8.1(000123.456*kWh)\r\n" +
	"0-0:1.0.0(230101120000W)\r\n" +
	"!6705\r\n"

// fixtureFull covers the whole DSMR5.0 mapping table, plus one line with an
// OBIS code outside the table (the power failure event log).
var fixtureFull = strings.Join([]string{
	"/ISK5\\2M550T-1012",
	"",
	"1-3:0.2.8(50)",
	"0-0:1.0.0(230101120000W)",
	"0-0:96.1.1(4530303334303036383130353136)",
	"1-0:1.8.1(000123.456*kWh)",
	"1-0:1.8.2(000456.789*kWh)",
	"1-0:2.8.1(000011.111*kWh)",
	"1-0:2.8.2(000022.222*kWh)",
	"0-0:96.14.0(0002)",
	"1-0:1.7.0(01.193*kW)",
	"1-0:2.7.0(00.000*kW)",
	"0-0:96.7.21(00004)",
	"0-0:96.7.9(00002)",
	"1-0:99.97.0(1)(0-0:96.7.19)(181206112732W)(0000007692*s)",
	"1-0:32.32.0(00000)",
	"1-0:32.36.0(00001)",
	"1-0:32.7.0(229.0*V)",
	"1-0:31.7.0(002*A)",
	"1-0:21.7.0(01.193*kW)",
	"1-0:22.7.0(00.000*kW)",
	"0-1:96.1.1(4730303339303031373030343630)",
	"0-1:24.2.1(230101120000W)(07025.512*m3)",
	"!5DD3",
}, "\r\n") + "\r\n"

// fixtureBadLine has one unparseable value among good lines.
var fixtureBadLine = strings.Join([]string{
	"/ISK5\\2M550T-1012",
	"",
	"1-0:1.8.1(bogus*kWh)",
	"1-0:1.8.2(000456.789*kWh)",
	"0-0:1.0.0(230101120000W)",
	"!5667",
}, "\r\n") + "\r\n"
