package config

type BridgeConfig struct {
	SerialDevice string `toml:"serial_device"`
	Baudrate     uint   `toml:"baudrate"`

	ListenAddress string `toml:"listen_address"`
	ListenPort    int    `toml:"listen_port"`

	InfluxUrl    string `toml:"influx_url"`
	InfluxToken  string `toml:"influx_token"`
	InfluxOrg    string `toml:"influx_org"`
	InfluxBucket string `toml:"influx_bucket"`
	// Measurement name for telegram points
	Measurement string `toml:"measurement"`

	// Serial reconnect backoff, doubled per failed attempt up to the max
	BackoffBaseSeconds int `toml:"backoff_base_seconds"`
	BackoffMaxSeconds  int `toml:"backoff_max_seconds"`
	// Upper bound on a single datastore write
	WriteTimeoutSeconds int `toml:"write_timeout_seconds"`

	// Dump the raw bytes of rejected telegrams to the log
	LogRawTelegrams bool `toml:"log_raw_telegrams"`

	// Optional solar inverter readout, empty values disable it
	SolarInverterIp         string `toml:"solar_inverter_ip"`
	SolarInverterModbusPort int    `toml:"solar_inverter_modbus_port"`
}

type MeterLoggerConfig struct {
	BridgeHost string `toml:"bridge_host"`
	TLSEnabled bool   `toml:"tls_enabled"`
}
