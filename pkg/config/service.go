package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/p1bridge/dsmr_bridge/pkg/pathing"
)

var (
	ActiveBridgeConfig      *BridgeConfig
	ActiveMeterLoggerConfig *MeterLoggerConfig
)

func LoadBridgeConfig() error {
	configPath := filepath.Join(pathing.GetConfigDir(), "p1_bridge.toml")

	// Create default if not exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := &BridgeConfig{
			SerialDevice:        "/dev/ttyUSB0",
			Baudrate:            115200,
			ListenAddress:       "0.0.0.0",
			ListenPort:          9039,
			InfluxUrl:           "http://localhost:8086",
			InfluxOrg:           "home",
			InfluxBucket:        "p1meter",
			Measurement:         "dsmr_telegram",
			BackoffBaseSeconds:  2,
			BackoffMaxSeconds:   60,
			WriteTimeoutSeconds: 5,
		}
		if err := writeConfig(configPath, cfg); err != nil {
			return err
		}
		ActiveBridgeConfig = cfg
		return nil
	}

	// Load existing config
	var config BridgeConfig
	_, err := toml.DecodeFile(configPath, &config)
	if err != nil {
		return err
	}
	ActiveBridgeConfig = &config
	return nil
}

func LoadMeterLoggerConfig() error {
	configPath := filepath.Join(pathing.GetConfigDir(), "meter_logger.toml")

	// Create default if not exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := &MeterLoggerConfig{
			BridgeHost: "localhost:9039",
			TLSEnabled: false,
		}
		if err := writeConfig(configPath, cfg); err != nil {
			return err
		}
		ActiveMeterLoggerConfig = cfg
		return nil
	}

	// Load existing config
	var config MeterLoggerConfig
	_, err := toml.DecodeFile(configPath, &config)
	if err != nil {
		return err
	}
	ActiveMeterLoggerConfig = &config
	return nil
}

func writeConfig(configPath string, cfg any) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return err
	}
	cfgFile, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer cfgFile.Close()
	return toml.NewEncoder(cfgFile).Encode(cfg)
}
