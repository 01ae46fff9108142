package pathing

import (
	"os"
	"path/filepath"
)

func GetMeterDbPath() string {
	return filepath.Join(GetDataDir(), "dsmr-meter.db")
}

// GetDataDir returns the data directory. P1B_DATA_DIR overrides the default,
// mainly for tests and non-root setups.
func GetDataDir() string {
	if dir := os.Getenv("P1B_DATA_DIR"); dir != "" {
		return dir
	}
	return "/var/lib/dsmr_bridge"
}

func GetConfigDir() string {
	if dir := os.Getenv("P1B_CONFIG_DIR"); dir != "" {
		return dir
	}
	return "/etc/dsmr_bridge"
}
