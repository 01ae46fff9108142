// Package solarinverter reads the current production of a modbus-TCP solar
// inverter. Optional: without configured address and port every read returns
// ErrModbusNotConfigured.
package solarinverter

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"
	probing "github.com/prometheus-community/pro-bing"

	"github.com/p1bridge/dsmr_bridge/pkg/config"
)

var (
	ErrModbusNotConfigured = errors.New("modbus not configured")
	ErrModbusReadFailed    = errors.New("modbus read failed")
)

// Active power holding register of the inverter.
const powerRegister = 32080

var (
	solarPowerMu      sync.Mutex
	lastSolarReadWatt int32
	lastSolarReadTime time.Time
)

// IsConfigured checks if the modbus configuration is set.
// This feature is optional, empty values as config are acceptable.
func IsConfigured() bool {
	return config.ActiveBridgeConfig.SolarInverterIp != "" &&
		config.ActiveBridgeConfig.SolarInverterModbusPort != 0
}

// ReadProduction returns the inverter's current production in watt.
// Reads are cached for ten seconds to avoid spamming the poor inverter.
func ReadProduction() (int32, error) {
	if !IsConfigured() {
		return 0, ErrModbusNotConfigured
	}

	solarPowerMu.Lock()
	defer solarPowerMu.Unlock()
	if lastSolarReadTime.After(time.Now().Add(-10 * time.Second)) {
		return lastSolarReadWatt, nil
	}

	host := config.ActiveBridgeConfig.SolarInverterIp
	port := config.ActiveBridgeConfig.SolarInverterModbusPort

	const maxRetries = 3
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(2 * time.Second)
		}

		// Reachability check before attempting a modbus connection
		if ok, err := ping(host); !ok || err != nil {
			lastErr = fmt.Errorf("ping failed on attempt %d: %w", attempt+1, err)
			continue
		}

		handler := modbus.NewTCPClientHandler(fmt.Sprintf("%s:%d", host, port))
		handler.Timeout = 10 * time.Second
		handler.SlaveId = 0

		if err := handler.Connect(); err != nil {
			lastErr = fmt.Errorf("connection failed on attempt %d: %w", attempt+1, err)
			handler.Close()
			continue
		}

		// The 2s delay after connecting causes everything to not implode as much
		time.Sleep(2 * time.Second)
		client := modbus.NewClient(handler)

		result, err := client.ReadHoldingRegisters(powerRegister, 2)
		handler.Close()

		if err != nil || len(result) < 4 {
			lastErr = fmt.Errorf("read power failed on attempt %d: %w", attempt+1, err)
			continue
		}

		power := int32(result[0])<<24 | int32(result[1])<<16 | int32(result[2])<<8 | int32(result[3])
		lastSolarReadWatt = power
		lastSolarReadTime = time.Now()
		return power, nil
	}

	return 0, errors.Join(ErrModbusReadFailed, lastErr)
}

func ping(host string) (bool, error) {
	pinger, err := probing.NewPinger(host)
	if err != nil {
		return false, err
	}

	pinger.Count = 1
	pinger.Timeout = 2 * time.Second
	pinger.SetPrivileged(false) // UDP-based, no root needed

	if err := pinger.Run(); err != nil {
		return false, err
	}

	if pinger.Statistics().PacketsRecv > 0 {
		return true, nil
	}
	return false, fmt.Errorf("no response")
}
