// Package port_reader owns the P1 serial connection and drives the telegram
// pipeline: read, validate checksum, parse, forward. One telegram is fully
// handled before the next read starts.
package port_reader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/jacobsa/go-serial/serial"

	"github.com/p1bridge/dsmr_bridge/pkg/forwarder"
	"github.com/p1bridge/dsmr_bridge/pkg/telegram"
)

// How long the port may stay silent before a read gives up. A DSMR5.0 meter
// emits a telegram every second, so ten silent seconds means the device
// stalled and the connection should be reopened.
const readTimeout = 10 * time.Second

// Initialize a new P1Reader client.
func NewP1Reader(port string, baudrate uint, backoffBase, backoffMax time.Duration, logRawTelegrams bool) *P1Reader {
	p := &P1Reader{
		port:            port,
		baudrate:        baudrate,
		backoffBase:     backoffBase,
		backoffMax:      backoffMax,
		logRawTelegrams: logRawTelegrams,
	}
	p.openPort = p.openSerialPort
	return p
}

// Run drives the acquisition loop until ctx is cancelled. Any serial I/O
// error drops the connection and reconnects after a capped exponential
// backoff; every pipeline error is recoverable, so Run returns for no other
// reason than cancellation.
func (p *P1Reader) Run(ctx context.Context, fwd *forwarder.Forwarder, onReading ReadingHandler) {
	backoff := p.backoffBase

	for {
		if ctx.Err() != nil {
			p.disconnect()
			return
		}

		if err := p.connect(); err != nil {
			log.Printf("Error connecting to P1 port: %v, retrying in %v", err, backoff)
			if !sleepCtx(ctx, backoff) {
				return
			}
			backoff = nextBackoff(backoff, p.backoffMax)
			continue
		}
		backoff = p.backoffBase

		p.readLoop(ctx, fwd, onReading)
		p.disconnect()

		if ctx.Err() != nil {
			return
		}
		log.Printf("Lost P1 connection, reconnecting in %v", backoff)
		if !sleepCtx(ctx, backoff) {
			return
		}
	}
}

// readLoop processes telegrams until a serial I/O error or cancellation.
func (p *P1Reader) readLoop(ctx context.Context, fwd *forwarder.Forwarder, onReading ReadingHandler) {
	framer := telegram.NewFramer(p.serialPort)

	for ctx.Err() == nil {
		raw, err := framer.Next()
		if err != nil {
			if errors.Is(err, telegram.ErrFraming) {
				log.Printf("Framing error: %v", err)
				continue
			}
			log.Printf("Error reading P1 port: %v", err)
			return
		}
		p.process(ctx, raw, fwd, onReading)
	}
}

// process runs one telegram through validate, parse and forward.
func (p *P1Reader) process(ctx context.Context, raw telegram.RawTelegram, fwd *forwarder.Forwarder, onReading ReadingHandler) {
	if err := telegram.Validate(raw); err != nil {
		log.Printf("Dropping telegram: %v", err)
		p.logRaw(raw)
		return
	}

	set, lineErrs := telegram.Parse(raw)
	for _, err := range lineErrs {
		log.Printf("Skipping line: %v", err)
	}
	if set.Empty() {
		log.Printf("Dropping telegram: %v", telegram.ErrEmptyTelegram)
		p.logRaw(raw)
		return
	}

	p.readingMutex.Lock()
	p.latestReading = set
	p.readingMutex.Unlock()

	if fwd != nil {
		if err := fwd.Forward(ctx, set); err != nil {
			// No retry: the next telegram carries fresh state.
			log.Printf("Error forwarding telegram: %v", err)
		}
	}

	if onReading != nil {
		onReading(set)
	}
}

// logRaw dumps rejected telegram bytes when diagnostics are enabled.
func (p *P1Reader) logRaw(raw telegram.RawTelegram) {
	if p.logRawTelegrams {
		log.Printf("Rejected telegram bytes: %q", raw)
	}
}

func (p *P1Reader) GetLatestReading() *telegram.MeasurementSet {
	p.readingMutex.RLock()
	defer p.readingMutex.RUnlock()
	return p.latestReading
}

// connect opens the P1 port.
func (p *P1Reader) connect() error {
	port, err := p.openPort()
	if err != nil {
		return err
	}
	p.serialPort = port
	log.Printf("Connected to P1 port on %s", p.port)
	return nil
}

func (p *P1Reader) openSerialPort() (io.ReadWriteCloser, error) {
	options := serial.OpenOptions{
		PortName:              p.port,
		BaudRate:              p.baudrate,
		DataBits:              8,
		StopBits:              1,
		InterCharacterTimeout: uint(readTimeout / time.Millisecond),
	}

	port, err := serial.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}
	return port, nil
}

func (p *P1Reader) disconnect() {
	if p.serialPort != nil {
		p.serialPort.Close()
		p.serialPort = nil
		log.Println("Disconnected from P1 port")
	}
}

func nextBackoff(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max {
		return max
	}
	return next
}

// sleepCtx waits d unless ctx is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
