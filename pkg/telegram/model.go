// Package telegram implements the DSMR5.0 P1 telegram pipeline:
// framing raw serial bytes into telegrams, validating the CRC16
// checksum and decoding OBIS data lines into named measurements.
package telegram

import "errors"

// MaxTelegramSize bounds frame accumulation. Real DSMR5.0 telegrams are
// around a kilobyte; anything larger means the stream is corrupted and
// framing should restart at the next start delimiter.
const MaxTelegramSize = 16 * 1024

var (
	ErrFraming       = errors.New("telegram framing error")
	ErrChecksum      = errors.New("telegram checksum mismatch")
	ErrLineParse     = errors.New("telegram line parse error")
	ErrEmptyTelegram = errors.New("telegram contained no usable measurements")
)

// RawTelegram holds one complete frame, from the start delimiter '/' up to
// and including the checksum terminator line "!XXXX" plus its line ending.
type RawTelegram []byte

// ObisLine is one decoded data line: the OBIS reference code and the
// parenthesized value groups that followed it.
type ObisLine struct {
	Code   string
	Groups []string
}
