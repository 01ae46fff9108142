package telegram

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/sigurn/crc16"
)

// DSMR5.0 checksums are CRC16-ARC over everything from the start delimiter
// up to and including the '!'.
var crcTable = crc16.MakeTable(crc16.CRC16_ARC)

// Validate checks the telegram's trailing checksum. A telegram that fails
// Validate must not be parsed; unverified data never reaches the datastore.
func Validate(raw RawTelegram) error {
	bang := bytes.LastIndexByte(raw, '!')
	if bang < 0 || len(raw) < bang+5 {
		return fmt.Errorf("%w: no checksum terminator", ErrChecksum)
	}

	want, err := strconv.ParseUint(string(raw[bang+1:bang+5]), 16, 16)
	if err != nil {
		return fmt.Errorf("%w: malformed checksum field %q", ErrChecksum, raw[bang+1:bang+5])
	}

	got := crc16.Checksum(raw[:bang+1], crcTable)
	if got != uint16(want) {
		return fmt.Errorf("%w: calculated %04X, telegram says %04X", ErrChecksum, got, want)
	}
	return nil
}
