package telegram

import (
	"bufio"
	"fmt"
	"io"
)

// Framer accumulates bytes from a P1 stream and yields complete telegrams.
// Bytes before the first start delimiter are treated as noise and dropped.
type Framer struct {
	r       *bufio.Reader
	buf     []byte
	inFrame bool
}

func NewFramer(r io.Reader) *Framer {
	return &Framer{r: bufio.NewReader(r)}
}

// Next blocks until a complete telegram has been framed. Recoverable framing
// anomalies (a start delimiter mid-frame, a frame growing past
// MaxTelegramSize) are returned as errors wrapping ErrFraming; the framer
// keeps its position in the stream and Next can simply be called again.
// Any other error comes from the underlying reader.
func (f *Framer) Next() (RawTelegram, error) {
	for {
		b, err := f.r.ReadByte()
		if err != nil {
			return nil, err
		}

		if b == '/' {
			restarted := f.inFrame
			f.buf = append(f.buf[:0], b)
			f.inFrame = true
			if restarted {
				return nil, fmt.Errorf("%w: start delimiter inside frame, dropping partial telegram", ErrFraming)
			}
			continue
		}

		if !f.inFrame {
			continue
		}

		f.buf = append(f.buf, b)
		if len(f.buf) > MaxTelegramSize {
			f.reset()
			return nil, fmt.Errorf("%w: frame exceeds %d bytes, dropping", ErrFraming, MaxTelegramSize)
		}

		if b == '\n' && f.terminated() {
			out := make(RawTelegram, len(f.buf))
			copy(out, f.buf)
			f.reset()
			return out, nil
		}
	}
}

func (f *Framer) reset() {
	f.buf = f.buf[:0]
	f.inFrame = false
}

// terminated reports whether the buffer ends in a "!" + 4 hex digit
// checksum line, which closes a telegram.
func (f *Framer) terminated() bool {
	line := f.buf[:len(f.buf)-1]
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	start := 0
	for i := len(line) - 1; i >= 0; i-- {
		if line[i] == '\n' {
			start = i + 1
			break
		}
	}
	last := line[start:]
	if len(last) != 5 || last[0] != '!' {
		return false
	}
	return isHexDigit(last[1]) && isHexDigit(last[2]) && isHexDigit(last[3]) && isHexDigit(last[4])
}

func isHexDigit(b byte) bool {
	switch {
	case b >= '0' && b <= '9', b >= 'a' && b <= 'f', b >= 'A' && b <= 'F':
		return true
	}
	return false
}
