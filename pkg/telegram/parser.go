package telegram

import (
	"fmt"
	"strings"
)

// Parse decodes a checksum-validated telegram into a MeasurementSet.
// Decoding failures are isolated per line: the returned slice carries one
// error (wrapping ErrLineParse) for each line that could not be decoded,
// and the remaining lines still contribute their measurements. A set for
// which Empty() is true must be dropped as ErrEmptyTelegram by the caller.
func Parse(raw RawTelegram) (*MeasurementSet, []error) {
	set := NewMeasurementSet()
	var lineErrs []error

	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" || line[0] == '/' || line[0] == '!' {
			// Header line, blank separator and checksum terminator.
			continue
		}

		obisLine, err := parseObisLine(line)
		if err != nil {
			lineErrs = append(lineErrs, fmt.Errorf("%w: %q: %v", ErrLineParse, line, err))
			continue
		}

		decode, known := obisDecoders[obisLine.Code]
		if !known {
			continue
		}
		if err := decode(set, obisLine.Groups); err != nil {
			lineErrs = append(lineErrs, fmt.Errorf("%w: %s: %v", ErrLineParse, obisLine.Code, err))
		}
	}

	return set, lineErrs
}

// parseObisLine splits "a-b:c.d.e(v1)(v2)..." into its OBIS code and value
// groups.
func parseObisLine(line string) (ObisLine, error) {
	open := strings.IndexByte(line, '(')
	if open < 0 {
		return ObisLine{}, fmt.Errorf("no value groups")
	}
	code := line[:open]
	if !validObisCode(code) {
		return ObisLine{}, fmt.Errorf("malformed OBIS code %q", code)
	}

	var groups []string
	rest := line[open:]
	for rest != "" {
		if rest[0] != '(' {
			return ObisLine{}, fmt.Errorf("unexpected %q after value group", rest)
		}
		end := strings.IndexByte(rest, ')')
		if end < 0 {
			return ObisLine{}, fmt.Errorf("unterminated value group")
		}
		groups = append(groups, rest[1:end])
		rest = rest[end+1:]
	}
	return ObisLine{Code: code, Groups: groups}, nil
}

// validObisCode checks the a-b:c.d.e[.f] shape. The number of dotted
// elements is not pinned down; meters vary.
func validObisCode(code string) bool {
	medium, rest, found := strings.Cut(code, "-")
	if !found {
		return false
	}
	channel, obis, found := strings.Cut(rest, ":")
	if !found {
		return false
	}
	if !allDigits(medium) || !allDigits(channel) {
		return false
	}
	for _, part := range strings.Split(obis, ".") {
		if !allDigits(part) {
			return false
		}
	}
	return true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
