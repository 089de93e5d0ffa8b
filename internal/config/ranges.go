package config

import (
	"fmt"
	"strconv"
	"strings"
)

// RegisterRange is an inclusive range of register addresses.
type RegisterRange struct {
	Start byte
	End   byte
}

// Contains reports whether addr lies within r.
func (r RegisterRange) Contains(addr byte) bool {
	return addr >= r.Start && addr <= r.End
}

// ParseRegisterRanges parses a comma separated list such as "0x19-0x1C,0x6B".
// Addresses may be written in any base strconv.ParseUint accepts.
func ParseRegisterRanges(s string) ([]RegisterRange, error) {
	var ranges []RegisterRange
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		lo, hi, isRange := strings.Cut(part, "-")
		start, err := parseRegister(lo)
		if err != nil {
			return nil, err
		}
		end := start
		if isRange {
			if end, err = parseRegister(hi); err != nil {
				return nil, err
			}
		}
		if end < start {
			return nil, fmt.Errorf("register range %q is reversed", part)
		}
		ranges = append(ranges, RegisterRange{Start: start, End: end})
	}
	return ranges, nil
}

func parseRegister(s string) (byte, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 8)
	if err != nil {
		return 0, fmt.Errorf("register %q: %w", s, err)
	}
	return byte(v), nil
}

// AnyContains reports whether any range in ranges contains addr.
func AnyContains(ranges []RegisterRange, addr byte) bool {
	for _, r := range ranges {
		if r.Contains(addr) {
			return true
		}
	}
	return false
}
