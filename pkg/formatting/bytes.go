// Package formatting reads and writes the human-facing values verdant deals
// in: byte sizes for image limits and JSON replies from the models.
package formatting

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var units = []string{
	"B", "KB", "MB",
	"GB", "TB", "PB",
	"EB", "ZB", "YB",
}

var bytesPattern = regexp.MustCompile(`^(\d+\.?\d*)\s*([A-Za-z]*)$`)

// ErrInvalidSize is returned for byte sizes ParseBytes cannot read.
var ErrInvalidSize = errors.New("invalid byte size")

// FormatBytes converts a byte count to a human-readable string using base-1024 units.
// Negative precision values are clamped to zero.
func FormatBytes(n int64, precision int) string {
	if n == 0 {
		return "0 B"
	}

	if precision < 0 {
		precision = 0
	}

	f := float64(n)
	k := 1024.0
	i := int(math.Floor(math.Log(f) / math.Log(k)))

	if i >= len(units) {
		i = len(units) - 1
	}

	size := f / math.Pow(k, float64(i))
	formatted := strconv.FormatFloat(size, 'f', precision, 64)

	return formatted + " " + units[i]
}

// ParseBytes parses a byte size such as "20MB" or "512 KiB" into a byte
// count. Units run from B to YB and are base-1024 whether written SI-style
// (KB) or IEC-style (KiB). Matching is case-insensitive, a space may separate
// number and unit, and a bare number is bytes. Sizes beyond int64 fail.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidSize)
	}

	matches := bytesPattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidSize, err)
	}

	unit := strings.ToUpper(matches[2])
	if len(unit) == 3 && unit[1] == 'I' {
		unit = unit[:1] + "B"
	}

	idx := 0
	if unit != "" {
		idx = slices.Index(units, unit)
		if idx == -1 {
			return 0, fmt.Errorf("%w: unknown unit %q", ErrInvalidSize, matches[2])
		}
	}

	n := value * math.Pow(1024, float64(idx))
	if n >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %q overflows", ErrInvalidSize, s)
	}
	return int64(n), nil
}
