package colstore

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// ParseSize parses sizes such as "1m", "64KiB" or "1 GB". Single-letter
// suffixes are binary units, so "1m" is 1 MiB.
func ParseSize(s string) (int64, error) {
	t := strings.ToLower(strings.TrimSpace(s))
	if n := len(t); n > 0 && strings.ContainsRune("kmgtpe", rune(t[n-1])) {
		t += "i"
	}
	v, err := humanize.ParseBytes(t)
	if err != nil {
		return 0, fmt.Errorf("%w: size %q: %w", ErrValue, s, err)
	}
	if v > 1<<62 {
		return 0, fmt.Errorf("%w: size %q is too large", ErrValue, s)
	}
	return int64(v), nil
}
