package compression

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownAlgorithm is returned for algorithm or shuffle names this
// package does not implement.
var ErrUnknownAlgorithm = errors.New("unknown compression algorithm")

// Algorithm identifies a block compressor. The numeric values are persisted
// in chunk headers and must not change.
type Algorithm uint8

const (
	None   Algorithm = 0
	LZ4    Algorithm = 1
	ZSTD   Algorithm = 2
	LZ4HC  Algorithm = 3
	Zlib   Algorithm = 4
	Snappy Algorithm = 5
	S2     Algorithm = 6
)

var algorithmNames = map[Algorithm]string{
	None:   "none",
	LZ4:    "lz4",
	ZSTD:   "zstd",
	LZ4HC:  "lz4hc",
	Zlib:   "zlib",
	Snappy: "snappy",
	S2:     "s2",
}

func (a Algorithm) String() string {
	if s, ok := algorithmNames[a]; ok {
		return s
	}
	return fmt.Sprintf("algorithm(%d)", uint8(a))
}

// ParseAlgorithm maps a codec name to an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return None, nil
	}
	for a, s := range algorithmNames {
		if s == n {
			return a, nil
		}
	}
	return None, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

// Shuffle is the pre-filter applied to fixed-width elements before
// compression.
type Shuffle uint8

const (
	NoShuffle   Shuffle = 0
	ByteShuffle Shuffle = 1
	BitShuffle  Shuffle = 2
)

func (s Shuffle) String() string {
	switch s {
	case NoShuffle:
		return "none"
	case ByteShuffle:
		return "shuffle"
	case BitShuffle:
		return "bitshuffle"
	}
	return fmt.Sprintf("shuffle(%d)", uint8(s))
}

// ParseShuffle maps a filter name ("none", "shuffle", "bitshuffle") to a Shuffle.
func ParseShuffle(name string) (Shuffle, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none", "noshuffle":
		return NoShuffle, nil
	case "shuffle", "byteshuffle":
		return ByteShuffle, nil
	case "bitshuffle":
		return BitShuffle, nil
	}
	return NoShuffle, fmt.Errorf("%w: shuffle %q", ErrUnknownAlgorithm, name)
}

// Defaults match the on-disk defaults of the column store.
const (
	DefaultAlgorithm = ZSTD
	DefaultLevel     = 5
	DefaultShuffle   = BitShuffle
)

// Config selects the compressor, its level and the shuffle pre-filter.
type Config struct {
	Algorithm Algorithm
	Level     int
	Shuffle   Shuffle
}

// DefaultConfig returns zstd level 5 with bitshuffle.
func DefaultConfig() Config {
	return Config{Algorithm: DefaultAlgorithm, Level: DefaultLevel, Shuffle: DefaultShuffle}
}

// NewConfig builds a Config from names, e.g. NewConfig("zstd", 5, "bitshuffle").
func NewConfig(algorithm string, level int, shuffle string) (Config, error) {
	a, err := ParseAlgorithm(algorithm)
	if err != nil {
		return Config{}, err
	}
	s, err := ParseShuffle(shuffle)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{Algorithm: a, Level: level, Shuffle: s}
	return cfg, cfg.Validate()
}

// Validate checks that the algorithm and shuffle are known and the level is
// within the range the algorithm accepts.
func (c Config) Validate() error {
	if _, ok := algorithmNames[c.Algorithm]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAlgorithm, c.Algorithm)
	}
	if c.Shuffle > BitShuffle {
		return fmt.Errorf("%w: %s", ErrUnknownAlgorithm, c.Shuffle)
	}
	lo, hi := levelRange(c.Algorithm)
	if c.Level < lo || c.Level > hi {
		return fmt.Errorf("compression: level %d out of range [%d, %d] for %s", c.Level, lo, hi, c.Algorithm)
	}
	return nil
}

func (c Config) String() string {
	return fmt.Sprintf("%s(level=%d, %s)", c.Algorithm, c.Level, c.Shuffle)
}

func levelRange(a Algorithm) (int, int) {
	switch a {
	case ZSTD:
		return 0, 22
	case LZ4HC:
		return 0, 9
	case Zlib:
		return -1, 9
	case S2:
		return 0, 3
	default:
		return 0, 9
	}
}
