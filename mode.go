package colstore

import "fmt"

// Mode is the open mode of a column.
type Mode string

const (
	// ModeRead opens an existing column read-only.
	ModeRead Mode = "r"
	// ModeReadWrite opens a column for reading and writing, creating it
	// when absent.
	ModeReadWrite Mode = "r+"
	// ModeCreate creates a column, discarding any existing contents.
	ModeCreate Mode = "w+"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeRead, ModeReadWrite, ModeCreate:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// Writable reports whether the mode permits mutation.
func (m Mode) Writable() bool { return m == ModeReadWrite || m == ModeCreate }

func (m Mode) String() string { return string(m) }
