// Package meta stores free-form JSON attributes next to a column or table.
//
// A Meta opened read-only can only be read; Write and Update fail with an
// error matching fs.ErrPermission. Writes replace the file atomically.
package meta

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hupe1980/colstore/codec"
	"github.com/hupe1980/colstore/internal/fs"
)

// Mode is the access mode of a Meta.
type Mode string

const (
	ReadOnly  Mode = "r"
	ReadWrite Mode = "r+"
)

// ErrNotMap is returned by Update when the stored value is not a JSON object.
var ErrNotMap = errors.New("meta: stored data is not an object")

// Meta is a JSON sidecar file.
type Meta struct {
	path  string
	mode  Mode
	codec codec.Codec
	fs    fs.FileSystem
}

// Option configures a Meta.
type Option func(*Meta)

// WithCodec selects the JSON codec. Default: codec.Default.
func WithCodec(c codec.Codec) Option {
	return func(m *Meta) { m.codec = c }
}

// WithFileSystem sets the file system. Default: the local file system.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(m *Meta) { m.fs = fsys }
}

// Open returns a Meta for path. The file need not exist yet.
func Open(path string, mode Mode, opts ...Option) (*Meta, error) {
	if mode != ReadOnly && mode != ReadWrite {
		return nil, fmt.Errorf("meta: invalid mode %q", mode)
	}
	m := &Meta{path: path, mode: mode, codec: codec.Default, fs: fs.Default}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Path returns the file path.
func (m *Meta) Path() string { return m.path }

// Dir returns the directory holding the file.
func (m *Meta) Dir() string { return filepath.Dir(m.path) }

// Name returns the file name without directory and extension.
func (m *Meta) Name() string {
	base := filepath.Base(m.path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Mode returns the access mode.
func (m *Meta) Mode() Mode { return m.mode }

// Read decodes the stored value into v. It fails with an error matching
// fs.ErrNotExist when nothing was written yet.
func (m *Meta) Read(v any) error {
	data, err := m.readFile()
	if err != nil {
		return err
	}
	if err := m.codec.Unmarshal(data, v); err != nil {
		return fmt.Errorf("meta: decode %s: %w", m.path, err)
	}
	return nil
}

// ReadMap reads the stored JSON object.
func (m *Meta) ReadMap() (map[string]any, error) {
	var out map[string]any
	if err := m.Read(&out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, ErrNotMap
	}
	return out, nil
}

// Write replaces the stored value with v.
func (m *Meta) Write(v any) error {
	if err := m.checkWritable("write to metadata"); err != nil {
		return err
	}
	data, err := codec.MarshalPretty(m.codec, v)
	if err != nil {
		return fmt.Errorf("meta: encode %s: %w", m.path, err)
	}
	return m.writeFile(data)
}

// Update merges data into the stored object, overwriting existing keys.
func (m *Meta) Update(data map[string]any) error {
	if err := m.checkWritable("update metadata"); err != nil {
		return err
	}
	current, err := m.ReadMap()
	if err != nil {
		return err
	}
	for k, v := range data {
		current[k] = v
	}
	return m.Write(current)
}

func (m *Meta) String() string {
	var b strings.Builder
	b.WriteString("Meta:\n")
	fmt.Fprintf(&b, "  name: %s\n", m.Name())
	fmt.Fprintf(&b, "  filename: %s\n", m.path)
	b.WriteString("  type: meta")
	return b.String()
}

func (m *Meta) checkWritable(action string) error {
	if m.mode != ReadWrite {
		return &iofs.PathError{Op: action, Path: m.path, Err: fmt.Errorf("read only mode: %w", iofs.ErrPermission)}
	}
	return nil
}

func (m *Meta) readFile() ([]byte, error) {
	f, err := m.fs.OpenFile(m.path, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	data := make([]byte, info.Size())
	if _, err := f.ReadAt(data, 0); err != nil && len(data) > 0 {
		return nil, err
	}
	return data, nil
}

func (m *Meta) writeFile(data []byte) (err error) {
	tmp, err := m.fs.CreateTemp(m.Dir(), "."+filepath.Base(m.path)+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = m.fs.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return m.fs.Rename(tmp.Name(), m.path)
}
