package colstore

import (
	"path/filepath"
	"slices"
	"strings"
)

// Extensions of the on-disk artifacts of a column.
const (
	ExtData   = "array"
	ExtMeta   = "meta"
	ExtIndex  = "index"
	ExtIndex1 = "index1"
	ExtSorted = "sorted"
	ExtCols   = "cols"
	ExtChunks = "chunks"
	ExtJSON   = "json"
)

var allowedExtensions = []string{ExtData, ExtMeta, ExtIndex, ExtIndex1, ExtSorted, ExtCols, ExtChunks, ExtJSON}

// ExtensionAllowed reports whether ext (with or without a leading dot) names
// a column artifact.
func ExtensionAllowed(ext string) bool {
	return slices.Contains(allowedExtensions, strings.TrimPrefix(ext, "."))
}

// Paths names the files of one column.
type Paths struct {
	Base   string
	Data   string
	Chunks string
	Meta   string
	Index  string
	Index1 string
	Sorted string
	Cols   string
	JSON   string
}

// PathsFor derives the artifact names of the column at path. path may be
// the base name or any artifact of the column.
func PathsFor(path string) Paths {
	base := path
	if ext := filepath.Ext(path); ext != "" && ExtensionAllowed(ext) {
		base = strings.TrimSuffix(path, ext)
	}
	with := func(ext string) string { return base + "." + ext }
	return Paths{
		Base:   base,
		Data:   with(ExtData),
		Chunks: with(ExtChunks),
		Meta:   with(ExtMeta),
		Index:  with(ExtIndex),
		Index1: with(ExtIndex1),
		Sorted: with(ExtSorted),
		Cols:   with(ExtCols),
		JSON:   with(ExtJSON),
	}
}

// Name returns the column name, the base name without directory.
func (p Paths) Name() string { return filepath.Base(p.Base) }
