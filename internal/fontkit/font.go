package fontkit

import "sort"

// Font is a loaded font held as raw sfnt tables.
// The table map is never modified after loading, so one Font can be encoded
// to any number of formats independently.
type Font struct {
	ScalerType uint32
	Source     Container
	NumGlyphs  int
	Names      Names

	tables map[string][]byte
}

// Names holds the name-table strings used for messages and EOT headers.
type Names struct {
	Family  string `json:"family"`
	Style   string `json:"style"`
	Version string `json:"version"`
	Full    string `json:"full"`
}

// IsCFF reports whether the outlines are stored in a CFF table.
func (f *Font) IsCFF() bool {
	return f.ScalerType == scalerCFF
}

// Tags returns the table tags in ascending order.
func (f *Font) Tags() []string {
	tags := make([]string, 0, len(f.tables))
	for tag := range f.tables {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Table returns a copy of one table, or nil if it is missing.
func (f *Font) Table(tag string) []byte {
	body, ok := f.tables[tag]
	if !ok {
		return nil
	}
	return append([]byte(nil), body...)
}

// cloneTables deep-copies the table map for one serialization run.
func (f *Font) cloneTables() map[string][]byte {
	out := make(map[string][]byte, len(f.tables))
	for tag, body := range f.tables {
		out[tag] = append([]byte(nil), body...)
	}
	return out
}
