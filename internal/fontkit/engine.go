package fontkit

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	xsfnt "golang.org/x/image/font/sfnt"
)

const (
	scalerTrueType = 0x00010000
	scalerCFF      = 0x4F54544F // "OTTO"
	scalerApple    = 0x74727565 // "true"
)

// Engine loads fonts from any supported container and re-serializes them.
// An Engine is safe for concurrent use.
type Engine struct {
	brotli    Codec
	readFile  func(name string) ([]byte, error)
	writeFile func(name string, data []byte) error
}

// Option configures an Engine.
type Option func(*Engine)

// WithBrotli replaces the WOFF2 codec. A nil codec disables WOFF2.
func WithBrotli(codec Codec) Option {
	return func(e *Engine) {
		e.brotli = codec
	}
}

// NewEngine builds an engine using the compiled-in codecs.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		brotli:    defaultBrotli,
		readFile:  os.ReadFile,
		writeFile: writeFileAtomic,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Supports reports whether format can be produced. WOFF2 needs the brotli
// codec; its absence yields ErrCodecUnavailable.
func (e *Engine) Supports(format Format) error {
	switch format {
	case FormatTTF, FormatOTF, FormatWOFF, FormatEOT:
		return nil
	case FormatWOFF2:
		if e.brotli == nil {
			return ErrCodecUnavailable
		}
		return nil
	default:
		return fmt.Errorf("unknown font format: %q", format)
	}
}

// Load reads and parses one font file.
func (e *Engine) Load(path string) (*Font, error) {
	data, err := e.readFile(path)
	if err != nil {
		return nil, err
	}
	return e.Decode(data)
}

// Decode detects the container of data, unpacks the sfnt tables and checks
// that they form a usable font.
func (e *Engine) Decode(data []byte) (*Font, error) {
	if len(data) < 4 {
		return nil, invalid("fontkit", "file too short")
	}

	var (
		scalerType uint32
		tables     map[string][]byte
		source     Container
		err        error
	)
	switch magic := binary.BigEndian.Uint32(data); magic {
	case scalerTrueType, scalerCFF, scalerApple:
		source = ContainerSFNT
		scalerType, tables, err = readSFNT(data)
	case woffSignature:
		source = ContainerWOFF
		scalerType, tables, err = decodeWOFF(data)
	case woff2Signature:
		source = ContainerWOFF2
		scalerType, tables, err = decodeWOFF2(e.brotli, data)
	case flavorCollection:
		err = &NotSupportedError{SubSystem: "sfnt", Feature: "font collections"}
	default:
		if !isEOT(data) {
			err = &NotSupportedError{
				SubSystem: "fontkit",
				Feature:   fmt.Sprintf("container with magic 0x%08x", magic),
			}
			break
		}
		source = ContainerEOT
		scalerType, tables, err = decodeEOT(data)
	}
	if err != nil {
		return nil, err
	}

	f := &Font{
		ScalerType: scalerType,
		Source:     source,
		tables:     tables,
	}
	if err := f.inspect(); err != nil {
		return nil, err
	}
	return f, nil
}

// inspect validates the tables with an independent sfnt parser and reads
// the glyph count and name strings.
func (f *Font) inspect() error {
	data, err := writeSFNT(f.ScalerType, f.cloneTables())
	if err != nil {
		return err
	}
	parsed, err := xsfnt.Parse(data)
	if err != nil {
		return err
	}

	f.NumGlyphs = parsed.NumGlyphs()
	var buf xsfnt.Buffer
	lookup := func(id xsfnt.NameID) string {
		name, err := parsed.Name(&buf, id)
		if err != nil {
			return ""
		}
		return name
	}
	f.Names = Names{
		Family:  lookup(xsfnt.NameIDFamily),
		Style:   lookup(xsfnt.NameIDSubfamily),
		Version: lookup(xsfnt.NameIDVersion),
		Full:    lookup(xsfnt.NameIDFull),
	}
	return nil
}

// Encode serializes f in the given format. Every call works on its own
// copy of the tables, so repeated calls do not affect each other.
func (e *Engine) Encode(f *Font, format Format) ([]byte, error) {
	if err := e.Supports(format); err != nil {
		return nil, err
	}

	tables := f.cloneTables()
	sfntData, err := writeSFNT(f.ScalerType, tables)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatWOFF, FormatWOFF2:
		order, err := tableOrder(sfntData, tables)
		if err != nil {
			return nil, err
		}
		if format == FormatWOFF {
			return encodeWOFF(f.ScalerType, tables, order)
		}
		return encodeWOFF2(e.brotli, f.ScalerType, tables, order)
	case FormatEOT:
		return encodeEOT(sfntData, tables, f.Names)
	default:
		return sfntData, nil
	}
}

// Save encodes f and writes it to path. A partially written file never
// replaces an existing one.
func (e *Engine) Save(f *Font, format Format, path string) error {
	data, err := e.Encode(f, format)
	if err != nil {
		return err
	}
	return e.writeFile(path, data)
}

// writeFileAtomic writes data to a temp file next to path and renames it.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}
