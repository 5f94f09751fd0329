package fontkit

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/image/font/gofont/goregular"
)

// loadFixture decodes the Go Regular TrueType font.
func loadFixture(t *testing.T, e *Engine) *Font {
	t.Helper()
	f, err := e.Decode(goregular.TTF)
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return f
}

// comparableTables copies the tables with head.checkSumAdjustment cleared,
// since that field depends on the table layout of the written file.
func comparableTables(f *Font) map[string][]byte {
	tables := f.cloneTables()
	if head := tables["head"]; len(head) >= 12 {
		copy(head[8:12], []byte{0, 0, 0, 0})
	}
	return tables
}

// TestDecodeSFNT checks that a plain TrueType file loads with metadata.
func TestDecodeSFNT(t *testing.T) {
	f := loadFixture(t, NewEngine())

	if f.Source != ContainerSFNT {
		t.Fatalf("source = %s, want sfnt", f.Source)
	}
	if f.IsCFF() {
		t.Fatal("Go Regular should have TrueType outlines")
	}
	if f.NumGlyphs == 0 {
		t.Fatal("expected glyphs")
	}
	if f.Names.Family != "Go" {
		t.Fatalf("family = %q, want Go", f.Names.Family)
	}
	for _, tag := range []string{"head", "glyf", "loca", "cmap"} {
		if f.Table(tag) == nil {
			t.Fatalf("missing %q table", tag)
		}
	}
}

// TestEncodeDecodePreservesTables converts to every format and back.
func TestEncodeDecodePreservesTables(t *testing.T) {
	e := NewEngine()
	f := loadFixture(t, e)
	want := comparableTables(f)

	wantSource := map[Format]Container{
		FormatTTF:   ContainerSFNT,
		FormatOTF:   ContainerSFNT,
		FormatWOFF:  ContainerWOFF,
		FormatWOFF2: ContainerWOFF2,
		FormatEOT:   ContainerEOT,
	}
	for _, format := range Formats() {
		t.Run(string(format), func(t *testing.T) {
			data, err := e.Encode(f, format)
			if err != nil {
				t.Fatalf("Encode(%s) error = %v", format, err)
			}

			back, err := e.Decode(data)
			if err != nil {
				t.Fatalf("Decode(%s) error = %v", format, err)
			}
			if back.Source != wantSource[format] {
				t.Fatalf("source = %s, want %s", back.Source, wantSource[format])
			}
			if back.ScalerType != f.ScalerType {
				t.Fatalf("scaler type = %08x, want %08x", back.ScalerType, f.ScalerType)
			}
			if diff := cmp.Diff(want, comparableTables(back)); diff != "" {
				t.Fatalf("tables differ (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(f.Names, back.Names); diff != "" {
				t.Fatalf("names differ (-want +got):\n%s", diff)
			}
		})
	}
}

// TestEncodeIsIndependentPerFormat checks that one loaded font can be
// serialized repeatedly without earlier runs leaking into later ones.
func TestEncodeIsIndependentPerFormat(t *testing.T) {
	e := NewEngine()
	f := loadFixture(t, e)
	before := f.cloneTables()

	first, err := e.Encode(f, FormatTTF)
	if err != nil {
		t.Fatalf("encode ttf: %v", err)
	}
	for _, format := range []Format{FormatWOFF, FormatWOFF2, FormatEOT} {
		if _, err := e.Encode(f, format); err != nil {
			t.Fatalf("encode %s: %v", format, err)
		}
	}
	second, err := e.Encode(f, FormatTTF)
	if err != nil {
		t.Fatalf("encode ttf again: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Fatal("repeated ttf encodes differ")
	}
	if diff := cmp.Diff(before, f.cloneTables()); diff != "" {
		t.Fatalf("loaded tables were modified (-before +after):\n%s", diff)
	}
}

// TestWOFF2WithoutCodec checks the disabled-codec error on both paths.
func TestWOFF2WithoutCodec(t *testing.T) {
	withCodec := NewEngine()
	f := loadFixture(t, withCodec)
	woff2Data, err := withCodec.Encode(f, FormatWOFF2)
	if err != nil {
		t.Fatalf("encode woff2: %v", err)
	}

	e := NewEngine(WithBrotli(nil))
	if err := e.Supports(FormatWOFF2); !errors.Is(err, ErrCodecUnavailable) {
		t.Fatalf("Supports() error = %v, want %v", err, ErrCodecUnavailable)
	}
	if err := e.Supports(FormatWOFF); err != nil {
		t.Fatalf("Supports(woff) error = %v", err)
	}
	if _, err := e.Encode(f, FormatWOFF2); !errors.Is(err, ErrCodecUnavailable) {
		t.Fatalf("Encode() error = %v, want %v", err, ErrCodecUnavailable)
	}
	if _, err := e.Decode(woff2Data); !errors.Is(err, ErrCodecUnavailable) {
		t.Fatalf("Decode() error = %v, want %v", err, ErrCodecUnavailable)
	}
}

// TestDecodeRejectsUnsupportedInputs checks container sniffing failures.
func TestDecodeRejectsUnsupportedInputs(t *testing.T) {
	e := NewEngine()

	cases := map[string][]byte{
		"garbage":    []byte("definitely not a font file"),
		"collection": append([]byte("ttcf"), make([]byte, 32)...),
		"woff2 collection": func() []byte {
			data := make([]byte, woff2HeaderSize)
			binary.BigEndian.PutUint32(data[0:], woff2Signature)
			binary.BigEndian.PutUint32(data[4:], flavorCollection)
			return data
		}(),
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := e.Decode(data)
			var nsErr *NotSupportedError
			if !errors.As(err, &nsErr) {
				t.Fatalf("Decode() error = %v, want *NotSupportedError", err)
			}
		})
	}

	if _, err := e.Decode([]byte{0, 1}); err == nil {
		t.Fatal("expected error for short input")
	}
}

// TestDecodeWOFFRejectsBadLength checks header validation.
func TestDecodeWOFFRejectsBadLength(t *testing.T) {
	e := NewEngine()
	f := loadFixture(t, e)
	data, err := e.Encode(f, FormatWOFF)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	truncated := data[:len(data)-8]
	_, err = e.Decode(truncated)
	var invErr *InvalidFontError
	if !errors.As(err, &invErr) {
		t.Fatalf("Decode() error = %v, want *InvalidFontError", err)
	}
}

// TestDecodeEOTObfuscated checks XOR-obfuscated font data is restored.
func TestDecodeEOTObfuscated(t *testing.T) {
	e := NewEngine()
	f := loadFixture(t, e)
	data, err := e.Encode(f, FormatEOT)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	flags := binary.LittleEndian.Uint32(data[12:16])
	binary.LittleEndian.PutUint32(data[12:16], flags|eotFlagXOR)
	fontDataSize := int(binary.LittleEndian.Uint32(data[4:8]))
	for i := len(data) - fontDataSize; i < len(data); i++ {
		data[i] ^= eotXORKey
	}

	back, err := e.Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if diff := cmp.Diff(comparableTables(f), comparableTables(back)); diff != "" {
		t.Fatalf("tables differ (-want +got):\n%s", diff)
	}

	binary.LittleEndian.PutUint32(data[12:16], flags|eotFlagCompressed)
	if _, err := e.Decode(data); err == nil {
		t.Fatal("expected error for font data flagged as MTX compressed")
	}
}

// TestEncodeEOTHeaderFields checks values copied from OS/2 and name.
func TestEncodeEOTHeaderFields(t *testing.T) {
	e := NewEngine()
	f := loadFixture(t, e)
	data, err := e.Encode(f, FormatEOT)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	if got := binary.LittleEndian.Uint32(data[0:4]); int(got) != len(data) {
		t.Fatalf("EOTSize = %d, want %d", got, len(data))
	}
	if got := binary.LittleEndian.Uint32(data[8:12]); got != eotVersion21 {
		t.Fatalf("version = %08x, want %08x", got, eotVersion21)
	}
	os2 := f.Table("OS/2")
	if got, want := binary.LittleEndian.Uint32(data[28:32]), uint32(binary.BigEndian.Uint16(os2[4:6])); got != want {
		t.Fatalf("weight = %d, want %d", got, want)
	}

	familySize := int(binary.LittleEndian.Uint16(data[eotFixedSize:]))
	family, err := utf16le.NewDecoder().Bytes(data[eotFixedSize+2 : eotFixedSize+2+familySize])
	if err != nil {
		t.Fatalf("decode family name: %v", err)
	}
	if string(family) != f.Names.Family {
		t.Fatalf("family = %q, want %q", family, f.Names.Family)
	}
}

// TestSaveWritesAtomically checks the output lands without temp leftovers.
func TestSaveWritesAtomically(t *testing.T) {
	e := NewEngine()
	f := loadFixture(t, e)
	dir := t.TempDir()
	path := filepath.Join(dir, "go.woff")

	if err := e.Save(f, FormatWOFF, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if binary.BigEndian.Uint32(data) != woffSignature {
		t.Fatal("output is not a WOFF file")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("dir entries = %d, want 1", len(entries))
	}
}

// TestLoadMissingFile checks filesystem errors surface unchanged.
func TestLoadMissingFile(t *testing.T) {
	_, err := NewEngine().Load(filepath.Join(t.TempDir(), "missing.ttf"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Load() error = %v, want not exist", err)
	}
}
