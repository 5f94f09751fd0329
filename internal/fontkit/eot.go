package fontkit

import (
	"bytes"
	"encoding/binary"

	tdfont "github.com/tdewolff/font"
	"golang.org/x/text/encoding/unicode"
)

const (
	eotMagic     = 0x504C
	eotVersion21 = 0x00020001
	eotFixedSize = 82

	eotFlagCompressed = 0x00000004
	eotFlagXOR        = 0x10000000
	eotXORKey         = 0x50

	defaultCharset = 1
)

// eotFixed is the fixed-size prefix of an EOT header, little-endian.
type eotFixed struct {
	EOTSize            uint32
	FontDataSize       uint32
	Version            uint32
	Flags              uint32
	Panose             [10]byte
	Charset            byte
	Italic             byte
	Weight             uint32
	FsType             uint16
	MagicNumber        uint16
	UnicodeRange       [4]uint32
	CodePageRange      [2]uint32
	CheckSumAdjustment uint32
	Reserved           [4]uint32
	Padding1           uint16
}

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// isEOT reports whether data starts with a plausible EOT header.
func isEOT(data []byte) bool {
	if len(data) < eotFixedSize {
		return false
	}
	if binary.LittleEndian.Uint16(data[34:36]) != eotMagic {
		return false
	}
	switch binary.LittleEndian.Uint32(data[8:12]) {
	case 0x00010000, 0x00020001, 0x00020002:
		return true
	}
	return false
}

// decodeEOT checks the EOT size fields, then lets tdewolff/font undo XOR
// obfuscation and MicroType Express compression.
func decodeEOT(data []byte) (uint32, map[string][]byte, error) {
	if !isEOT(data) {
		return 0, nil, invalid("eot", "bad header")
	}
	eotSize := binary.LittleEndian.Uint32(data[0:4])
	fontDataSize := binary.LittleEndian.Uint32(data[4:8])

	if eotSize < eotFixedSize || uint64(eotSize) > uint64(len(data)) {
		return 0, nil, invalid("eot", "bad EOTSize %d for file size %d", eotSize, len(data))
	}
	if fontDataSize == 0 || fontDataSize > eotSize-eotFixedSize {
		return 0, nil, invalid("eot", "bad FontDataSize %d", fontDataSize)
	}

	sfntData, err := tdfont.ParseEOT(data[:eotSize])
	if err != nil {
		return 0, nil, invalid("eot", "%v", err)
	}
	if len(sfntData) > maxSFNTSize {
		return 0, nil, invalid("eot", "font data expands to %d bytes, limit is %d", len(sfntData), maxSFNTSize)
	}
	return readSFNT(sfntData)
}

// encodeEOT wraps an sfnt file into an uncompressed EOT version 2.1 file.
func encodeEOT(sfntData []byte, tables map[string][]byte, names Names) ([]byte, error) {
	fixed := eotFixed{
		FontDataSize: uint32(len(sfntData)),
		Version:      eotVersion21,
		Charset:      defaultCharset,
		Weight:       400,
		MagicNumber:  eotMagic,
	}
	if os2 := tables["OS/2"]; len(os2) >= 78 {
		fixed.Weight = uint32(binary.BigEndian.Uint16(os2[4:6]))
		fixed.FsType = binary.BigEndian.Uint16(os2[8:10])
		copy(fixed.Panose[:], os2[32:42])
		for i := range fixed.UnicodeRange {
			fixed.UnicodeRange[i] = binary.BigEndian.Uint32(os2[42+4*i:])
		}
		fixed.Italic = byte(binary.BigEndian.Uint16(os2[62:64]) & 1)
		if len(os2) >= 86 && binary.BigEndian.Uint16(os2[0:2]) >= 1 {
			fixed.CodePageRange[0] = binary.BigEndian.Uint32(os2[78:82])
			fixed.CodePageRange[1] = binary.BigEndian.Uint32(os2[82:86])
		}
	}
	if head := tables["head"]; len(head) >= 12 {
		fixed.CheckSumAdjustment = binary.BigEndian.Uint32(head[8:12])
	}

	enc := utf16le.NewEncoder()
	body := &bytes.Buffer{}
	for i, name := range []string{names.Family, names.Style, names.Version, names.Full} {
		encoded, err := enc.Bytes([]byte(name))
		if err != nil {
			return nil, err
		}
		if i > 0 {
			_ = binary.Write(body, binary.LittleEndian, uint16(0))
		}
		_ = binary.Write(body, binary.LittleEndian, uint16(len(encoded)))
		body.Write(encoded)
	}
	// Padding5 and an empty RootString.
	_ = binary.Write(body, binary.LittleEndian, uint16(0))
	_ = binary.Write(body, binary.LittleEndian, uint16(0))

	fixed.EOTSize = uint32(eotFixedSize + body.Len() + len(sfntData))

	buf := bytes.NewBuffer(make([]byte, 0, fixed.EOTSize))
	_ = binary.Write(buf, binary.LittleEndian, &fixed)
	buf.Write(body.Bytes())
	buf.Write(sfntData)
	return buf.Bytes(), nil
}
