package fontkit

import (
	"bytes"
	"encoding/binary"
	"fmt"

	tdfont "github.com/tdewolff/font"
)

const (
	woff2Signature  = 0x774F4632 // "wOF2"
	woff2HeaderSize = 48

	flavorCollection = 0x74746366 // "ttcf"
)

type woff2Header struct {
	Signature           uint32
	Flavor              uint32
	Length              uint32
	NumTables           uint16
	Reserved            uint16
	TotalSfntSize       uint32
	TotalCompressedSize uint32
	MajorVersion        uint16
	MinorVersion        uint16
	MetaOffset          uint32
	MetaLength          uint32
	MetaOrigLength      uint32
	PrivOffset          uint32
	PrivLength          uint32
}

// woff2KnownTags is the fixed tag table from the WOFF2 format; the index
// is stored in the low six bits of the flags byte.
var woff2KnownTags = [63]string{
	"cmap", "head", "hhea", "hmtx", "maxp", "name", "OS/2", "post",
	"cvt ", "fpgm", "glyf", "loca", "prep", "CFF ", "VORG", "EBDT",
	"EBLC", "gasp", "hdmx", "kern", "LTSH", "PCLT", "VDMX", "vhea",
	"vmtx", "BASE", "GDEF", "GPOS", "GSUB", "EBSC", "JSTF", "MATH",
	"CBDT", "CBLC", "COLR", "CPAL", "SVG ", "sbix", "acnt", "avar",
	"bdat", "bloc", "bsln", "cvar", "fdsc", "feat", "fmtx", "fvar",
	"gvar", "hsty", "just", "lcar", "mort", "morx", "opbd", "prop",
	"trak", "Zapf", "Silf", "Glat", "Gloc", "Feat", "Sill",
}

var woff2TagIndex = func() map[string]byte {
	m := make(map[string]byte, len(woff2KnownTags))
	for i, tag := range woff2KnownTags {
		m[tag] = byte(i)
	}
	return m
}()

// nullTransform returns the transform version meaning "stored as is".
func nullTransform(tag string) byte {
	if tag == "glyf" || tag == "loca" {
		return 3
	}
	return 0
}

// encodeWOFF2 wraps sfnt tables into a WOFF2 file. All tables use the null
// transform and are compressed together in one brotli stream, in order with
// loca moved right behind glyf.
func encodeWOFF2(codec Codec, scalerType uint32, tables map[string][]byte, order []string) ([]byte, error) {
	if codec == nil {
		return nil, ErrCodecUnavailable
	}
	tags := woff2Order(order)

	dir := &bytes.Buffer{}
	stream := &bytes.Buffer{}
	for _, tag := range tags {
		body := tables[tag]
		flags := nullTransform(tag) << 6
		if idx, ok := woff2TagIndex[tag]; ok {
			dir.WriteByte(flags | idx)
		} else {
			dir.WriteByte(flags | 0x3F)
			dir.WriteString(tag)
		}
		dir.Write(appendUIntBase128(nil, uint32(len(body))))
		stream.Write(body)
	}

	compressed, err := codec.Compress(stream.Bytes())
	if err != nil {
		return nil, fmt.Errorf("woff2: compress tables: %w", err)
	}

	hdr := woff2Header{
		Signature:           woff2Signature,
		Flavor:              scalerType,
		NumTables:           uint16(len(tags)),
		TotalSfntSize:       sfntSize(tables),
		TotalCompressedSize: uint32(len(compressed)),
	}
	if head := tables["head"]; len(head) >= 8 {
		hdr.MajorVersion = binary.BigEndian.Uint16(head[4:6])
		hdr.MinorVersion = binary.BigEndian.Uint16(head[6:8])
	}
	hdr.Length = pad4(uint32(woff2HeaderSize + dir.Len() + len(compressed)))

	buf := bytes.NewBuffer(make([]byte, 0, hdr.Length))
	_ = binary.Write(buf, binary.BigEndian, &hdr)
	buf.Write(dir.Bytes())
	buf.Write(compressed)
	for buf.Len() < int(hdr.Length) {
		buf.WriteByte(0)
	}
	return buf.Bytes(), nil
}

// woff2Order returns order with loca placed directly after glyf.
func woff2Order(order []string) []string {
	hasGlyf, hasLoca := false, false
	for _, tag := range order {
		switch tag {
		case "glyf":
			hasGlyf = true
		case "loca":
			hasLoca = true
		}
	}
	if !hasGlyf || !hasLoca {
		return order
	}

	out := make([]string, 0, len(order))
	for _, tag := range order {
		switch tag {
		case "loca":
		case "glyf":
			out = append(out, "glyf", "loca")
		default:
			out = append(out, tag)
		}
	}
	return out
}

// decodeWOFF2 checks the WOFF2 header and table directory, then lets
// tdewolff/font decompress the tables and undo glyf/loca/hmtx transforms.
func decodeWOFF2(codec Codec, data []byte) (uint32, map[string][]byte, error) {
	if err := checkWOFF2(data); err != nil {
		return 0, nil, err
	}
	if codec == nil {
		return 0, nil, ErrCodecUnavailable
	}
	sfntData, err := tdfont.ParseWOFF2(data)
	if err != nil {
		return 0, nil, invalid("woff2", "%v", err)
	}
	return readSFNT(sfntData)
}

// checkWOFF2 validates the header and the table directory and caps the
// sizes the directory declares, before anything is decompressed.
func checkWOFF2(data []byte) error {
	if len(data) < woff2HeaderSize {
		return invalid("woff2", "file too short")
	}
	var hdr woff2Header
	if err := binary.Read(bytes.NewReader(data), binary.BigEndian, &hdr); err != nil {
		return err
	}
	if hdr.Signature != woff2Signature {
		return invalid("woff2", "bad signature 0x%08x", hdr.Signature)
	}
	if hdr.Flavor == flavorCollection {
		return &NotSupportedError{SubSystem: "woff2", Feature: "font collections"}
	}
	if hdr.NumTables == 0 {
		return invalid("woff2", "no tables")
	}
	if int(hdr.Length) != len(data) {
		return invalid("woff2", "length field %d does not match file size %d", hdr.Length, len(data))
	}
	if hdr.TotalSfntSize > maxSFNTSize {
		return invalid("woff2", "declared sfnt size %d exceeds %d", hdr.TotalSfntSize, maxSFNTSize)
	}

	pos := woff2HeaderSize
	var origTotal, streamTotal uint64
	for i := 0; i < int(hdr.NumTables); i++ {
		if pos >= len(data) {
			return invalid("woff2", "table directory extends beyond EOF")
		}
		flags := data[pos]
		pos++

		var tag string
		if idx := flags & 0x3F; idx == 0x3F {
			if pos+4 > len(data) {
				return invalid("woff2", "table directory extends beyond EOF")
			}
			tag = string(data[pos : pos+4])
			pos += 4
		} else {
			tag = woff2KnownTags[idx]
		}

		origLength, n, err := readUIntBase128(data[pos:])
		if err != nil {
			return err
		}
		pos += n
		origTotal += uint64(origLength)

		storedLength := origLength
		if version := flags >> 6; version != nullTransform(tag) {
			storedLength, n, err = readUIntBase128(data[pos:])
			if err != nil {
				return err
			}
			pos += n
		}
		streamTotal += uint64(storedLength)
	}
	if origTotal > maxSFNTSize || streamTotal > maxSFNTSize {
		return invalid("woff2", "tables expand to %d bytes, limit is %d", max(origTotal, streamTotal), maxSFNTSize)
	}

	end := uint64(pos) + uint64(hdr.TotalCompressedSize)
	if end > uint64(len(data)) {
		return invalid("woff2", "compressed data extends beyond EOF")
	}
	return nil
}

// appendUIntBase128 appends v in the WOFF2 variable-length encoding.
func appendUIntBase128(dst []byte, v uint32) []byte {
	var tmp [5]byte
	i := len(tmp) - 1
	tmp[i] = byte(v & 0x7F)
	for v >>= 7; v != 0; v >>= 7 {
		i--
		tmp[i] = byte(v&0x7F) | 0x80
	}
	return append(dst, tmp[i:]...)
}

// readUIntBase128 decodes one UIntBase128 value and returns the bytes used.
func readUIntBase128(data []byte) (uint32, int, error) {
	var v uint32
	for i := 0; i < 5; i++ {
		if i >= len(data) {
			return 0, 0, invalid("woff2", "truncated UIntBase128")
		}
		b := data[i]
		if i == 0 && b == 0x80 {
			return 0, 0, invalid("woff2", "UIntBase128 with leading zero")
		}
		if v&0xFE000000 != 0 {
			return 0, 0, invalid("woff2", "UIntBase128 overflow")
		}
		v = v<<7 | uint32(b&0x7F)
		if b&0x80 == 0 {
			return v, i + 1, nil
		}
	}
	return 0, 0, invalid("woff2", "UIntBase128 longer than 5 bytes")
}
