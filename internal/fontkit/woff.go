package fontkit

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"

	tdfont "github.com/tdewolff/font"
)

const (
	woffSignature  = 0x774F4646 // "wOFF"
	woffHeaderSize = 44
	woffEntrySize  = 20
)

type woffHeader struct {
	Signature      uint32
	Flavor         uint32
	Length         uint32
	NumTables      uint16
	Reserved       uint16
	TotalSfntSize  uint32
	MajorVersion   uint16
	MinorVersion   uint16
	MetaOffset     uint32
	MetaLength     uint32
	MetaOrigLength uint32
	PrivOffset     uint32
	PrivLength     uint32
}

type woffEntry struct {
	Tag          [4]byte
	Offset       uint32
	CompLength   uint32
	OrigLength   uint32
	OrigChecksum uint32
}

// decodeWOFF checks the WOFF 1.0 header and table directory, then lets
// tdewolff/font rebuild the sfnt.
func decodeWOFF(data []byte) (uint32, map[string][]byte, error) {
	if err := checkWOFF(data); err != nil {
		return 0, nil, err
	}
	sfntData, err := tdfont.ParseWOFF(data)
	if err != nil {
		return 0, nil, invalid("woff", "%v", err)
	}
	return readSFNT(sfntData)
}

// checkWOFF validates the header and the table directory bounds and caps
// the declared uncompressed size.
func checkWOFF(data []byte) error {
	if len(data) < woffHeaderSize {
		return invalid("woff", "file too short")
	}
	var hdr woffHeader
	if err := binary.Read(bytes.NewReader(data), binary.BigEndian, &hdr); err != nil {
		return err
	}
	if hdr.Signature != woffSignature {
		return invalid("woff", "bad signature 0x%08x", hdr.Signature)
	}
	if hdr.Flavor == flavorCollection {
		return &NotSupportedError{SubSystem: "woff", Feature: "font collections"}
	}
	if hdr.NumTables == 0 {
		return invalid("woff", "no tables")
	}
	if int(hdr.Length) != len(data) {
		return invalid("woff", "length field %d does not match file size %d", hdr.Length, len(data))
	}
	if hdr.TotalSfntSize > maxSFNTSize {
		return invalid("woff", "declared sfnt size %d exceeds %d", hdr.TotalSfntSize, maxSFNTSize)
	}

	dirEnd := woffHeaderSize + woffEntrySize*int(hdr.NumTables)
	if dirEnd > len(data) {
		return invalid("woff", "table directory extends beyond EOF")
	}
	entries := make([]woffEntry, hdr.NumTables)
	if err := binary.Read(bytes.NewReader(data[woffHeaderSize:dirEnd]), binary.BigEndian, entries); err != nil {
		return err
	}

	var total uint64
	for _, e := range entries {
		tag := string(e.Tag[:])
		end := uint64(e.Offset) + uint64(e.CompLength)
		if e.Offset < uint32(dirEnd) || end > uint64(len(data)) {
			return invalid("woff", "table %q outside file", tag)
		}
		if e.CompLength > e.OrigLength {
			return invalid("woff", "table %q: compressed length exceeds original", tag)
		}
		total += uint64(e.OrigLength)
	}
	if total > maxSFNTSize {
		return invalid("woff", "tables expand to %d bytes, limit is %d", total, maxSFNTSize)
	}
	return nil
}

// encodeWOFF wraps sfnt tables into a WOFF 1.0 file. Each table is stored
// zlib-compressed when that saves space. The directory is sorted by tag,
// the table data follows order so a decoder rebuilds the same layout the
// head checksum adjustment was computed for.
func encodeWOFF(scalerType uint32, tables map[string][]byte, order []string) ([]byte, error) {
	tags := sortedTags(tables)

	hdr := woffHeader{
		Signature:     woffSignature,
		Flavor:        scalerType,
		NumTables:     uint16(len(tags)),
		TotalSfntSize: sfntSize(tables),
	}
	if head := tables["head"]; len(head) >= 8 {
		hdr.MajorVersion = binary.BigEndian.Uint16(head[4:6])
		hdr.MinorVersion = binary.BigEndian.Uint16(head[6:8])
	}

	offset := uint32(woffHeaderSize + woffEntrySize*len(tags))
	entries := make(map[string]*woffEntry, len(tags))
	bodies := make([][]byte, 0, len(order))
	for _, tag := range order {
		orig := tables[tag]
		stored := orig
		if packed, err := deflate(orig); err != nil {
			return nil, err
		} else if len(packed) < len(orig) {
			stored = packed
		}

		e := &woffEntry{
			Offset:       offset,
			CompLength:   uint32(len(stored)),
			OrigLength:   uint32(len(orig)),
			OrigChecksum: tableChecksum(tag, orig),
		}
		copy(e.Tag[:], tag)
		entries[tag] = e
		bodies = append(bodies, stored)
		offset += pad4(uint32(len(stored)))
	}
	hdr.Length = offset

	buf := bytes.NewBuffer(make([]byte, 0, offset))
	_ = binary.Write(buf, binary.BigEndian, &hdr)
	for _, tag := range tags {
		_ = binary.Write(buf, binary.BigEndian, entries[tag])
	}
	var pad [3]byte
	for _, body := range bodies {
		buf.Write(body)
		if k := len(body) % 4; k != 0 {
			buf.Write(pad[:4-k])
		}
	}
	return buf.Bytes(), nil
}

func deflate(data []byte) ([]byte, error) {
	buf := &bytes.Buffer{}
	w, err := zlib.NewWriterLevel(buf, zlib.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
