package fontkit

import (
	"bytes"
	"encoding/binary"
	"sort"

	"seehuhn.de/go/sfnt/header"
)

// maxSFNTSize bounds the uncompressed font a container may declare.
const maxSFNTSize = 128 << 20

// readSFNT splits a plain sfnt file into its tables.
func readSFNT(data []byte) (uint32, map[string][]byte, error) {
	r := bytes.NewReader(data)
	info, err := header.Read(r)
	if err != nil {
		return 0, nil, err
	}

	tables := make(map[string][]byte, len(info.Toc))
	for tag := range info.Toc {
		body, err := info.ReadTableBytes(r, tag)
		if err != nil {
			return 0, nil, err
		}
		tables[tag] = body
	}
	return info.ScalerType, tables, nil
}

// writeSFNT serializes tables as a plain sfnt file.
// header.Write patches head.checkSumAdjustment inside tables, so callers
// must pass a private copy.
func writeSFNT(scalerType uint32, tables map[string][]byte) ([]byte, error) {
	buf := &bytes.Buffer{}
	if _, err := header.Write(buf, scalerType, tables); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// sfntSize is the length of the sfnt file holding the given tables.
func sfntSize(tables map[string][]byte) uint32 {
	size := uint32(12 + 16*len(tables))
	for _, body := range tables {
		size += pad4(uint32(len(body)))
	}
	return size
}

// tableChecksum computes the sfnt checksum of one table. For head the
// checkSumAdjustment field counts as zero.
func tableChecksum(tag string, body []byte) uint32 {
	var sum uint32
	for i := 0; i < len(body); i += 4 {
		var word [4]byte
		copy(word[:], body[i:])
		if tag == "head" && i == 8 {
			continue
		}
		sum += binary.BigEndian.Uint32(word[:])
	}
	return sum
}

// tableOrder lists the tags of tables in the order their data appears in
// sfntData, the file writeSFNT produced for them. Tags missing from the
// sfnt directory go last, sorted.
func tableOrder(sfntData []byte, tables map[string][]byte) ([]string, error) {
	info, err := header.Read(bytes.NewReader(sfntData))
	if err != nil {
		return nil, err
	}

	order := make([]string, 0, len(tables))
	var rest []string
	for _, tag := range sortedTags(tables) {
		if _, ok := info.Toc[tag]; ok {
			order = append(order, tag)
		} else {
			rest = append(rest, tag)
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return info.Toc[order[i]].Offset < info.Toc[order[j]].Offset
	})
	return append(order, rest...), nil
}

func sortedTags(tables map[string][]byte) []string {
	tags := make([]string, 0, len(tables))
	for tag := range tables {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

func pad4(n uint32) uint32 {
	return (n + 3) &^ 3
}
