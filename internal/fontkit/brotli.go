//go:build !nowoff2

package fontkit

import (
	"bytes"

	"github.com/andybalholm/brotli"
)

var defaultBrotli Codec = brotliCodec{level: brotli.BestCompression}

type brotliCodec struct {
	level int
}

func (c brotliCodec) Compress(src []byte) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := brotli.NewWriterLevel(buf, c.level)
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
