package fontkit

// Codec compresses the WOFF2 table stream.
type Codec interface {
	Compress(src []byte) ([]byte, error)
}
