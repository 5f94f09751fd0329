//go:build nowoff2

package fontkit

// Built with the nowoff2 tag: WOFF2 input and output report
// ErrCodecUnavailable.
var defaultBrotli Codec
