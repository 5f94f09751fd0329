package fontkit

import (
	"errors"
	"fmt"
)

// ErrCodecUnavailable is returned when WOFF2 data must be (de)compressed
// but no brotli codec is configured.
var ErrCodecUnavailable = errors.New("woff2 requires the brotli codec, which is not available")

// NotSupportedError indicates a valid font using a feature this package
// cannot handle.
type NotSupportedError struct {
	SubSystem string
	Feature   string
}

func (err *NotSupportedError) Error() string {
	return fmt.Sprintf("%s: %s not supported", err.SubSystem, err.Feature)
}

// InvalidFontError indicates a malformed container.
type InvalidFontError struct {
	SubSystem string
	Reason    string
}

func (err *InvalidFontError) Error() string {
	return fmt.Sprintf("%s: invalid font: %s", err.SubSystem, err.Reason)
}

func invalid(subSystem, format string, args ...any) error {
	return &InvalidFontError{SubSystem: subSystem, Reason: fmt.Sprintf(format, args...)}
}
