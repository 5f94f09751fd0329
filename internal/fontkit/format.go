package fontkit

import (
	"fmt"
	"strings"
)

// Format names an output container. The value doubles as file extension.
type Format string

const (
	FormatEOT   Format = "eot"
	FormatOTF   Format = "otf"
	FormatTTF   Format = "ttf"
	FormatWOFF  Format = "woff"
	FormatWOFF2 Format = "woff2"
)

var allFormats = []Format{FormatEOT, FormatOTF, FormatTTF, FormatWOFF, FormatWOFF2}

// Formats lists every output format in display order.
func Formats() []Format {
	return append([]Format(nil), allFormats...)
}

// ParseFormat maps user input such as "WOFF2" or ".ttf" to a Format.
func ParseFormat(raw string) (Format, error) {
	name := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(raw), "."))
	for _, f := range allFormats {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown font format: %q", raw)
}

// Extension returns the file extension without the leading dot.
func (f Format) Extension() string {
	return string(f)
}

// Flavor returns the container tag applied before serialization.
// Plain sfnt outputs (ttf, otf) and eot carry no flavor.
func (f Format) Flavor() string {
	switch f {
	case FormatWOFF, FormatWOFF2:
		return string(f)
	default:
		return ""
	}
}

// Container identifies the wrapper an input file was stored in.
type Container string

const (
	ContainerSFNT  Container = "sfnt"
	ContainerWOFF  Container = "woff"
	ContainerWOFF2 Container = "woff2"
	ContainerEOT   Container = "eot"
)
