package bootstrap

import (
	"font-converter/internal/domain"
	"font-converter/internal/fontkit"
)

var formatCatalog = map[fontkit.Format]domain.FormatOption{
	fontkit.FormatEOT: {
		Name:        "EOT",
		Description: "Embedded OpenType for legacy Internet Explorer.",
	},
	fontkit.FormatOTF: {
		Name:        "OTF",
		Description: "OpenType font file.",
	},
	fontkit.FormatTTF: {
		Name:        "TTF",
		Description: "TrueType font file.",
	},
	fontkit.FormatWOFF: {
		Name:        "WOFF",
		Description: "Web Open Font Format, zlib compressed.",
	},
	fontkit.FormatWOFF2: {
		Name:        "WOFF2",
		Description: "Web Open Font Format 2, brotli compressed.",
	},
}

// SupportedFormats returns every output format with its availability in this build.
func (a *App) SupportedFormats() []domain.FormatOption {
	formats := fontkit.Formats()
	out := make([]domain.FormatOption, 0, len(formats))
	for _, format := range formats {
		option := formatCatalog[format]
		option.ID = string(format)
		option.Available = true
		if a.Formats != nil {
			if err := a.Formats.Supports(format); err != nil {
				option.Available = false
				option.Reason = err.Error()
			}
		}
		out = append(out, option)
	}
	return out
}
