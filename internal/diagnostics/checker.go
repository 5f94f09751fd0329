package diagnostics

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"font-converter/internal/domain"
	"font-converter/internal/fontkit"
)

// Checker validates optional codecs, saved formats and the output path.
type Checker struct {
	supports   func(fontkit.Format) error
	mkdirAll   func(string, os.FileMode) error
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
}

// NewChecker builds a checker for engine using real OS dependencies.
func NewChecker(engine *fontkit.Engine) *Checker {
	return &Checker{
		supports:   engine.Supports,
		mkdirAll:   os.MkdirAll,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
	}
}

// Run executes all startup checks and returns a combined report.
func (c *Checker) Run(settings domain.Settings) domain.DiagnosticReport {
	items := []domain.DiagnosticItem{
		c.checkWOFF2Codec(),
		c.checkFormats(settings.Formats),
		c.checkOutputDir(settings.OutputDir),
	}

	hasFailures := false
	for _, item := range items {
		if item.Status == domain.DiagnosticStatusFail {
			hasFailures = true
			break
		}
	}

	return domain.DiagnosticReport{
		GeneratedAt: time.Now().UTC(),
		HasFailures: hasFailures,
		Items:       items,
	}
}

// checkWOFF2Codec reports whether WOFF2 output can be produced.
func (c *Checker) checkWOFF2Codec() domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "codec_woff2",
		Name: "WOFF2 codec",
	}

	if err := c.supports(fontkit.FormatWOFF2); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = err.Error()
		if errors.Is(err, fontkit.ErrCodecUnavailable) {
			item.Hint = "This build has no brotli support. Rebuild without the nowoff2 tag or deselect WOFF2."
		}
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = "Brotli compression available."
	return item
}

// checkFormats validates the saved default format selection.
func (c *Checker) checkFormats(formats []string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "formats",
		Name: "Default formats",
	}

	if len(formats) == 0 {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "No default output formats are selected."
		item.Hint = "Select at least one output format."
		return item
	}

	var unknown []string
	for _, raw := range formats {
		if _, err := fontkit.ParseFormat(raw); err != nil {
			unknown = append(unknown, raw)
		}
	}
	if len(unknown) > 0 {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Unknown formats in settings: %s", strings.Join(unknown, ", "))
		item.Hint = "Reset the format selection to drop unknown entries."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Selected: %s", strings.Join(formats, ", "))
	return item
}

// checkOutputDir validates output directory existence and write access.
func (c *Checker) checkOutputDir(outputDir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "output_dir",
		Name: "Output directory",
	}

	if strings.TrimSpace(outputDir) == "" {
		item.Status = domain.DiagnosticStatusPass
		item.Message = "Converted fonts go to a converted_fonts folder next to the first input file."
		return item
	}

	if err := c.mkdirAll(outputDir, 0o755); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot create output directory: %s", outputDir)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		return item
	}

	tmpFile, err := c.createTemp(outputDir, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Output directory is not writable: %s", outputDir)
		item.Hint = "Choose a writable directory for converted fonts."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Writable directory: %s", outputDir)
	return item
}

// NewCheckerForTests creates checker with injectable dependencies.
func NewCheckerForTests(
	supports func(fontkit.Format) error,
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
) *Checker {
	return &Checker{
		supports:   supports,
		mkdirAll:   mkdirAll,
		createTemp: createTemp,
		remove:     remove,
	}
}
