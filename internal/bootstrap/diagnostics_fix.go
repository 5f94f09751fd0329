package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"font-converter/internal/config"
	"font-converter/internal/domain"
	"font-converter/internal/fontkit"
)

// InstallOrFixDiagnostic applies a remediation for one failed diagnostic item.
func (a *App) InstallOrFixDiagnostic(itemID string) (domain.DiagnosticReport, error) {
	if a.Store == nil {
		return domain.DiagnosticReport{}, fmt.Errorf("settings store is not configured")
	}

	id := strings.TrimSpace(itemID)
	if id == "" {
		return domain.DiagnosticReport{}, fmt.Errorf("diagnostic item id is required")
	}

	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}

	settingsChanged := false
	var fixErr error

	switch id {
	case "codec_woff2":
		settings, settingsChanged, fixErr = a.deselectUnavailableFormats(settings)
	case "formats":
		settings, settingsChanged = a.resetFormats(settings)
	case "output_dir":
		settings, settingsChanged, fixErr = installOrFixOutputDir(settings)
	default:
		return domain.DiagnosticReport{}, fmt.Errorf("unsupported diagnostic item id: %s", id)
	}

	if settingsChanged {
		if saveErr := a.Store.Save(settings); saveErr != nil {
			report := a.refreshDiagnosticsFromSettings(settings)
			return report, fmt.Errorf("save settings after fix: %w", saveErr)
		}
	}

	report := a.refreshDiagnosticsFromSettings(settings)
	if fixErr != nil {
		return report, fixErr
	}
	return report, nil
}

func (a *App) refreshDiagnosticsFromSettings(settings domain.Settings) domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Settings = settings
	if a.checker != nil {
		a.Diagnostics = a.checker.Run(settings)
	}
	return a.Diagnostics
}

// deselectUnavailableFormats drops formats this build cannot write. The
// codec itself cannot be installed at runtime, so the error stays.
func (a *App) deselectUnavailableFormats(settings domain.Settings) (domain.Settings, bool, error) {
	err := a.Formats.Supports(fontkit.FormatWOFF2)
	if err == nil {
		return settings, false, nil
	}

	kept := a.availableFormats(settings.Formats)
	changed := len(kept) != len(settings.Formats)
	settings.Formats = kept
	if errors.Is(err, fontkit.ErrCodecUnavailable) {
		return settings, changed, fmt.Errorf("WOFF2 needs a build with brotli support; WOFF2 was removed from the selection")
	}
	return settings, changed, err
}

// resetFormats restores the default format selection, minus anything the
// build cannot produce.
func (a *App) resetFormats(settings domain.Settings) (domain.Settings, bool) {
	settings.Formats = a.availableFormats(config.DefaultSettings().Formats)
	if len(settings.Formats) == 0 {
		settings.Formats = []string{string(fontkit.FormatTTF)}
	}
	return settings, true
}

// availableFormats keeps the known, supported entries of names.
func (a *App) availableFormats(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		format, err := fontkit.ParseFormat(name)
		if err != nil {
			continue
		}
		if a.Formats != nil && a.Formats.Supports(format) != nil {
			continue
		}
		out = append(out, string(format))
	}
	return out
}

func installOrFixOutputDir(settings domain.Settings) (domain.Settings, bool, error) {
	outputDir := strings.TrimSpace(settings.OutputDir)
	if outputDir == "" {
		return settings, false, nil
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return settings, false, fmt.Errorf("create output directory %s: %w", outputDir, err)
	}
	return settings, false, nil
}
