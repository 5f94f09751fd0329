package config

import (
	"os"
	"path/filepath"

	"font-converter/internal/domain"
)

// DefaultFormats are preselected on first launch.
var DefaultFormats = []string{"woff", "woff2"}

// DefaultSettings returns baseline local configuration for first launch.
// An empty output directory sends results next to the first input file.
func DefaultSettings() domain.Settings {
	return domain.Settings{
		OutputDir: "",
		Formats:   append([]string(nil), DefaultFormats...),
	}
}

// DefaultPath returns the settings file location under the user's home.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".font-converter", "settings.json"), nil
}
