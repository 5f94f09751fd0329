package domain

// FormatOption describes one selectable output format for the UI.
type FormatOption struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Available   bool   `json:"available"`
	Reason      string `json:"reason,omitempty"`
}
