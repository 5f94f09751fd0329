package fontkit

import "testing"

// TestParseFormat checks case and dot normalization.
func TestParseFormat(t *testing.T) {
	for raw, want := range map[string]Format{
		"ttf":     FormatTTF,
		".OTF":    FormatOTF,
		" WOFF2 ": FormatWOFF2,
		"eot":     FormatEOT,
	} {
		got, err := ParseFormat(raw)
		if err != nil {
			t.Fatalf("ParseFormat(%q) error = %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseFormat(%q) = %s, want %s", raw, got, want)
		}
	}

	if _, err := ParseFormat("svg"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

// TestFormatFlavor checks which outputs are tagged with a flavor.
func TestFormatFlavor(t *testing.T) {
	for _, f := range Formats() {
		want := ""
		if f == FormatWOFF || f == FormatWOFF2 {
			want = string(f)
		}
		if got := f.Flavor(); got != want {
			t.Fatalf("%s flavor = %q, want %q", f, got, want)
		}
	}
}
