package gdtf

import (
	"regexp"
	"testing"
)

func TestSafeName(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		fallback string
		want     string
	}{
		{"plain name", "Dimmer", "Ch", "Dimmer"},
		{"spaces collapse", "Gobo  Wheel", "Ch", "Gobo_Wheel"},
		{"degree sign", "Pan 540°", "Ch", "Pan_540deg"},
		{"percent sign", "Fan 50%", "Ch", "Fan_50pct"},
		{"slash", "Red/Green", "Ch", "Red_Green"},
		{"dot colon semicolon", "A.B:C;D", "Ch", "A_B_C_D"},
		{"mixed separators", "Strobe / Shutter", "Ch", "Strobe_Shutter"},
		{"unicode stripped", "Cølør", "Ch", "Clr"},
		{"underscore runs", "a___b", "Ch", "a_b"},
		{"leading trailing underscores", "_mid_", "Ch", "mid"},
		{"hyphen kept", "Mode-A", "Ch", "Mode-A"},
		{"empty", "", "Ch", "Ch_"},
		{"whitespace only", "   ", "Mode", "Mode_"},
		{"symbols only", "???", "Slot3", "Slot3_"},
		{"leading digit", "8ch", "Mode", "Mode_8ch"},
		{"leading hyphen kept", "-dim", "Ch", "-dim"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SafeName(tt.text, tt.fallback)
			if got != tt.want {
				t.Errorf("SafeName(%q, %q) = %q, want %q", tt.text, tt.fallback, got, tt.want)
			}
		})
	}
}

func TestSafeName_AlwaysValid(t *testing.T) {
	// Output should always be usable as a GDTF node name: non-empty, no
	// dots, no spaces, and never a digit up front.
	valid := regexp.MustCompile(`^[A-Za-z_\-][A-Za-z0-9_\-]*$`)
	inputs := []string{
		"", " ", "Dimmer", "8-bit Mode", "Gobo.Wheel", "50% / 100%",
		"°°", "...", "___", "---", "12345", "Par 64 #2", "\t\n",
		"你好", "Strobe;Rate", "a b c d",
	}
	for _, in := range inputs {
		got := SafeName(in, "Ch")
		if !valid.MatchString(got) {
			t.Errorf("SafeName(%q, \"Ch\") = %q, not a valid node name", in, got)
		}
	}
}

func TestShortName(t *testing.T) {
	tests := []struct {
		safeName string
		want     string
	}{
		{"Par_64", "PAR64"},
		{"Unknown_Fixture", "UNKNOWNF"},
		{"Mega_Beam_3000_Pro", "MEGABEAM"},
		{"x", "X"},
		{"___", "FIXTURE"},
		{"-", "FIXTURE"},
	}

	for _, tt := range tests {
		got := ShortName(tt.safeName)
		if got != tt.want {
			t.Errorf("ShortName(%q) = %q, want %q", tt.safeName, got, tt.want)
		}
	}
}
