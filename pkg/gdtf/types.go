// Package gdtf builds GDTF 1.1 fixture packages from flat channel lists.
//
// The input model is deliberately small: a Fixture holds named Modes, a Mode
// holds an ordered list of Channels, and a Channel optionally carries Slots
// describing discrete DMX ranges (gobo wheels, color wheels, macros). The
// package turns that into a description.xml document and wraps it in the
// uncompressed ZIP container that lighting consoles expect.
package gdtf

import (
	"fmt"
	"strings"
)

// Defaults substituted for blank fixture metadata before sanitization.
const (
	DefaultFixtureName  = "Unknown Fixture"
	DefaultManufacturer = "Generic"
)

// Fixture is the root input for a build. Modes are ordered; mode order and
// channel order are preserved in the output document.
type Fixture struct {
	Name         string `json:"name"`
	Manufacturer string `json:"manufacturer"`
	Modes        []Mode `json:"modes"`
}

// Mode is one DMX personality of a fixture. Channel position in the slice
// determines the DMX address, starting at 1.
type Mode struct {
	Name     string    `json:"name"`
	Channels []Channel `json:"channels"`
}

// Channel is a single DMX channel entry. A fine byte extends the preceding
// coarse channel to 16-bit resolution and never carries slots of its own.
type Channel struct {
	Name     string `json:"name"`
	FineByte bool   `json:"is_fine_byte,omitempty"`
	Slots    []Slot `json:"slots,omitempty"`
}

// Slot is a discrete DMX range within a channel, such as one gobo on a
// wheel. Physical values default to dmx/255 when not set explicitly.
type Slot struct {
	Label        string   `json:"name"`
	DMXFrom      int      `json:"dmx_from"`
	DMXTo        int      `json:"dmx_to"`
	PhysicalFrom *float64 `json:"physical_from,omitempty"`
	PhysicalTo   *float64 `json:"physical_to,omitempty"`
}

// fineNameMarkers are the substrings that identify a fine (LSB) channel in
// free-form channel lists.
var fineNameMarkers = []string{"fine", " lsb", "16-bit", "16bit", "low byte"}

// IsFineName reports whether a raw channel label looks like the fine byte of
// a 16-bit pair. It is meant for input boundaries that ingest plain text
// channel lists; the builder itself only honors the FineByte flag.
func IsFineName(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range fineNameMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// normalizeFixture applies the input rules that precede building: blank
// fixture metadata gets defaults, modes with blank names are dropped with a
// warning, duplicate mode names collapse to the last definition at the first
// occurrence's position, fine bytes lose any slots, and slots with blank
// labels are removed.
func normalizeFixture(fx Fixture) (Fixture, []string) {
	var warnings []string

	if strings.TrimSpace(fx.Name) == "" {
		fx.Name = DefaultFixtureName
	}
	if strings.TrimSpace(fx.Manufacturer) == "" {
		fx.Manufacturer = DefaultManufacturer
	}

	position := make(map[string]int)
	modes := make([]Mode, 0, len(fx.Modes))
	for i, mode := range fx.Modes {
		if strings.TrimSpace(mode.Name) == "" {
			warnings = append(warnings, fmt.Sprintf("mode %d has a blank name and was skipped", i+1))
			continue
		}
		mode.Channels = normalizeChannels(mode.Channels)
		if at, seen := position[mode.Name]; seen {
			modes[at] = mode
			continue
		}
		position[mode.Name] = len(modes)
		modes = append(modes, mode)
	}
	fx.Modes = modes
	return fx, warnings
}

func normalizeChannels(channels []Channel) []Channel {
	out := make([]Channel, 0, len(channels))
	for _, ch := range channels {
		if ch.FineByte {
			ch.Slots = nil
		} else {
			ch.Slots = dropBlankSlots(ch.Slots)
		}
		out = append(out, ch)
	}
	return out
}

func dropBlankSlots(slots []Slot) []Slot {
	kept := slots[:0:0]
	for _, s := range slots {
		if strings.TrimSpace(s.Label) == "" {
			continue
		}
		kept = append(kept, s)
	}
	return kept
}
