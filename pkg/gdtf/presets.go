package gdtf

import "strings"

// PresetSlot is one prefilled DMX range in a slot preset.
type PresetSlot struct {
	DMXFrom int    `json:"dmx_from"`
	DMXTo   int    `json:"dmx_to"`
	Label   string `json:"name"`
}

// SlotPreset is a named quick-fill template for slotted channels.
type SlotPreset struct {
	Name  string       `json:"name"`
	Slots []PresetSlot `json:"slots"`
}

// slotPresets match channel names by substring, first entry wins, so the
// more specific wheel presets precede generic ones with shared words.
var slotPresets = []SlotPreset{
	{"Shutter", []PresetSlot{
		{0, 9, "Closed"}, {10, 19, "Open"},
		{20, 129, "Strobe Slow-Fast"}, {130, 139, "Open"},
		{140, 189, "Pulse"}, {190, 199, "Open"},
		{200, 249, "Random Strobe"}, {250, 255, "Open"},
	}},
	{"Strobe", []PresetSlot{
		{0, 9, "Closed"}, {10, 19, "Open"},
		{20, 255, "Strobe Slow-Fast"},
	}},
	{"Macro", []PresetSlot{
		{0, 9, "Off"}, {10, 19, "Macro 1"}, {20, 29, "Macro 2"},
		{30, 39, "Macro 3"}, {40, 49, "Macro 4"}, {50, 59, "Macro 5"},
	}},
	{"Function", []PresetSlot{
		{0, 9, "No Function"}, {10, 19, "Reset"},
		{20, 29, "Lamp On"}, {30, 39, "Lamp Off"},
	}},
	{"Control", []PresetSlot{
		{0, 9, "No Function"}, {10, 19, "Reset"},
		{20, 29, "Lamp On"}, {30, 39, "Lamp Off"},
	}},
	{"Color Wheel", []PresetSlot{
		{0, 9, "Open"}, {10, 19, "Color 1"}, {20, 29, "Color 2"},
		{30, 39, "Color 3"}, {40, 49, "Color 4"}, {50, 59, "Color 5"},
		{60, 69, "Color 6"}, {70, 79, "Color 7"}, {80, 89, "Color 8"},
	}},
	{"Colour Wheel", []PresetSlot{
		{0, 9, "Open"}, {10, 19, "Color 1"}, {20, 29, "Color 2"},
		{30, 39, "Color 3"}, {40, 49, "Color 4"}, {50, 59, "Color 5"},
	}},
	{"Gobo Wheel", []PresetSlot{
		{0, 9, "Open"}, {10, 19, "Gobo 1"}, {20, 29, "Gobo 2"},
		{30, 39, "Gobo 3"}, {40, 49, "Gobo 4"}, {50, 59, "Gobo 5"},
		{60, 69, "Gobo 6"}, {70, 79, "Gobo 7"},
	}},
	{"Gobo 1", []PresetSlot{
		{0, 9, "Open"}, {10, 19, "Gobo 1"}, {20, 29, "Gobo 2"},
		{30, 39, "Gobo 3"}, {40, 49, "Gobo 4"}, {50, 59, "Gobo 5"},
	}},
	{"Gobo 2", []PresetSlot{
		{0, 9, "Open"}, {10, 19, "Gobo 1"}, {20, 29, "Gobo 2"},
		{30, 39, "Gobo 3"}, {40, 49, "Gobo 4"}, {50, 59, "Gobo 5"},
	}},
	{"Prism", []PresetSlot{
		{0, 9, "No Prism"}, {10, 255, "Prism"},
	}},
	{"Effects", []PresetSlot{
		{0, 9, "No Effect"}, {10, 19, "Effect 1"},
		{20, 29, "Effect 2"}, {30, 39, "Effect 3"},
	}},
	{"Scene", []PresetSlot{
		{0, 9, "Off"}, {10, 19, "Scene 1"}, {20, 29, "Scene 2"},
		{30, 39, "Scene 3"}, {40, 49, "Scene 4"}, {50, 59, "Scene 5"},
	}},
	{"Program", []PresetSlot{
		{0, 9, "Off"}, {10, 19, "Program 1"}, {20, 29, "Program 2"},
		{30, 39, "Program 3"}, {40, 49, "Program 4"},
	}},
}

// SlotPresets returns all quick-fill presets in match order.
func SlotPresets() []SlotPreset {
	out := make([]SlotPreset, len(slotPresets))
	copy(out, slotPresets)
	return out
}

// PresetFor returns the quick-fill preset whose name occurs within the
// channel name, scanning presets in order. The second result is false when
// no preset applies.
func PresetFor(channelName string) (SlotPreset, bool) {
	lower := strings.ToLower(channelName)
	for _, p := range slotPresets {
		if strings.Contains(lower, strings.ToLower(p.Name)) {
			return p, true
		}
	}
	return SlotPreset{}, false
}

// CatalogueChannel is one pickable channel in the catalogue, flagged when it
// represents the fine byte of a 16-bit pair.
type CatalogueChannel struct {
	Name     string `json:"name"`
	FineByte bool   `json:"is_fine_byte"`
}

// CatalogueGroup is a themed group of common channel names.
type CatalogueGroup struct {
	Name     string             `json:"name"`
	Channels []CatalogueChannel `json:"channels"`
}

var channelCatalogue = []CatalogueGroup{
	{"DIMMING", []CatalogueChannel{
		{"Dimmer", false}, {"Dimmer Fine", true},
	}},
	{"POSITION", []CatalogueChannel{
		{"Pan", false}, {"Pan Fine", true},
		{"Tilt", false}, {"Tilt Fine", true},
		{"Pan Speed", false}, {"Tilt Speed", false},
	}},
	{"COLOR - RGB / W", []CatalogueChannel{
		{"Red", false}, {"Green", false}, {"Blue", false},
		{"White", false}, {"Amber", false}, {"Lime", false},
		{"UV", false}, {"Indigo", false},
	}},
	{"COLOR - CMY", []CatalogueChannel{
		{"Cyan", false}, {"Magenta", false}, {"Yellow", false},
	}},
	{"COLOR - MISC", []CatalogueChannel{
		{"CTO", false}, {"CTB", false},
		{"Hue", false}, {"Saturation", false},
		{"Color Wheel", false}, {"Color Mix", false},
	}},
	{"BEAM", []CatalogueChannel{
		{"Shutter", false}, {"Strobe", false}, {"Strobe Speed", false},
		{"Zoom", false}, {"Zoom Fine", true},
		{"Focus", false}, {"Focus Fine", true},
		{"Iris", false}, {"Frost", false}, {"Diffusion", false},
	}},
	{"GOBO", []CatalogueChannel{
		{"Gobo Wheel", false}, {"Gobo 1", false}, {"Gobo 2", false},
		{"Gobo Rotation", false}, {"Gobo Index", false}, {"Gobo Spin", false},
	}},
	{"PRISM / EFFECTS", []CatalogueChannel{
		{"Prism", false}, {"Prism Rotation", false},
		{"Effects", false}, {"Effects Speed", false},
		{"Effects Fade", false}, {"Animation", false},
	}},
	{"SHAPERS", []CatalogueChannel{
		{"Blade 1", false}, {"Blade 2", false},
		{"Blade 3", false}, {"Blade 4", false},
		{"Blade Rotation", false},
	}},
	{"CONTROL", []CatalogueChannel{
		{"Macro", false}, {"Scene", false}, {"Program", false},
		{"Function", false}, {"Control", false}, {"Reset", false},
		{"Lamp", false}, {"Fans", false}, {"Speed", false},
	}},
}

// Catalogue returns the grouped channel name catalogue for pickers and
// editors.
func Catalogue() []CatalogueGroup {
	out := make([]CatalogueGroup, len(channelCatalogue))
	copy(out, channelCatalogue)
	return out
}

// continuousChannels are catalogue names that take a full-range value rather
// than discrete slots; editors use this to decide whether to offer a slot
// table.
var continuousChannels = []string{
	"Dimmer", "Dimmer Fine", "Pan", "Pan Fine", "Tilt", "Tilt Fine",
	"Red", "Green", "Blue", "White", "Amber", "Lime", "UV", "Indigo",
	"Cyan", "Magenta", "Yellow", "CTO", "CTB", "Hue", "Saturation",
	"Zoom", "Zoom Fine", "Focus", "Focus Fine", "Iris",
	"Pan Speed", "Tilt Speed", "Effects Speed", "Effects Fade",
	"Gobo Rotation", "Gobo Spin", "Gobo Index", "Prism Rotation",
	"Blade 1", "Blade 2", "Blade 3", "Blade 4", "Blade Rotation",
}

// ContinuousChannels returns the catalogue names that never carry slots.
func ContinuousChannels() []string {
	out := make([]string, len(continuousChannels))
	copy(out, continuousChannels)
	return out
}

// IsContinuous reports whether a catalogue channel name is full-range.
func IsContinuous(name string) bool {
	for _, c := range continuousChannels {
		if c == name {
			return true
		}
	}
	return false
}
