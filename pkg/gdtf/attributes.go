package gdtf

import (
	"regexp"
	"sort"
	"strings"
)

// Mapping binds a lowercase channel name key to a GDTF attribute and its
// taxonomy. Keys are matched case-insensitively, first as a whole and then
// as a substring of the channel name.
type Mapping struct {
	Key             string `json:"key" yaml:"key"`
	Attribute       string `json:"attribute" yaml:"attribute"`
	FeatureGroup    string `json:"featureGroup" yaml:"featureGroup"`
	Feature         string `json:"feature" yaml:"feature"`
	ActivationGroup string `json:"activationGroup" yaml:"activationGroup"`
}

// Resolution is the outcome of mapping a channel name to the GDTF attribute
// taxonomy.
type Resolution struct {
	Attribute       string `json:"attribute"`
	FeatureGroup    string `json:"featureGroup"`
	Feature         string `json:"feature"`
	ActivationGroup string `json:"activationGroup"`
}

// builtinMappings is the default channel name table. Order matters: substring
// matching scans entries top to bottom and the first hit wins, so longer keys
// like "color wheel" sit above their prefixes.
var builtinMappings = []Mapping{
	{"dimmer", "Dimmer", "Dimming", "Intensity", "Dimmer"},
	{"intensity", "Dimmer", "Dimming", "Intensity", "Dimmer"},
	{"master", "Dimmer", "Dimming", "Intensity", "Dimmer"},
	{"pan", "Pan", "Position", "Position", "PanTilt"},
	{"tilt", "Tilt", "Position", "Position", "PanTilt"},
	{"pan speed", "PanRotate", "Position", "Position", "PanTilt"},
	{"tilt speed", "TiltRotate", "Position", "Position", "PanTilt"},
	{"red", "ColorAdd_R", "Color", "Color", "RGB"},
	{"green", "ColorAdd_G", "Color", "Color", "RGB"},
	{"blue", "ColorAdd_B", "Color", "Color", "RGB"},
	{"white", "ColorAdd_W", "Color", "Color", "RGBW"},
	{"amber", "ColorAdd_A", "Color", "Color", "RGBW"},
	{"lime", "ColorAdd_L", "Color", "Color", "RGBW"},
	{"uv", "ColorAdd_UV", "Color", "Color", "RGBW"},
	{"indigo", "ColorAdd_I", "Color", "Color", "RGBW"},
	{"cyan", "ColorSub_C", "Color", "Color", "CMY"},
	{"magenta", "ColorSub_M", "Color", "Color", "CMY"},
	{"yellow", "ColorSub_Y", "Color", "Color", "CMY"},
	{"cto", "CTO", "Color", "Color", "CTO"},
	{"ctb", "CTB", "Color", "Color", "CTB"},
	{"hue", "CIE_X", "Color", "Color", "HSB"},
	{"saturation", "CIE_Y", "Color", "Color", "HSB"},
	{"color wheel", "Color1", "Color", "Color", "ColorWheel"},
	{"colour wheel", "Color1", "Color", "Color", "ColorWheel"},
	{"color", "Color1", "Color", "Color", "ColorWheel"},
	{"colour", "Color1", "Color", "Color", "ColorWheel"},
	{"color mix", "ColorMixMode", "Color", "Color", "ColorWheel"},
	{"shutter", "Shutter1", "Beam", "Beam", "Shutter"},
	{"strobe", "Shutter1Strobe", "Beam", "Beam", "Shutter"},
	{"strobe rate", "Shutter1StrobeFreq", "Beam", "Beam", "Shutter"},
	{"strobe speed", "Shutter1StrobeFreq", "Beam", "Beam", "Shutter"},
	{"zoom", "Zoom", "Beam", "Beam", "Zoom"},
	{"focus", "Focus1", "Beam", "Beam", "Focus"},
	{"iris", "Iris", "Beam", "Beam", "Iris"},
	{"frost", "Frost1", "Beam", "Beam", "Frost"},
	{"diffusion", "Frost1", "Beam", "Beam", "Frost"},
	{"gobo", "Gobo1", "Gobo", "Gobo", "Gobo"},
	{"gobo wheel", "Gobo1", "Gobo", "Gobo", "Gobo"},
	{"gobo 1", "Gobo1", "Gobo", "Gobo", "Gobo"},
	{"gobo 2", "Gobo2", "Gobo", "Gobo", "Gobo"},
	{"gobo rotation", "Gobo1Pos", "Gobo", "Gobo", "Gobo"},
	{"gobo spin", "Gobo1PosRotate", "Gobo", "Gobo", "Gobo"},
	{"gobo index", "Gobo1Pos", "Gobo", "Gobo", "Gobo"},
	{"prism", "Prism1", "Beam", "Beam", "Prism"},
	{"prism rotation", "Prism1Pos", "Beam", "Beam", "Prism"},
	{"effects", "Effects1", "Beam", "Beam", "Effects"},
	{"effect", "Effects1", "Beam", "Beam", "Effects"},
	{"animation", "Effects1", "Beam", "Beam", "Effects"},
	{"effects speed", "EffectsSpeed", "Beam", "Beam", "Effects"},
	{"effects fade", "EffectsFade", "Beam", "Beam", "Effects"},
	{"blade 1", "Blade1A", "Shapers", "Shapers", "Blade"},
	{"blade 2", "Blade2A", "Shapers", "Shapers", "Blade"},
	{"blade 3", "Blade3A", "Shapers", "Shapers", "Blade"},
	{"blade 4", "Blade4A", "Shapers", "Shapers", "Blade"},
	{"blade rotation", "ShaperRot", "Shapers", "Shapers", "Blade"},
	{"macro", "Macro", "Control", "Control", "Macro"},
	{"scene", "Macro", "Control", "Control", "Macro"},
	{"program", "Macro", "Control", "Control", "Macro"},
	{"function", "Function", "Control", "Control", "Function"},
	{"control", "Function", "Control", "Control", "Function"},
	{"reset", "Function", "Control", "Control", "Function"},
	{"lamp", "LampControl", "Control", "Control", "Function"},
	{"fans", "Function", "Control", "Control", "Function"},
	{"speed", "EffectsSpeed", "Beam", "Beam", "Effects"},
	{"video", "VideoEffect1Type", "Control", "Control", "Function"},
	{"media", "VideoEffect1Type", "Control", "Control", "Function"},
}

// wheelAttributes are the attributes whose slotted channels produce a Wheel
// element and slot-indexed channel functions.
var wheelAttributes = map[string]bool{
	"Color1":         true,
	"Color2":         true,
	"Gobo1":          true,
	"Gobo2":          true,
	"Gobo1Pos":       true,
	"Gobo2Pos":       true,
	"Prism1":         true,
	"Effects1":       true,
	"Animation1":     true,
	"Macro":          true,
	"LampControl":    true,
	"Function":       true,
	"Shutter1":       true,
	"Shutter1Strobe": true,
}

var customAttrChars = regexp.MustCompile(`[^A-Za-z0-9_]`)

// Resolver maps raw channel names to GDTF attributes. The zero value is not
// usable; construct one with NewResolver.
type Resolver struct {
	entries []Mapping
	exact   map[string]int
}

// NewResolver returns a resolver over the built-in table with the given
// overlay mappings taking precedence. Overlays are consulted before built-in
// entries for both exact and substring matches, in the order given.
func NewResolver(overlays ...Mapping) *Resolver {
	entries := make([]Mapping, 0, len(overlays)+len(builtinMappings))
	for _, m := range overlays {
		m.Key = strings.ToLower(strings.TrimSpace(m.Key))
		if m.Key == "" || m.Attribute == "" {
			continue
		}
		entries = append(entries, m)
	}
	entries = append(entries, builtinMappings...)

	exact := make(map[string]int, len(entries))
	for i, m := range entries {
		if _, taken := exact[m.Key]; !taken {
			exact[m.Key] = i
		}
	}
	return &Resolver{entries: entries, exact: exact}
}

// Resolve maps one raw channel name. Lookup is exact match first, then an
// ordered substring scan where the first matching key wins. Unmatched names
// synthesize a custom attribute: non-identifier characters become
// underscores, blank input becomes "Custom", and the result doubles as its
// own activation group under the Control feature group.
func (r *Resolver) Resolve(raw string) Resolution {
	clean := strings.TrimSpace(strings.ToLower(raw))
	if i, ok := r.exact[clean]; ok {
		return resolution(r.entries[i])
	}
	for _, m := range r.entries {
		if strings.Contains(clean, m.Key) {
			return resolution(m)
		}
	}
	safe := customAttrChars.ReplaceAllString(strings.TrimSpace(raw), "_")
	if safe == "" {
		safe = "Custom"
	}
	return Resolution{
		Attribute:       safe,
		FeatureGroup:    "Control",
		Feature:         "Control",
		ActivationGroup: safe,
	}
}

func resolution(m Mapping) Resolution {
	return Resolution{
		Attribute:       m.Attribute,
		FeatureGroup:    m.FeatureGroup,
		Feature:         m.Feature,
		ActivationGroup: m.ActivationGroup,
	}
}

// Mappings returns a copy of the built-in channel name table in match order.
func Mappings() []Mapping {
	out := make([]Mapping, len(builtinMappings))
	copy(out, builtinMappings)
	return out
}

// IsWheelAttribute reports whether slotted channels resolving to attr emit a
// wheel.
func IsWheelAttribute(attr string) bool {
	return wheelAttributes[attr]
}

// WheelAttributes returns the wheel-capable attribute names sorted
// alphabetically.
func WheelAttributes() []string {
	out := make([]string, 0, len(wheelAttributes))
	for attr := range wheelAttributes {
		out = append(out, attr)
	}
	sort.Strings(out)
	return out
}
