// Package ofl converts Open Fixture Library fixture documents into buildable
// fixture definitions.
package ofl

// OFLCapability describes what a channel does over one DMX range
type OFLCapability struct {
	Type          string  `json:"type"`
	Color         string  `json:"color,omitempty"`
	DMXRange      *[2]int `json:"dmxRange,omitempty"`
	Comment       string  `json:"comment,omitempty"`
	ShutterEffect string  `json:"shutterEffect,omitempty"`
	EffectName    string  `json:"effectName,omitempty"`
}

// OFLChannel represents a channel in OFL format
type OFLChannel struct {
	Capability         *OFLCapability  `json:"capability,omitempty"`
	Capabilities       []OFLCapability `json:"capabilities,omitempty"`
	FineChannelAliases []string        `json:"fineChannelAliases,omitempty"`
}

// OFLMode represents an operating mode
type OFLMode struct {
	Name      string   `json:"name"`
	ShortName string   `json:"shortName,omitempty"`
	Channels  []string `json:"channels"`
}

// OFLFixture represents the complete OFL fixture JSON structure
type OFLFixture struct {
	Name              string                `json:"name"`
	ShortName         string                `json:"shortName,omitempty"`
	Categories        []string              `json:"categories"`
	Modes             []OFLMode             `json:"modes"`
	AvailableChannels map[string]OFLChannel `json:"availableChannels"`
}
