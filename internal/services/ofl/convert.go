package ofl

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bbernstein/gdtf-builder-go/pkg/gdtf"
)

// Convert parses an OFL fixture JSON document and converts it into a
// buildable fixture. Fine channel aliases become fine byte channels,
// multi-capability channels become slotted channels, and switched channel
// references ("A / B") resolve to their primary.
func Convert(manufacturer string, data []byte) (gdtf.Fixture, error) {
	var oflFixture OFLFixture
	if err := json.Unmarshal(data, &oflFixture); err != nil {
		return gdtf.Fixture{}, fmt.Errorf("invalid JSON: %w", err)
	}

	if err := validateOFLFixture(&oflFixture); err != nil {
		return gdtf.Fixture{}, err
	}

	fineAliases := fineAliasSet(oflFixture.AvailableChannels)

	fixture := gdtf.Fixture{
		Name:         oflFixture.Name,
		Manufacturer: manufacturer,
	}
	for _, oflMode := range oflFixture.Modes {
		mode := gdtf.Mode{Name: oflMode.Name}
		for i, ref := range oflMode.Channels {
			channel, err := convertChannel(&oflFixture, fineAliases, ref)
			if err != nil {
				return gdtf.Fixture{}, fmt.Errorf("mode %q channel %d: %w", oflMode.Name, i+1, err)
			}
			mode.Channels = append(mode.Channels, channel)
		}
		fixture.Modes = append(fixture.Modes, mode)
	}

	return fixture, nil
}

// validateOFLFixture validates required OFL fixture fields
func validateOFLFixture(fixture *OFLFixture) error {
	if fixture.Name == "" {
		return fmt.Errorf("OFL fixture must have a \"name\" field")
	}

	if len(fixture.Categories) == 0 {
		return fmt.Errorf("OFL fixture must have a \"categories\" array with at least one category")
	}

	if len(fixture.AvailableChannels) == 0 {
		return fmt.Errorf("OFL fixture must have \"availableChannels\" with at least one channel")
	}

	if len(fixture.Modes) == 0 {
		return fmt.Errorf("OFL fixture must have a \"modes\" array with at least one mode")
	}

	return nil
}

// fineAliasSet collects every fine channel alias declared by any channel.
func fineAliasSet(channels map[string]OFLChannel) map[string]bool {
	aliases := make(map[string]bool)
	for _, channel := range channels {
		for _, alias := range channel.FineChannelAliases {
			aliases[alias] = true
		}
	}
	return aliases
}

func convertChannel(fixture *OFLFixture, fineAliases map[string]bool, ref string) (gdtf.Channel, error) {
	name := strings.TrimSpace(ref)
	if name == "" {
		// Null entries hold a DMX address without a function.
		return gdtf.Channel{Name: "Reserved"}, nil
	}

	// Handle switched channels (e.g., "Dimmer fine / Step Duration")
	primary := name
	if strings.Contains(primary, " / ") {
		primary = strings.Split(primary, " / ")[0]
	}

	if fineAliases[primary] {
		return gdtf.Channel{Name: primary, FineByte: true}, nil
	}

	channel, ok := fixture.AvailableChannels[primary]
	if !ok {
		return gdtf.Channel{}, fmt.Errorf("channel %q (primary: %q) not found in availableChannels", ref, primary)
	}

	return gdtf.Channel{Name: primary, Slots: convertSlots(channel)}, nil
}

// convertSlots turns a multi-capability channel into slot definitions.
// Channels with a single capability stay continuous.
func convertSlots(channel OFLChannel) []gdtf.Slot {
	if len(channel.Capabilities) < 2 {
		return nil
	}

	var slots []gdtf.Slot
	for _, capability := range channel.Capabilities {
		if capability.DMXRange == nil {
			continue
		}
		slots = append(slots, gdtf.Slot{
			Label:   capabilityLabel(capability),
			DMXFrom: capability.DMXRange[0],
			DMXTo:   capability.DMXRange[1],
		})
	}
	if len(slots) < 2 {
		return nil
	}
	return slots
}

// capabilityLabel picks a display label for a capability, preferring the
// author's comment over generated effect names over the bare type.
func capabilityLabel(capability OFLCapability) string {
	if capability.Comment != "" {
		return capability.Comment
	}
	if capability.EffectName != "" {
		return capability.EffectName
	}
	if capability.ShutterEffect != "" {
		return capability.ShutterEffect
	}
	return capability.Type
}
