package gdtf

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Revision metadata stamped into every generated document.
const (
	revisionUserID     = "0"
	revisionDate       = "2024-01-01T00:00:00"
	revisionText       = "Created by GDTF Builder"
	revisionModifiedBy = "GDTFBuilder"
	description        = "Generated by GDTF Builder"
)

// Builder turns fixtures into GDTF documents. Resolver and NewID are
// injectable so callers can layer overlay mappings and tests can pin the
// FixtureTypeID.
type Builder struct {
	Resolver *Resolver
	NewID    func() string
}

// NewBuilder returns a builder over the built-in attribute table with random
// uppercase UUID fixture type IDs.
func NewBuilder() *Builder {
	return &Builder{
		Resolver: NewResolver(),
		NewID:    NewFixtureTypeID,
	}
}

// NewFixtureTypeID returns a random GDTF fixture type GUID: an uppercase
// UUID in 8-4-4-4-12 form.
func NewFixtureTypeID() string {
	return strings.ToUpper(uuid.NewString())
}

// Build compiles a fixture into a document. The returned warnings describe
// recoverable input defects such as skipped modes or colliding wheel names;
// the document is structurally valid whenever the error is nil.
func (b *Builder) Build(fx Fixture) (*Document, []string, error) {
	resolver := b.Resolver
	if resolver == nil {
		resolver = NewResolver()
	}
	newID := b.NewID
	if newID == nil {
		newID = NewFixtureTypeID
	}

	fx, warnings := normalizeFixture(fx)

	safeName := SafeName(fx.Name, "Fixture")
	used := collectUsedAttributes(fx.Modes, resolver)
	registry := buildWheelRegistry(fx.Modes, resolver)
	wheels, wheelWarnings := buildWheels(fx.Modes, resolver, registry)
	warnings = append(warnings, wheelWarnings...)

	modes := make([]DMXMode, 0, len(fx.Modes))
	for _, mode := range fx.Modes {
		modes = append(modes, buildMode(mode, resolver, registry))
	}

	doc := &Document{
		DataVersion: DataVersion,
		FixtureType: FixtureType{
			Name:                 safeName,
			ShortName:            ShortName(safeName),
			LongName:             safeName,
			Manufacturer:         SafeName(fx.Manufacturer, "Generic"),
			Description:          description,
			FixtureTypeID:        newID(),
			CanHaveChildren:      "No",
			AttributeDefinitions: buildAttributeDefinitions(used),
			Wheels:               wheels,
			Geometries: Geometries{Geometries: []Geometry{
				{Name: BodyGeometry, Model: "", Position: IdentityMatrix},
			}},
			DMXModes: DMXModes{Modes: modes},
			Revisions: Revisions{Revisions: []Revision{{
				UserID:     revisionUserID,
				Date:       revisionDate,
				Text:       revisionText,
				ModifiedBy: revisionModifiedBy,
			}}},
		},
	}
	return doc, warnings, nil
}

// BuildXML compiles a fixture and serializes it straight to description.xml
// content.
func (b *Builder) BuildXML(fx Fixture) (string, []string, error) {
	doc, warnings, err := b.Build(fx)
	if err != nil {
		return "", nil, err
	}
	content, err := doc.XML()
	if err != nil {
		return "", nil, err
	}
	return content, warnings, nil
}

// BuildPackage compiles a fixture all the way to .gdtf package bytes.
func (b *Builder) BuildPackage(fx Fixture) ([]byte, []string, error) {
	content, warnings, err := b.BuildXML(fx)
	if err != nil {
		return nil, nil, err
	}
	data, err := Package(content)
	if err != nil {
		return nil, nil, err
	}
	return data, warnings, nil
}

// Build compiles a fixture with a default builder.
func Build(fx Fixture) (*Document, []string, error) {
	return NewBuilder().Build(fx)
}

// BuildXML compiles a fixture to description.xml content with a default
// builder.
func BuildXML(fx Fixture) (string, []string, error) {
	return NewBuilder().BuildXML(fx)
}

// BuildPackage compiles a fixture to .gdtf bytes with a default builder.
func BuildPackage(fx Fixture) ([]byte, []string, error) {
	return NewBuilder().BuildPackage(fx)
}

// collectUsedAttributes resolves every coarse, named channel across all
// modes and returns the distinct attributes in first-seen order, which keeps
// the output document deterministic.
func collectUsedAttributes(modes []Mode, resolver *Resolver) []Resolution {
	seen := make(map[string]bool)
	var used []Resolution
	for _, mode := range modes {
		for _, ch := range mode.Channels {
			if ch.FineByte || strings.TrimSpace(ch.Name) == "" {
				continue
			}
			res := resolver.Resolve(ch.Name)
			if seen[res.Attribute] {
				continue
			}
			seen[res.Attribute] = true
			used = append(used, res)
		}
	}
	return used
}

// buildAttributeDefinitions derives the three taxonomy sections from the
// used attributes: activation groups deduplicated in first-seen order,
// feature groups in first-seen order with their features sorted, and one
// Attribute element per used attribute.
func buildAttributeDefinitions(used []Resolution) AttributeDefinitions {
	var activations []ActivationGroup
	activationSeen := make(map[string]bool)
	for _, u := range used {
		if activationSeen[u.ActivationGroup] {
			continue
		}
		activationSeen[u.ActivationGroup] = true
		activations = append(activations, ActivationGroup{Name: u.ActivationGroup})
	}

	var groupOrder []string
	groupFeatures := make(map[string]map[string]bool)
	for _, u := range used {
		if groupFeatures[u.FeatureGroup] == nil {
			groupFeatures[u.FeatureGroup] = make(map[string]bool)
			groupOrder = append(groupOrder, u.FeatureGroup)
		}
		groupFeatures[u.FeatureGroup][u.Feature] = true
	}
	var groups []FeatureGroup
	for _, name := range groupOrder {
		features := make([]string, 0, len(groupFeatures[name]))
		for f := range groupFeatures[name] {
			features = append(features, f)
		}
		sort.Strings(features)
		group := FeatureGroup{Name: name, Pretty: name}
		for _, f := range features {
			group.Features = append(group.Features, Feature{Name: f})
		}
		groups = append(groups, group)
	}

	var attrs []Attribute
	for _, u := range used {
		attrs = append(attrs, Attribute{
			Name:            u.Attribute,
			Pretty:          u.Attribute,
			ActivationGroup: u.ActivationGroup,
			Feature:         u.FeatureGroup + "." + u.Feature,
			PhysicalUnit:    "None",
			Color:           DefaultColor,
		})
	}

	return AttributeDefinitions{
		ActivationGroups: ActivationGroups{Groups: activations},
		FeatureGroups:    FeatureGroups{Groups: groups},
		Attributes:       AttributeList{Attributes: attrs},
	}
}

// buildMode lays out one DMX mode. Addresses start at 1 and advance per
// channel entry. A blank channel name is skipped without consuming an
// address. A fine byte widens the preceding coarse channel's Offset to
// "coarse,fine"; a fine byte with no pending coarse channel consumes its
// address silently.
func buildMode(mode Mode, resolver *Resolver, reg wheelRegistry) DMXMode {
	safeMode := SafeName(mode.Name, "Mode")
	var channels []DMXChannel
	offset := 1
	pending := -1
	pendingStart := 0

	for _, ch := range mode.Channels {
		if strings.TrimSpace(ch.Name) == "" {
			continue
		}
		if ch.FineByte {
			if pending >= 0 {
				channels[pending].Offset = fmt.Sprintf("%d,%d", pendingStart, offset)
			}
			offset++
			pending = -1
			continue
		}

		res := resolver.Resolve(ch.Name)
		safeCh := SafeName(ch.Name, fmt.Sprintf("Ch%d", offset))
		functions := buildChannelFunctions(ch, res.Attribute, reg)
		initial := safeMode + "." + safeCh + "." + res.Attribute + "." + functions[0].Name

		channels = append(channels, DMXChannel{
			DMXBreak:        "1",
			Offset:          strconv.Itoa(offset),
			Default:         functions[0].Default,
			Highlight:       "255/1",
			Geometry:        BodyGeometry,
			InitialFunction: initial,
			LogicalChannel: LogicalChannel{
				Attribute:          res.Attribute,
				Snap:               "No",
				Master:             "None",
				MibFade:            "0",
				DMXChangeTimeLimit: "0",
				Functions:          functions,
			},
		})
		pending = len(channels) - 1
		pendingStart = offset
		offset++
	}

	return DMXMode{
		Name:        safeMode,
		Geometry:    BodyGeometry,
		DMXChannels: DMXChannels{Channels: channels},
	}
}

// buildChannelFunctions emits one function per slot, or a single full-range
// function for continuous channels. Slot functions on wheel attributes carry
// a 1-based WheelSlotIndex and the wheel name; slot index 0 is reserved for
// the implicit Open slot.
func buildChannelFunctions(ch Channel, attr string, reg wheelRegistry) []ChannelFunction {
	original := SafeName(ch.Name, "Ch")
	if len(ch.Slots) == 0 {
		return []ChannelFunction{{
			Name:              attr,
			Attribute:         attr,
			OriginalAttribute: original,
			DMXFrom:           "0/1",
			Default:           "0/1",
			PhysicalFrom:      "0.000000",
			PhysicalTo:        "1.000000",
			RealFade:          "0",
			RealAcceleration:  "0",
			WheelSlotIndex:    "0",
		}}
	}

	wheelName := reg.nameFor(attr)
	functions := make([]ChannelFunction, 0, len(ch.Slots))
	for i, slot := range ch.Slots {
		index := i + 1
		fn := ChannelFunction{
			Name:              SafeName(slot.Label, fmt.Sprintf("Slot%d", index)),
			Attribute:         attr,
			OriginalAttribute: original,
			DMXFrom:           fmt.Sprintf("%d/1", slot.DMXFrom),
			Default:           fmt.Sprintf("%d/1", slot.DMXFrom),
			PhysicalFrom:      physicalValue(slot.PhysicalFrom, slot.DMXFrom),
			PhysicalTo:        physicalValue(slot.PhysicalTo, slot.DMXTo),
			RealFade:          "0",
			RealAcceleration:  "0",
			WheelSlotIndex:    "0",
		}
		if wheelName != "" {
			fn.WheelSlotIndex = strconv.Itoa(index)
			fn.Wheel = wheelName
		}
		functions = append(functions, fn)
	}
	return functions
}

// physicalValue formats a slot's physical bound: the explicit override when
// set, otherwise the DMX value scaled onto 0..1.
func physicalValue(explicit *float64, dmx int) string {
	if explicit != nil {
		return fmt.Sprintf("%.6f", *explicit)
	}
	return fmt.Sprintf("%.6f", float64(dmx)/255.0)
}
