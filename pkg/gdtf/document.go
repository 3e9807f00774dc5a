package gdtf

import (
	"encoding/xml"
	"fmt"
)

// Fixed document values required by the consoles this output targets.
const (
	// DataVersion is the GDTF schema version the document declares.
	DataVersion = "1.1"
	// DefaultColor is the CIE xyY white point stamped on attributes and
	// wheel slots.
	DefaultColor = "0.3127,0.3290,100.000000"
	// IdentityMatrix positions the single Body geometry.
	IdentityMatrix = "1,0,0,0 0,1,0,0 0,0,1,0 0,0,0,1"
	// BodyGeometry is the geometry every channel attaches to.
	BodyGeometry = "Body"
)

// Document is the root of a description.xml file. Field order mirrors the
// child order GDTF 1.1 requires inside FixtureType.
type Document struct {
	XMLName     xml.Name    `xml:"GDTF"`
	DataVersion string      `xml:"DataVersion,attr"`
	FixtureType FixtureType `xml:"FixtureType"`
}

// FixtureType carries the fixture identity and all definition sections.
// Empty string attributes are emitted deliberately; consoles expect the
// attributes to be present even when blank.
type FixtureType struct {
	Name            string `xml:"Name,attr"`
	ShortName       string `xml:"ShortName,attr"`
	LongName        string `xml:"LongName,attr"`
	Manufacturer    string `xml:"Manufacturer,attr"`
	Description     string `xml:"Description,attr"`
	FixtureTypeID   string `xml:"FixtureTypeID,attr"`
	Thumbnail       string `xml:"Thumbnail,attr"`
	RefFT           string `xml:"RefFT,attr"`
	CanHaveChildren string `xml:"CanHaveChildren,attr"`

	AttributeDefinitions AttributeDefinitions `xml:"AttributeDefinitions"`
	Wheels               Wheels               `xml:"Wheels"`
	PhysicalDescriptions PhysicalDescriptions `xml:"PhysicalDescriptions"`
	Models               Empty                `xml:"Models"`
	Geometries           Geometries           `xml:"Geometries"`
	DMXModes             DMXModes             `xml:"DMXModes"`
	Revisions            Revisions            `xml:"Revisions"`
	FTPresets            Empty                `xml:"FTPresets"`
	FTRDMInfo            Empty                `xml:"FTRDMInfo"`
}

// Empty marshals to an element with no attributes or children. GDTF wants
// several placeholder sections present even when unused.
type Empty struct{}

// AttributeDefinitions holds the attribute taxonomy derived from the
// channels actually used by the fixture.
type AttributeDefinitions struct {
	ActivationGroups ActivationGroups `xml:"ActivationGroups"`
	FeatureGroups    FeatureGroups    `xml:"FeatureGroups"`
	Attributes       AttributeList    `xml:"Attributes"`
}

type ActivationGroups struct {
	Groups []ActivationGroup `xml:"ActivationGroup"`
}

type ActivationGroup struct {
	Name string `xml:"Name,attr"`
}

type FeatureGroups struct {
	Groups []FeatureGroup `xml:"FeatureGroup"`
}

type FeatureGroup struct {
	Name     string    `xml:"Name,attr"`
	Pretty   string    `xml:"Pretty,attr"`
	Features []Feature `xml:"Feature"`
}

type Feature struct {
	Name string `xml:"Name,attr"`
}

type AttributeList struct {
	Attributes []Attribute `xml:"Attribute"`
}

// Attribute declares one GDTF attribute. Feature is the dotted
// "FeatureGroup.Feature" path.
type Attribute struct {
	Name            string `xml:"Name,attr"`
	Pretty          string `xml:"Pretty,attr"`
	ActivationGroup string `xml:"ActivationGroup,attr"`
	Feature         string `xml:"Feature,attr"`
	PhysicalUnit    string `xml:"PhysicalUnit,attr"`
	Color           string `xml:"Color,attr"`
}

type Wheels struct {
	Wheels []Wheel `xml:"Wheel"`
}

// Wheel lists the selectable slots for one wheel attribute. Slot index 0 is
// always the implicit Open slot.
type Wheel struct {
	Name  string      `xml:"Name,attr"`
	Slots []WheelSlot `xml:"Slot"`
}

type WheelSlot struct {
	Name          string `xml:"Name,attr"`
	Color         string `xml:"Color,attr"`
	MediaFileName string `xml:"MediaFileName,attr"`
}

type PhysicalDescriptions struct {
	Emitters    Empty `xml:"Emitters"`
	Filters     Empty `xml:"Filters"`
	DMXProfiles Empty `xml:"DMXProfiles"`
	CRIs        Empty `xml:"CRIs"`
}

type Geometries struct {
	Geometries []Geometry `xml:"Geometry"`
}

type Geometry struct {
	Name     string `xml:"Name,attr"`
	Model    string `xml:"Model,attr"`
	Position string `xml:"Position,attr"`
}

type DMXModes struct {
	Modes []DMXMode `xml:"DMXMode"`
}

type DMXMode struct {
	Name        string      `xml:"Name,attr"`
	Geometry    string      `xml:"Geometry,attr"`
	DMXChannels DMXChannels `xml:"DMXChannels"`
	Relations   Empty       `xml:"Relations"`
	FTMacros    Empty       `xml:"FTMacros"`
}

type DMXChannels struct {
	Channels []DMXChannel `xml:"DMXChannel"`
}

// DMXChannel is one addressed channel. Offset is either a single address or
// "coarse,fine" when a fine byte extends the channel to 16 bits.
type DMXChannel struct {
	DMXBreak        string         `xml:"DMXBreak,attr"`
	Offset          string         `xml:"Offset,attr"`
	Default         string         `xml:"Default,attr"`
	Highlight       string         `xml:"Highlight,attr"`
	Geometry        string         `xml:"Geometry,attr"`
	InitialFunction string         `xml:"InitialFunction,attr"`
	LogicalChannel  LogicalChannel `xml:"LogicalChannel"`
}

type LogicalChannel struct {
	Attribute          string            `xml:"Attribute,attr"`
	Snap               string            `xml:"Snap,attr"`
	Master             string            `xml:"Master,attr"`
	MibFade            string            `xml:"MibFade,attr"`
	DMXChangeTimeLimit string            `xml:"DMXChangeTimeLimit,attr"`
	Functions          []ChannelFunction `xml:"ChannelFunction"`
}

// ChannelFunction is one value range of a logical channel. DMX values use
// the fractional byte notation "N/1". Wheel is only set on slot functions
// that reference an emitted wheel; WheelSlotIndex stays "0" otherwise.
type ChannelFunction struct {
	Name              string `xml:"Name,attr"`
	Attribute         string `xml:"Attribute,attr"`
	OriginalAttribute string `xml:"OriginalAttribute,attr"`
	DMXFrom           string `xml:"DMXFrom,attr"`
	Default           string `xml:"Default,attr"`
	PhysicalFrom      string `xml:"PhysicalFrom,attr"`
	PhysicalTo        string `xml:"PhysicalTo,attr"`
	RealFade          string `xml:"RealFade,attr"`
	RealAcceleration  string `xml:"RealAcceleration,attr"`
	WheelSlotIndex    string `xml:"WheelSlotIndex,attr"`
	Wheel             string `xml:"Wheel,attr,omitempty"`
}

type Revisions struct {
	Revisions []Revision `xml:"Revision"`
}

type Revision struct {
	UserID     string `xml:"UserID,attr"`
	Date       string `xml:"Date,attr"`
	Text       string `xml:"Text,attr"`
	ModifiedBy string `xml:"ModifiedBy,attr"`
}

// XML serializes the document as a UTF-8 declared, two-space indented
// description.xml body with exactly one XML declaration.
func (d *Document) XML() (string, error) {
	body, err := xml.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal description.xml: %w", err)
	}
	return xml.Header + string(body) + "\n", nil
}
