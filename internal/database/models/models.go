// Package models contains the database model definitions.
// These models map directly to the SQLite database tables backing the
// fixture draft editor and the build history.
package models

import (
	"time"
)

// Build sources recorded on BuildRecord.Source.
const (
	BuildSourceDraft = "DRAFT"
	BuildSourceAdhoc = "ADHOC"
	BuildSourceOFL   = "OFL"
)

// FixtureDraft represents an editable fixture waiting to be compiled into
// a .gdtf package.
// Table: fixture_drafts
type FixtureDraft struct {
	ID           string    `gorm:"column:id;primaryKey"`
	Name         string    `gorm:"column:name"`
	Manufacturer string    `gorm:"column:manufacturer"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`

	// Relations (loaded separately)
	Modes []DraftMode `gorm:"foreignKey:DraftID"`
}

func (FixtureDraft) TableName() string { return "fixture_drafts" }

// DraftMode represents one DMX personality of a draft. Position orders
// modes within the draft.
// Table: draft_modes
type DraftMode struct {
	ID       string `gorm:"column:id;primaryKey"`
	DraftID  string `gorm:"column:draft_id;index"`
	Name     string `gorm:"column:name"`
	Position int    `gorm:"column:position"`

	// Relations
	Channels []DraftChannel `gorm:"foreignKey:ModeID"`
}

func (DraftMode) TableName() string { return "draft_modes" }

// DraftChannel represents one channel entry of a mode. Position determines
// the DMX address during compilation; fine bytes pair with the preceding
// coarse channel.
// Table: draft_channels
type DraftChannel struct {
	ID       string `gorm:"column:id;primaryKey"`
	ModeID   string `gorm:"column:mode_id;index"`
	Name     string `gorm:"column:name"`
	Position int    `gorm:"column:position"`
	FineByte bool   `gorm:"column:fine_byte;default:false"`

	// Relations
	Slots []DraftSlot `gorm:"foreignKey:ChannelID"`
}

func (DraftChannel) TableName() string { return "draft_channels" }

// DraftSlot represents one discrete DMX range of a slotted channel.
// Physical bounds stay null unless the editor overrides the dmx/255 default.
// Table: draft_slots
type DraftSlot struct {
	ID           string   `gorm:"column:id;primaryKey"`
	ChannelID    string   `gorm:"column:channel_id;index"`
	Label        string   `gorm:"column:label"`
	Position     int      `gorm:"column:position"`
	DMXFrom      int      `gorm:"column:dmx_from"`
	DMXTo        int      `gorm:"column:dmx_to"`
	PhysicalFrom *float64 `gorm:"column:physical_from"`
	PhysicalTo   *float64 `gorm:"column:physical_to"`
}

func (DraftSlot) TableName() string { return "draft_slots" }

// BuildRecord represents one completed package build.
// Table: build_records
type BuildRecord struct {
	ID           string    `gorm:"column:id;primaryKey"`
	DraftID      *string   `gorm:"column:draft_id;index"`
	FixtureName  string    `gorm:"column:fixture_name"`
	Manufacturer string    `gorm:"column:manufacturer"`
	FileName     string    `gorm:"column:file_name"`
	Source       string    `gorm:"column:source;default:ADHOC"`
	ModeCount    int       `gorm:"column:mode_count"`
	ChannelCount int       `gorm:"column:channel_count"`
	SizeBytes    int       `gorm:"column:size_bytes"`
	Warnings     *string   `gorm:"column:warnings"` // JSON array of builder warnings
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (BuildRecord) TableName() string { return "build_records" }
