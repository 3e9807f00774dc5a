// Package builder orchestrates fixture builds: loading drafts, compiling
// packages, recording build history, and publishing build events.
package builder

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bbernstein/gdtf-builder-go/internal/database/models"
	"github.com/bbernstein/gdtf-builder-go/internal/database/repositories"
	"github.com/bbernstein/gdtf-builder-go/internal/services/library"
	"github.com/bbernstein/gdtf-builder-go/internal/services/pubsub"
	"github.com/bbernstein/gdtf-builder-go/pkg/gdtf"
)

// Service compiles fixtures into .gdtf packages using the library's resolver
// and records every completed build.
type Service struct {
	draftRepo *repositories.DraftRepository
	buildRepo *repositories.BuildRepository
	library   *library.Service
	pubsub    *pubsub.PubSub
}

// NewService creates a build orchestration service.
func NewService(draftRepo *repositories.DraftRepository, buildRepo *repositories.BuildRepository, lib *library.Service, ps *pubsub.PubSub) *Service {
	return &Service{
		draftRepo: draftRepo,
		buildRepo: buildRepo,
		library:   lib,
		pubsub:    ps,
	}
}

// BuildResult carries a finished package and its recorded metadata.
type BuildResult struct {
	Data        []byte
	FileName    string
	FixtureName string
	Warnings    []string
	RecordID    string
}

// BuildEvent is published on TopicBuildCompleted after a package is recorded.
type BuildEvent struct {
	RecordID    string   `json:"recordId"`
	DraftID     string   `json:"draftId,omitempty"`
	FixtureName string   `json:"fixtureName"`
	FileName    string   `json:"fileName"`
	Source      string   `json:"source"`
	SizeBytes   int      `json:"sizeBytes"`
	Warnings    []string `json:"warnings,omitempty"`
}

// FileName derives the download file name for a fixture: spaces become
// underscores and the .gdtf extension is appended. Blank names fall back to
// the default fixture name first.
func FileName(fixtureName string) string {
	name := strings.TrimSpace(fixtureName)
	if name == "" {
		name = gdtf.DefaultFixtureName
	}
	return strings.ReplaceAll(name, " ", "_") + ".gdtf"
}

// BuildDraft loads a stored draft and builds it, recording the result against
// the draft.
func (s *Service) BuildDraft(ctx context.Context, draftID string) (*BuildResult, error) {
	draft, err := s.draftRepo.FindByID(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}
	if draft == nil {
		return nil, fmt.Errorf("draft %s not found", draftID)
	}
	return s.BuildFixture(ctx, DraftFixture(draft), models.BuildSourceDraft, &draft.ID)
}

// BuildFixture compiles a fixture into a .gdtf package, records the build,
// and publishes a completion event. draftID may be nil for ad hoc builds.
func (s *Service) BuildFixture(ctx context.Context, fx gdtf.Fixture, source string, draftID *string) (*BuildResult, error) {
	doc, warnings, err := s.newBuilder().Build(fx)
	if err != nil {
		return nil, err
	}
	content, err := doc.XML()
	if err != nil {
		return nil, err
	}
	data, err := gdtf.Package(content)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(fx.Name)
	if name == "" {
		name = gdtf.DefaultFixtureName
	}
	manufacturer := strings.TrimSpace(fx.Manufacturer)
	if manufacturer == "" {
		manufacturer = gdtf.DefaultManufacturer
	}

	channelCount := 0
	for _, mode := range doc.FixtureType.DMXModes.Modes {
		channelCount += len(mode.DMXChannels.Channels)
	}

	record := &models.BuildRecord{
		DraftID:      draftID,
		FixtureName:  name,
		Manufacturer: manufacturer,
		FileName:     FileName(name),
		Source:       source,
		ModeCount:    len(doc.FixtureType.DMXModes.Modes),
		ChannelCount: channelCount,
		SizeBytes:    len(data),
		Warnings:     warningsJSON(warnings),
	}
	if err := s.buildRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record build: %w", err)
	}

	event := BuildEvent{
		RecordID:    record.ID,
		FixtureName: name,
		FileName:    record.FileName,
		Source:      source,
		SizeBytes:   record.SizeBytes,
		Warnings:    warnings,
	}
	filter := ""
	if draftID != nil {
		filter = *draftID
		event.DraftID = *draftID
	}
	s.pubsub.Publish(pubsub.TopicBuildCompleted, filter, event)

	return &BuildResult{
		Data:        data,
		FileName:    record.FileName,
		FixtureName: name,
		Warnings:    warnings,
		RecordID:    record.ID,
	}, nil
}

// PreviewXML compiles a fixture to description.xml content without recording
// anything.
func (s *Service) PreviewXML(fx gdtf.Fixture) (string, []string, error) {
	return s.newBuilder().BuildXML(fx)
}

func (s *Service) newBuilder() *gdtf.Builder {
	b := gdtf.NewBuilder()
	if s.library != nil {
		b.Resolver = s.library.Resolver()
	}
	return b
}

func warningsJSON(warnings []string) *string {
	if len(warnings) == 0 {
		return nil
	}
	data, err := json.Marshal(warnings)
	if err != nil {
		return nil
	}
	s := string(data)
	return &s
}

// DraftFixture converts a stored draft tree into the builder's input shape.
func DraftFixture(draft *models.FixtureDraft) gdtf.Fixture {
	fx := gdtf.Fixture{
		Name:         draft.Name,
		Manufacturer: draft.Manufacturer,
	}
	for _, mode := range draft.Modes {
		m := gdtf.Mode{Name: mode.Name}
		for _, channel := range mode.Channels {
			c := gdtf.Channel{
				Name:     channel.Name,
				FineByte: channel.FineByte,
			}
			for _, slot := range channel.Slots {
				c.Slots = append(c.Slots, gdtf.Slot{
					Label:        slot.Label,
					DMXFrom:      slot.DMXFrom,
					DMXTo:        slot.DMXTo,
					PhysicalFrom: slot.PhysicalFrom,
					PhysicalTo:   slot.PhysicalTo,
				})
			}
			m.Channels = append(m.Channels, c)
		}
		fx.Modes = append(fx.Modes, m)
	}
	return fx
}

// DraftModes converts wire-shape modes into draft rows for storage. Row
// positions come from slice order when the repository persists them.
func DraftModes(modes []gdtf.Mode) []models.DraftMode {
	var out []models.DraftMode
	for _, mode := range modes {
		m := models.DraftMode{Name: mode.Name}
		for _, channel := range mode.Channels {
			c := models.DraftChannel{
				Name:     channel.Name,
				FineByte: channel.FineByte,
			}
			for _, slot := range channel.Slots {
				c.Slots = append(c.Slots, models.DraftSlot{
					Label:        slot.Label,
					DMXFrom:      slot.DMXFrom,
					DMXTo:        slot.DMXTo,
					PhysicalFrom: slot.PhysicalFrom,
					PhysicalTo:   slot.PhysicalTo,
				})
			}
			m.Channels = append(m.Channels, c)
		}
		out = append(out, m)
	}
	return out
}
