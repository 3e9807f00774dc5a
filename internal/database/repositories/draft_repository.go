package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/bbernstein/gdtf-builder-go/internal/database/models"
	"github.com/lucsky/cuid"
	"gorm.io/gorm"
)

// DraftRepository handles fixture draft data access.
type DraftRepository struct {
	db *gorm.DB
}

// NewDraftRepository creates a new DraftRepository.
func NewDraftRepository(db *gorm.DB) *DraftRepository {
	return &DraftRepository{db: db}
}

// FindAll returns all drafts without their mode trees, newest first.
func (r *DraftRepository) FindAll(ctx context.Context) ([]models.FixtureDraft, error) {
	var drafts []models.FixtureDraft
	result := r.db.WithContext(ctx).
		Order("updated_at DESC").
		Find(&drafts)
	return drafts, result.Error
}

// FindByID returns a draft with its full mode/channel/slot tree, each level
// ordered by position. Returns nil when the draft does not exist.
func (r *DraftRepository) FindByID(ctx context.Context, id string) (*models.FixtureDraft, error) {
	var draft models.FixtureDraft
	result := r.db.WithContext(ctx).
		Preload("Modes", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Modes.Channels", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Modes.Channels.Slots", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&draft, "id = ?", id)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, result.Error
	}
	return &draft, nil
}

// Create creates a draft together with any nested modes, channels and slots
// in a single transaction. Missing IDs and positions are assigned.
func (r *DraftRepository) Create(ctx context.Context, draft *models.FixtureDraft) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if draft.ID == "" {
			draft.ID = cuid.New()
		}
		modes := draft.Modes
		draft.Modes = nil
		if err := tx.Create(draft).Error; err != nil {
			return err
		}
		if err := createModes(tx, draft.ID, modes); err != nil {
			return err
		}
		draft.Modes = modes
		return nil
	})
}

// UpdateMeta updates the draft's name and manufacturer.
func (r *DraftRepository) UpdateMeta(ctx context.Context, id, name, manufacturer string) error {
	return r.db.WithContext(ctx).
		Model(&models.FixtureDraft{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"name":         name,
			"manufacturer": manufacturer,
		}).Error
}

// ReplaceModes swaps the draft's entire mode tree for the given one. The
// editor saves whole drafts, so partial updates are not worth their
// bookkeeping.
func (r *DraftRepository) ReplaceModes(ctx context.Context, draftID string, modes []models.DraftMode) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteModeTree(tx, draftID); err != nil {
			return err
		}
		if err := createModes(tx, draftID, modes); err != nil {
			return err
		}
		// Touch the draft so updated_at reflects the save
		return tx.Model(&models.FixtureDraft{}).
			Where("id = ?", draftID).
			Update("updated_at", time.Now()).Error
	})
}

// Delete removes a draft and its whole mode tree.
func (r *DraftRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteModeTree(tx, id); err != nil {
			return err
		}
		return tx.Delete(&models.FixtureDraft{}, "id = ?", id).Error
	})
}

// Duplicate deep-copies a draft under a new name and returns the copy's ID.
func (r *DraftRepository) Duplicate(ctx context.Context, id, name string) (string, error) {
	src, err := r.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	if src == nil {
		return "", fmt.Errorf("draft %s not found", id)
	}

	clone := models.FixtureDraft{
		Name:         name,
		Manufacturer: src.Manufacturer,
		Modes:        make([]models.DraftMode, len(src.Modes)),
	}
	for i, mode := range src.Modes {
		cloneMode := models.DraftMode{Name: mode.Name}
		for _, ch := range mode.Channels {
			cloneCh := models.DraftChannel{
				Name:     ch.Name,
				FineByte: ch.FineByte,
			}
			for _, slot := range ch.Slots {
				cloneCh.Slots = append(cloneCh.Slots, models.DraftSlot{
					Label:        slot.Label,
					DMXFrom:      slot.DMXFrom,
					DMXTo:        slot.DMXTo,
					PhysicalFrom: slot.PhysicalFrom,
					PhysicalTo:   slot.PhysicalTo,
				})
			}
			cloneMode.Channels = append(cloneMode.Channels, cloneCh)
		}
		clone.Modes[i] = cloneMode
	}

	if err := r.Create(ctx, &clone); err != nil {
		return "", err
	}
	return clone.ID, nil
}

// createModes persists a mode tree under a draft. Slice order is the source
// of truth: positions are always rewritten from the indices.
func createModes(tx *gorm.DB, draftID string, modes []models.DraftMode) error {
	for i := range modes {
		mode := &modes[i]
		if mode.ID == "" {
			mode.ID = cuid.New()
		}
		mode.DraftID = draftID
		mode.Position = i
		channels := mode.Channels
		mode.Channels = nil
		if err := tx.Create(mode).Error; err != nil {
			return err
		}
		for j := range channels {
			ch := &channels[j]
			if ch.ID == "" {
				ch.ID = cuid.New()
			}
			ch.ModeID = mode.ID
			ch.Position = j
			slots := ch.Slots
			ch.Slots = nil
			if err := tx.Create(ch).Error; err != nil {
				return err
			}
			for k := range slots {
				slot := &slots[k]
				if slot.ID == "" {
					slot.ID = cuid.New()
				}
				slot.ChannelID = ch.ID
				slot.Position = k
			}
			if len(slots) > 0 {
				if err := tx.Create(&slots).Error; err != nil {
					return err
				}
			}
			ch.Slots = slots
		}
		mode.Channels = channels
	}
	return nil
}

func deleteModeTree(tx *gorm.DB, draftID string) error {
	var modeIDs []string
	if err := tx.Model(&models.DraftMode{}).
		Where("draft_id = ?", draftID).
		Pluck("id", &modeIDs).Error; err != nil {
		return err
	}
	if len(modeIDs) == 0 {
		return nil
	}

	var channelIDs []string
	if err := tx.Model(&models.DraftChannel{}).
		Where("mode_id IN ?", modeIDs).
		Pluck("id", &channelIDs).Error; err != nil {
		return err
	}
	if len(channelIDs) > 0 {
		if err := tx.Delete(&models.DraftSlot{}, "channel_id IN ?", channelIDs).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.DraftChannel{}, "id IN ?", channelIDs).Error; err != nil {
			return err
		}
	}
	return tx.Delete(&models.DraftMode{}, "id IN ?", modeIDs).Error
}
