package repositories

import (
	"context"

	"github.com/bbernstein/gdtf-builder-go/internal/database/models"
	"github.com/lucsky/cuid"
	"gorm.io/gorm"
)

// BuildRepository handles build history data access.
type BuildRepository struct {
	db *gorm.DB
}

// NewBuildRepository creates a new BuildRepository.
func NewBuildRepository(db *gorm.DB) *BuildRepository {
	return &BuildRepository{db: db}
}

// Create records a completed build.
func (r *BuildRepository) Create(ctx context.Context, record *models.BuildRecord) error {
	if record.ID == "" {
		record.ID = cuid.New()
	}
	return r.db.WithContext(ctx).Create(record).Error
}

// FindAll returns build records, newest first, capped at limit. A limit of
// zero or less means no cap.
func (r *BuildRepository) FindAll(ctx context.Context, limit int) ([]models.BuildRecord, error) {
	var records []models.BuildRecord
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	result := query.Find(&records)
	return records, result.Error
}

// FindByDraftID returns all builds of one draft, newest first.
func (r *BuildRepository) FindByDraftID(ctx context.Context, draftID string) ([]models.BuildRecord, error) {
	var records []models.BuildRecord
	result := r.db.WithContext(ctx).
		Where("draft_id = ?", draftID).
		Order("created_at DESC").
		Find(&records)
	return records, result.Error
}

// FindByID returns a build record by ID, or nil when absent.
func (r *BuildRepository) FindByID(ctx context.Context, id string) (*models.BuildRecord, error) {
	var record models.BuildRecord
	result := r.db.WithContext(ctx).First(&record, "id = ?", id)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, result.Error
	}
	return &record, nil
}
