package ledger

import (
	"context"
	"errors"

	"github.com/angelmondragon/dirtyfeed/pkg/db/models"
	"github.com/angelmondragon/dirtyfeed/pkg/enums"
	"gorm.io/gorm"
)

// Repository manages persistence for feed runs.
type Repository interface {
	Create(ctx context.Context, run *models.FeedRun) error
	ListByPassID(ctx context.Context, passID string) ([]models.FeedRun, error)
	LatestUploaded(ctx context.Context, artifact string) (*models.FeedRun, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, run *models.FeedRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *repository) ListByPassID(ctx context.Context, passID string) ([]models.FeedRun, error) {
	var runs []models.FeedRun
	if err := r.db.WithContext(ctx).
		Where("pass_id = ?", passID).
		Order("started_at ASC").
		Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

// LatestUploaded returns nil when the artifact was never uploaded successfully.
func (r *repository) LatestUploaded(ctx context.Context, artifact string) (*models.FeedRun, error) {
	var run models.FeedRun
	err := r.db.WithContext(ctx).
		Where("artifact = ? AND status = ?", artifact, enums.RunStatusUploaded).
		Order("finished_at DESC").
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}
