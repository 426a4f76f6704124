package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/dirtyfeed/pkg/enums"
)

// FeedRun records one artifact publication attempt within a generation pass.
type FeedRun struct {
	ID           uuid.UUID            `gorm:"column:id;primaryKey" json:"id"`
	PassID       string               `gorm:"column:pass_id;not null" json:"pass_id"`
	Job          string               `gorm:"column:job;not null" json:"job"`
	Artifact     string               `gorm:"column:artifact;not null" json:"artifact"`
	ObjectKey    string               `gorm:"column:object_key;not null" json:"object_key"`
	Format       enums.ArtifactFormat `gorm:"column:format;not null" json:"format"`
	Records      int                  `gorm:"column:records;not null" json:"records"`
	Bytes        int                  `gorm:"column:bytes;not null" json:"bytes"`
	Status       enums.RunStatus      `gorm:"column:status;not null" json:"status"`
	ErrorMessage *string              `gorm:"column:error_message" json:"error_message,omitempty"`
	WorkerID     string               `gorm:"column:worker_id;not null" json:"worker_id"`
	StartedAt    time.Time            `gorm:"column:started_at;not null" json:"started_at"`
	FinishedAt   time.Time            `gorm:"column:finished_at;not null" json:"finished_at"`
}

func (FeedRun) TableName() string {
	return "feed_runs"
}
