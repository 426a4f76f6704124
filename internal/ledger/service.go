package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/dirtyfeed/pkg/db/models"
	"github.com/angelmondragon/dirtyfeed/pkg/enums"
	"github.com/google/uuid"
)

// Service records artifact publications so operators can audit each pass.
type Service interface {
	RecordRun(ctx context.Context, input RecordRunInput) (*models.FeedRun, error)
	PassRuns(ctx context.Context, passID string) ([]models.FeedRun, error)
	LastUpload(ctx context.Context, artifact string) (*models.FeedRun, error)
}

type service struct {
	repo     Repository
	workerID string
}

// RecordRunInput captures one publication attempt.
type RecordRunInput struct {
	PassID     string
	Job        string
	Artifact   string
	ObjectKey  string
	Format     enums.ArtifactFormat
	Records    int
	Bytes      int
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository, workerID string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if strings.TrimSpace(workerID) == "" {
		return nil, fmt.Errorf("worker id required")
	}
	return &service{repo: repo, workerID: workerID}, nil
}

func (s *service) RecordRun(ctx context.Context, input RecordRunInput) (*models.FeedRun, error) {
	if input.PassID == "" {
		return nil, fmt.Errorf("pass id is required")
	}
	if input.Artifact == "" {
		return nil, fmt.Errorf("artifact is required")
	}
	if !input.Format.IsValid() {
		return nil, fmt.Errorf("invalid artifact format %q", input.Format)
	}
	if input.FinishedAt.Before(input.StartedAt) {
		return nil, fmt.Errorf("finished_at precedes started_at")
	}

	run := &models.FeedRun{
		ID:         uuid.New(),
		PassID:     input.PassID,
		Job:        input.Job,
		Artifact:   input.Artifact,
		ObjectKey:  input.ObjectKey,
		Format:     input.Format,
		Records:    input.Records,
		Bytes:      input.Bytes,
		Status:     enums.RunStatusUploaded,
		WorkerID:   s.workerID,
		StartedAt:  input.StartedAt.UTC(),
		FinishedAt: input.FinishedAt.UTC(),
	}
	if input.Err != nil {
		msg := input.Err.Error()
		run.Status = enums.RunStatusFailed
		run.ErrorMessage = &msg
	}

	if err := s.repo.Create(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

func (s *service) PassRuns(ctx context.Context, passID string) ([]models.FeedRun, error) {
	if passID == "" {
		return nil, fmt.Errorf("pass id is required")
	}
	return s.repo.ListByPassID(ctx, passID)
}

func (s *service) LastUpload(ctx context.Context, artifact string) (*models.FeedRun, error) {
	if artifact == "" {
		return nil, fmt.Errorf("artifact is required")
	}
	return s.repo.LatestUploaded(ctx, artifact)
}
