package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/dirtyfeed/pkg/db/models"
	"github.com/angelmondragon/dirtyfeed/pkg/enums"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var _ Repository = (*fakeRepository)(nil)

type fakeRepository struct {
	createFn func(ctx context.Context, run *models.FeedRun) error
}

func (f *fakeRepository) Create(ctx context.Context, run *models.FeedRun) error {
	if f.createFn != nil {
		return f.createFn(ctx, run)
	}
	return nil
}

func (f *fakeRepository) ListByPassID(ctx context.Context, passID string) ([]models.FeedRun, error) {
	return nil, nil
}

func (f *fakeRepository) LatestUploaded(ctx context.Context, artifact string) (*models.FeedRun, error) {
	return nil, nil
}

func validInput() RecordRunInput {
	started := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	return RecordRunInput{
		PassID:     uuid.NewString(),
		Job:        "customers",
		Artifact:   "customers",
		ObjectKey:  "data/json/customers.json",
		Format:     enums.ArtifactFormatJSON,
		Records:    10,
		Bytes:      512,
		StartedAt:  started,
		FinishedAt: started.Add(time.Second),
	}
}

func TestService_RecordRun(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo, "feeder-1")
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	var created *models.FeedRun
	repo.createFn = func(ctx context.Context, run *models.FeedRun) error {
		created = run
		return nil
	}

	got, err := svc.RecordRun(context.Background(), validInput())
	if err != nil {
		t.Fatalf("RecordRun error: %v", err)
	}
	if got != created {
		t.Fatalf("expected returned run to be persisted")
	}
	if got.Status != enums.RunStatusUploaded || got.ErrorMessage != nil {
		t.Fatalf("unexpected status %s", got.Status)
	}
	if got.WorkerID != "feeder-1" || got.ID == uuid.Nil {
		t.Fatalf("worker id or id not populated: %+v", got)
	}
}

func TestService_RecordRunStoresFailure(t *testing.T) {
	svc, err := NewService(&fakeRepository{}, "feeder-1")
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	input := validInput()
	input.Err = errors.New("bucket unreachable")
	got, err := svc.RecordRun(context.Background(), input)
	if err != nil {
		t.Fatalf("RecordRun error: %v", err)
	}
	if got.Status != enums.RunStatusFailed {
		t.Fatalf("expected failed status, got %s", got.Status)
	}
	if got.ErrorMessage == nil || *got.ErrorMessage != "bucket unreachable" {
		t.Fatalf("unexpected error message %v", got.ErrorMessage)
	}
}

func TestService_RecordRunValidation(t *testing.T) {
	svc, err := NewService(&fakeRepository{}, "feeder-1")
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	mutations := map[string]func(*RecordRunInput){
		"pass":     func(in *RecordRunInput) { in.PassID = "" },
		"artifact": func(in *RecordRunInput) { in.Artifact = "" },
		"format":   func(in *RecordRunInput) { in.Format = "xml" },
		"times":    func(in *RecordRunInput) { in.FinishedAt = in.StartedAt.Add(-time.Second) },
	}
	for name, mutate := range mutations {
		input := validInput()
		mutate(&input)
		if _, err := svc.RecordRun(context.Background(), input); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestService_RecordRunPropagatesRepoError(t *testing.T) {
	repo := &fakeRepository{createFn: func(context.Context, *models.FeedRun) error {
		return errors.New("insert failed")
	}}
	svc, _ := NewService(repo, "feeder-1")
	if _, err := svc.RecordRun(context.Background(), validInput()); err == nil {
		t.Fatal("expected repository error")
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(nil, "feeder-1"); err == nil {
		t.Fatal("expected error for nil repository")
	}
	if _, err := NewService(&fakeRepository{}, " "); err == nil {
		t.Fatal("expected error for blank worker id")
	}
}

func TestRepositoryRoundTripOnSQLite(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:ledgerrepo?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.FeedRun{}))

	svc, err := NewService(NewRepository(conn), "feeder-1")
	require.NoError(t, err)

	ctx := context.Background()
	first := validInput()
	_, err = svc.RecordRun(ctx, first)
	require.NoError(t, err)

	second := first
	second.StartedAt = first.FinishedAt
	second.FinishedAt = first.FinishedAt.Add(time.Minute)
	second.Records = 20
	_, err = svc.RecordRun(ctx, second)
	require.NoError(t, err)

	failed := second
	failed.StartedAt = second.FinishedAt
	failed.FinishedAt = second.FinishedAt.Add(time.Minute)
	failed.Err = errors.New("denied")
	_, err = svc.RecordRun(ctx, failed)
	require.NoError(t, err)

	runs, err := svc.PassRuns(ctx, first.PassID)
	require.NoError(t, err)
	require.Len(t, runs, 3)

	last, err := svc.LastUpload(ctx, "customers")
	require.NoError(t, err)
	require.NotNil(t, last)
	require.Equal(t, 20, last.Records)

	none, err := svc.LastUpload(ctx, "providers")
	require.NoError(t, err)
	require.Nil(t, none)
}
