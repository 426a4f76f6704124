package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/dirtyfeed/internal/cron"
	"github.com/angelmondragon/dirtyfeed/internal/ledger"
	"github.com/angelmondragon/dirtyfeed/internal/notify"
	"github.com/angelmondragon/dirtyfeed/pkg/bigquery"
	pkgerrors "github.com/angelmondragon/dirtyfeed/pkg/errors"
	"github.com/angelmondragon/dirtyfeed/pkg/logger"
	"github.com/angelmondragon/dirtyfeed/pkg/metrics"
	"github.com/angelmondragon/dirtyfeed/pkg/storage"
)

// Mirror receives uploaded rows for the warehouse copy.
type Mirror interface {
	InsertRows(ctx context.Context, table string, rows []bigquery.Row) error
}

// RunRecorder stores one ledger row per publish attempt.
type RunRecorder interface {
	RecordRun(ctx context.Context, input ledger.RecordRunInput) error
}

// LedgerRecorder adapts a ledger service to RunRecorder.
func LedgerRecorder(svc ledger.Service) RunRecorder {
	return ledgerRecorder{svc: svc}
}

type ledgerRecorder struct {
	svc ledger.Service
}

func (r ledgerRecorder) RecordRun(ctx context.Context, input ledger.RecordRunInput) error {
	_, err := r.svc.RecordRun(ctx, input)
	return err
}

// PublisherParams wires the publisher. Only Sink and Logger are required.
type PublisherParams struct {
	Sink     storage.Sink
	Logger   *logger.Logger
	Metrics  *metrics.FeedMetrics
	Mirror   Mirror
	Notifier notify.Notifier
	Ledger   RunRecorder
	Clock    func() time.Time
}

// Publisher writes artifacts to the sink and fans out side effects.
type Publisher struct {
	sink     storage.Sink
	logg     *logger.Logger
	metrics  *metrics.FeedMetrics
	mirror   Mirror
	notifier notify.Notifier
	ledger   RunRecorder
	now      func() time.Time
}

func NewPublisher(params PublisherParams) (*Publisher, error) {
	if params.Sink == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "sink required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "logger required")
	}
	notifier := params.Notifier
	if notifier == nil {
		notifier = notify.Noop{}
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Publisher{
		sink:     params.Sink,
		logg:     params.Logger,
		metrics:  params.Metrics,
		mirror:   params.Mirror,
		notifier: notifier,
		ledger:   params.Ledger,
		now:      clock,
	}, nil
}

// Publish encodes a and puts it in the sink. Only the upload decides the
// result; mirror, notify and ledger failures are logged.
func (p *Publisher) Publish(ctx context.Context, a Artifact) error {
	ctx = p.logg.WithArtifact(ctx, a.Name, a.Key)
	started := p.now()

	var existing []byte
	if a.Merge {
		existing = p.readExisting(ctx, a)
	}

	payload, err := a.encode(existing)
	if err != nil && existing != nil {
		readErr := pkgerrors.Wrap(pkgerrors.CodeSinkRead, err, "merge "+a.Key)
		p.logg.Warn(p.logg.WithField(ctx, "error", readErr.Error()), "existing artifact unusable; writing fresh records only")
		payload, err = a.encode(nil)
	}
	if err != nil {
		encErr := pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode "+a.Key)
		p.finish(ctx, a, started, 0, encErr)
		return encErr
	}

	if err := p.sink.Put(ctx, a.Key, payload, a.Format.ContentType()); err != nil {
		putErr := pkgerrors.Wrap(pkgerrors.CodeSinkWrite, err, "upload "+a.Key)
		p.finish(ctx, a, started, len(payload), putErr)
		return putErr
	}

	p.finish(ctx, a, started, len(payload), nil)
	return nil
}

func (p *Publisher) readExisting(ctx context.Context, a Artifact) []byte {
	existing, err := p.sink.Get(ctx, a.Key)
	if err == nil {
		return existing
	}
	if !errors.Is(err, storage.ErrNotFound) {
		readErr := pkgerrors.Wrap(pkgerrors.CodeSinkRead, err, "read "+a.Key)
		p.logg.Warn(p.logg.WithField(ctx, "error", readErr.Error()), "existing artifact unreadable; starting from empty list")
	}
	return nil
}

func (p *Publisher) finish(ctx context.Context, a Artifact, started time.Time, size int, err error) {
	finished := p.now()
	ctx = p.logg.WithFields(ctx, map[string]any{
		"records":     a.Records,
		"bytes":       size,
		"duration_ms": finished.Sub(started).Milliseconds(),
	})

	p.metrics.ObserveUpload(a.Name, err == nil, size)
	if err != nil {
		p.logg.Error(ctx, "artifact upload failed", err)
	} else {
		p.logg.Info(ctx, "artifact uploaded")
		p.mirrorRows(ctx, a)
		p.notify(ctx, a, size, finished)
	}
	p.record(ctx, a, started, finished, size, err)
}

func (p *Publisher) mirrorRows(ctx context.Context, a Artifact) {
	if p.mirror == nil || a.mirrorTo == "" || len(a.mirrorRows) == 0 {
		return
	}
	if err := p.mirror.InsertRows(ctx, a.mirrorTo, a.mirrorRows); err != nil {
		p.logg.Error(p.logg.WithField(ctx, "table", a.mirrorTo), "warehouse mirror failed",
			pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mirror "+a.Name))
	}
}

func (p *Publisher) notify(ctx context.Context, a Artifact, size int, uploaded time.Time) {
	event := notify.Event{
		Artifact:   a.Name,
		Key:        a.Key,
		Format:     a.Format.String(),
		Records:    a.Records,
		Bytes:      size,
		PassID:     cron.PassIDFromContext(ctx),
		UploadedAt: uploaded.UTC(),
	}
	if err := p.notifier.Notify(ctx, event); err != nil {
		p.logg.Error(ctx, "artifact notification failed",
			pkgerrors.Wrap(pkgerrors.CodeDependency, err, "notify "+a.Name))
	}
}

func (p *Publisher) record(ctx context.Context, a Artifact, started, finished time.Time, size int, runErr error) {
	if p.ledger == nil {
		return
	}
	passID := cron.PassIDFromContext(ctx)
	if passID == "" {
		passID = fmt.Sprintf("adhoc-%d", started.UnixNano())
	}
	err := p.ledger.RecordRun(ctx, ledger.RecordRunInput{
		PassID:     passID,
		Job:        a.Job,
		Artifact:   a.Name,
		ObjectKey:  a.Key,
		Format:     a.Format,
		Records:    a.Records,
		Bytes:      size,
		Err:        runErr,
		StartedAt:  started,
		FinishedAt: finished,
	})
	if err != nil {
		p.logg.Error(ctx, "run ledger write failed",
			pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ledger "+a.Name))
	}
}
