package feed

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/dirtyfeed/internal/artifacts"
	"github.com/angelmondragon/dirtyfeed/internal/cron"
	"github.com/angelmondragon/dirtyfeed/internal/ledger"
	"github.com/angelmondragon/dirtyfeed/internal/notify"
	"github.com/angelmondragon/dirtyfeed/pkg/bigquery"
	"github.com/angelmondragon/dirtyfeed/pkg/enums"
	pkgerrors "github.com/angelmondragon/dirtyfeed/pkg/errors"
	"github.com/angelmondragon/dirtyfeed/pkg/logger"
	"github.com/angelmondragon/dirtyfeed/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakySink struct {
	*storage.MemorySink
	failPut map[string]bool
	getErr  error
	puts    []string
}

func newFlakySink() *flakySink {
	return &flakySink{MemorySink: storage.NewMemorySink(), failPut: map[string]bool{}}
}

func (f *flakySink) Put(ctx context.Context, name string, payload []byte, contentType string) error {
	f.puts = append(f.puts, name)
	if f.failPut[name] {
		return errors.New("bucket unreachable")
	}
	return f.MemorySink.Put(ctx, name, payload, contentType)
}

func (f *flakySink) Get(ctx context.Context, name string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.MemorySink.Get(ctx, name)
}

type fakeMirror struct {
	tables map[string]int
	err    error
}

func (f *fakeMirror) InsertRows(_ context.Context, table string, rows []bigquery.Row) error {
	if f.tables == nil {
		f.tables = map[string]int{}
	}
	f.tables[table] += len(rows)
	return f.err
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []notify.Event
	err    error
}

func (f *fakeNotifier) Notify(_ context.Context, event notify.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return f.err
}

func (f *fakeNotifier) Close() error { return nil }

type fakeLedger struct {
	runs []ledger.RecordRunInput
	err  error
}

func (f *fakeLedger) RecordRun(_ context.Context, input ledger.RecordRunInput) error {
	f.runs = append(f.runs, input)
	return f.err
}

type record struct {
	ID string `json:"id"`
}

func newTestPublisher(t *testing.T, sink storage.Sink, params PublisherParams) (*Publisher, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	params.Sink = sink
	params.Logger = logger.New(logger.Options{ServiceName: "feed-test", Output: &buf})
	params.Clock = func() time.Time { return time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC) }
	pub, err := NewPublisher(params)
	require.NoError(t, err)
	return pub, &buf
}

func storedCount(t *testing.T, sink *flakySink, key string) int {
	t.Helper()
	obj, ok := sink.Object(key)
	require.True(t, ok, "missing %s", key)
	n, err := artifacts.CountJSON(obj.Payload)
	require.NoError(t, err)
	return n
}

func TestPublishMergesWithExistingArray(t *testing.T) {
	sink := newFlakySink()
	require.NoError(t, sink.MemorySink.Put(context.Background(), "data/json/customers.json", []byte(`[{"id":"old"}]`), "application/json"))
	pub, _ := newTestPublisher(t, sink, PublisherParams{})

	err := pub.Publish(context.Background(), JSONArtifact("customers", "data/json/customers.json", []record{{ID: "a"}, {ID: "b"}}, true))
	require.NoError(t, err)
	assert.Equal(t, 3, storedCount(t, sink, "data/json/customers.json"))

	obj, _ := sink.Object("data/json/customers.json")
	assert.Equal(t, "application/json", obj.ContentType)
	assert.True(t, strings.Contains(string(obj.Payload), `"old"`))
}

func TestPublishTreatsMissingBlobAsEmpty(t *testing.T) {
	sink := newFlakySink()
	pub, _ := newTestPublisher(t, sink, PublisherParams{})

	require.NoError(t, pub.Publish(context.Background(), JSONArtifact("receipts", "data/json/receipts.json", []record{{ID: "a"}}, true)))
	assert.Equal(t, 1, storedCount(t, sink, "data/json/receipts.json"))
}

func TestPublishDegradesWhenExistingUnusable(t *testing.T) {
	sink := newFlakySink()
	require.NoError(t, sink.MemorySink.Put(context.Background(), "data/json/products.json", []byte(`{"not":"a list"}`), "application/json"))
	pub, logs := newTestPublisher(t, sink, PublisherParams{})

	require.NoError(t, pub.Publish(context.Background(), JSONArtifact("products", "data/json/products.json", []record{{ID: "a"}, {ID: "b"}}, true)))
	assert.Equal(t, 2, storedCount(t, sink, "data/json/products.json"))
	assert.Contains(t, logs.String(), string(pkgerrors.CodeSinkRead))
}

func TestPublishDegradesWhenReadFails(t *testing.T) {
	sink := newFlakySink()
	sink.getErr = errors.New("permission denied")
	pub, logs := newTestPublisher(t, sink, PublisherParams{})

	require.NoError(t, pub.Publish(context.Background(), JSONArtifact("inventories", "data/json/inventories.json", []record{{ID: "a"}}, true)))
	assert.Equal(t, 1, storedCount(t, sink, "data/json/inventories.json"))
	assert.Contains(t, logs.String(), "existing artifact unreadable")
}

func TestPublishWithoutMergeSkipsRead(t *testing.T) {
	sink := newFlakySink()
	sink.getErr = errors.New("must not be called")
	pub, logs := newTestPublisher(t, sink, PublisherParams{})

	require.NoError(t, pub.Publish(context.Background(), JSONArtifact("products", "products.json", []record{{ID: "a"}}, false)))
	assert.NotContains(t, logs.String(), "must not be called")
}

func TestPublishFanOutAfterUpload(t *testing.T) {
	sink := newFlakySink()
	mirror := &fakeMirror{}
	notifier := &fakeNotifier{}
	runs := &fakeLedger{}
	pub, _ := newTestPublisher(t, sink, PublisherParams{Mirror: mirror, Notifier: notifier, Ledger: runs})

	rows, err := MirrorRows([]record{{ID: "a"}, {ID: "b"}}, "id")
	require.NoError(t, err)
	a := JSONArtifact("invoices", "data/json/invoices.json", []record{{ID: "a"}, {ID: "b"}}, true).WithMirror("invoices", rows)
	a.Job = JobCustomers

	ctx := cron.WithPassID(context.Background(), "pass-1")
	require.NoError(t, pub.Publish(ctx, a))

	assert.Equal(t, 2, mirror.tables["invoices"])
	require.Len(t, notifier.events, 1)
	event := notifier.events[0]
	assert.Equal(t, "invoices", event.Artifact)
	assert.Equal(t, "pass-1", event.PassID)
	assert.Equal(t, 2, event.Records)
	assert.Equal(t, "json", event.Format)
	assert.Positive(t, event.Bytes)

	require.Len(t, runs.runs, 1)
	assert.Equal(t, "pass-1", runs.runs[0].PassID)
	assert.Equal(t, JobCustomers, runs.runs[0].Job)
	assert.NoError(t, runs.runs[0].Err)
}

func TestPublishWriteFailureIsSinkWriteError(t *testing.T) {
	sink := newFlakySink()
	sink.failPut["data/json/receipts.json"] = true
	mirror := &fakeMirror{}
	notifier := &fakeNotifier{}
	runs := &fakeLedger{}
	pub, _ := newTestPublisher(t, sink, PublisherParams{Mirror: mirror, Notifier: notifier, Ledger: runs})

	rows, _ := MirrorRows([]record{{ID: "a"}}, "id")
	err := pub.Publish(context.Background(), JSONArtifact("receipts", "data/json/receipts.json", []record{{ID: "a"}}, true).WithMirror("receipts", rows))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeSinkWrite, pkgerrors.CodeOf(err))
	assert.False(t, pkgerrors.IsFatal(err))

	assert.Empty(t, mirror.tables)
	assert.Empty(t, notifier.events)
	require.Len(t, runs.runs, 1)
	assert.Error(t, runs.runs[0].Err)
	assert.True(t, strings.HasPrefix(runs.runs[0].PassID, "adhoc-"))
}

func TestPublishSideEffectFailuresAreBestEffort(t *testing.T) {
	sink := newFlakySink()
	pub, logs := newTestPublisher(t, sink, PublisherParams{
		Mirror:   &fakeMirror{err: errors.New("quota")},
		Notifier: &fakeNotifier{err: errors.New("topic gone")},
		Ledger:   &fakeLedger{err: errors.New("db down")},
	})

	rows, _ := MirrorRows([]record{{ID: "a"}}, "id")
	err := pub.Publish(context.Background(), JSONArtifact("providers", "p.json", []record{{ID: "a"}}, false).WithMirror("providers", rows))
	require.NoError(t, err)
	for _, msg := range []string{"warehouse mirror failed", "artifact notification failed", "run ledger write failed"} {
		assert.Contains(t, logs.String(), msg)
	}
}

func TestPublishCSVAppend(t *testing.T) {
	sink := newFlakySink()
	pub, _ := newTestPublisher(t, sink, PublisherParams{})
	ctx := context.Background()

	txs := sampleTransactions()
	a := TransactionsCSVArtifact("transactions_csv", "data/csv/transactions.csv", txs, true)
	require.Equal(t, enums.ArtifactFormatCSV, a.Format)
	require.Equal(t, 3, a.Records)

	require.NoError(t, pub.Publish(ctx, a))
	require.NoError(t, pub.Publish(ctx, a))

	obj, ok := sink.Object("data/csv/transactions.csv")
	require.True(t, ok)
	assert.Equal(t, "text/csv", obj.ContentType)
	n, err := artifacts.CountCSV(obj.Payload)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
}

func TestPublishCSVReplaceByDefault(t *testing.T) {
	sink := newFlakySink()
	pub, _ := newTestPublisher(t, sink, PublisherParams{})
	ctx := context.Background()

	a := TransactionsCSVArtifact("transactions_csv", "data/csv/transactions.csv", sampleTransactions(), false)
	require.NoError(t, pub.Publish(ctx, a))
	require.NoError(t, pub.Publish(ctx, a))

	obj, _ := sink.Object("data/csv/transactions.csv")
	n, err := artifacts.CountCSV(obj.Payload)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestNewPublisherRequiresSinkAndLogger(t *testing.T) {
	_, err := NewPublisher(PublisherParams{Logger: logger.New(logger.Options{})})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsFatal(err))

	_, err = NewPublisher(PublisherParams{Sink: storage.NewMemorySink()})
	require.Error(t, err)
}

func TestMirrorRowsUsesIDField(t *testing.T) {
	rows, err := MirrorRows([]record{{ID: "x"}, {ID: "y"}}, "id")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "x", rows[0].InsertID)
	assert.Equal(t, "y", rows[1].Values["id"])

	rows, err = MirrorRows([]record{{ID: "x"}}, "")
	require.NoError(t, err)
	assert.Empty(t, rows[0].InsertID)
}
