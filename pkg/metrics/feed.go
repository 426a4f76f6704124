package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// FeedMetrics counts what the generator produced and what reached the sink.
type FeedMetrics struct {
	records *prometheus.CounterVec
	defects *prometheus.CounterVec
	uploads *prometheus.CounterVec
	bytes   *prometheus.CounterVec
}

func NewFeedMetrics(reg prometheus.Registerer) *FeedMetrics {
	if reg == nil {
		return &FeedMetrics{}
	}
	m := &FeedMetrics{
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_generated_total",
			Help:      "Records generated per entity.",
		}, []string{"entity"}),
		defects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "defects_injected_total",
			Help:      "Corruption rules fired per entity field.",
		}, []string{"field"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifact_uploads_total",
			Help:      "Artifact uploads by outcome.",
		}, []string{"artifact", "outcome"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifact_bytes_total",
			Help:      "Bytes written per artifact.",
		}, []string{"artifact"}),
	}
	reg.MustRegister(m.records, m.defects, m.uploads, m.bytes)
	return m
}

func (m *FeedMetrics) AddRecords(entity string, n int) {
	if m == nil || m.records == nil || n <= 0 {
		return
	}
	m.records.WithLabelValues(normalizeLabel(entity)).Add(float64(n))
}

// AddDefects adds a field -> count tally.
func (m *FeedMetrics) AddDefects(tally map[string]int) {
	if m == nil || m.defects == nil {
		return
	}
	for field, n := range tally {
		if n > 0 {
			m.defects.WithLabelValues(normalizeLabel(field)).Add(float64(n))
		}
	}
}

func (m *FeedMetrics) ObserveUpload(artifact string, ok bool, size int) {
	if m == nil || m.uploads == nil {
		return
	}
	outcome := "failed"
	if ok {
		outcome = "uploaded"
		m.bytes.WithLabelValues(normalizeLabel(artifact)).Add(float64(size))
	}
	m.uploads.WithLabelValues(normalizeLabel(artifact), outcome).Inc()
}
