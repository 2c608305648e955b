package dsv

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/shapestone/shape-dsv/internal/parser"
)

// Metrics counts parser activity. One Metrics may be shared by any number
// of parsers.
type Metrics struct {
	records     prometheus.Counter
	diagnostics *prometheus.CounterVec
	characters  prometheus.Counter
	batches     prometheus.Counter
}

// NewMetrics registers the parser metrics with reg. A nil reg creates
// unregistered metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		records: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "dsv_records_parsed_total",
			Help: "Total number of records returned by the parser.",
		}),
		diagnostics: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "dsv_diagnostics_total",
			Help: "Total number of diagnostics reported by the parser.",
		}, []string{"kind"}),
		characters: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "dsv_characters_consumed_total",
			Help: "Total number of input characters consumed by the parser.",
		}),
		batches: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "dsv_batches_total",
			Help: "Total number of Parse calls that completed without a fatal error.",
		}),
	}
}

// ObserveBatch implements the parser observer.
func (m *Metrics) ObserveBatch(records int, diagnostics []parser.Diagnostic, characters int64) {
	m.batches.Inc()
	m.records.Add(float64(records))
	m.characters.Add(float64(characters))
	for _, d := range diagnostics {
		m.diagnostics.WithLabelValues(d.Kind.String()).Inc()
	}
}
