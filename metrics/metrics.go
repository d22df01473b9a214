package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	NAMESPACE = "flowcount"
)

// Run holds the collectors of a single counting run. A nil *Run is valid and
// records nothing.
type Run struct {
	registry *prometheus.Registry

	lines            prometheus.Counter
	linesSkipped     *prometheus.CounterVec
	records          prometheus.Counter
	referenceEntries *prometheus.GaugeVec
	resultEntries    *prometheus.GaugeVec
	duration         prometheus.Gauge
	lastSuccess      prometheus.Gauge
}

// NewRun creates the collectors on a dedicated registry.
func NewRun() *Run {
	r := &Run{
		registry: prometheus.NewRegistry(),
		lines: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name:      "lines_total",
				Help:      "Non blank flow log lines read.",
				Namespace: NAMESPACE,
			}),
		linesSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:      "lines_skipped_total",
				Help:      "Flow log lines skipped, by reason.",
				Namespace: NAMESPACE,
			},
			[]string{"reason"},
		),
		records: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name:      "records_total",
				Help:      "Flow records counted.",
				Namespace: NAMESPACE,
			}),
		referenceEntries: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name:      "reference_entries",
				Help:      "Entries loaded from reference tables.",
				Namespace: NAMESPACE,
			},
			[]string{"table"},
		),
		resultEntries: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name:      "result_entries",
				Help:      "Distinct keys in the final report.",
				Namespace: NAMESPACE,
			},
			[]string{"section"},
		),
		duration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name:      "run_duration_seconds",
				Help:      "Duration of the last run.",
				Namespace: NAMESPACE,
			}),
		lastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name:      "last_success_timestamp_seconds",
				Help:      "Time the last successful run completed.",
				Namespace: NAMESPACE,
			}),
	}
	r.registry.MustRegister(
		r.lines,
		r.linesSkipped,
		r.records,
		r.referenceEntries,
		r.resultEntries,
		r.duration,
		r.lastSuccess,
	)
	return r
}

// Registry returns the registry holding the run collectors.
func (r *Run) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Run) Line() {
	if r == nil {
		return
	}
	r.lines.Inc()
}

func (r *Run) Record() {
	if r == nil {
		return
	}
	r.records.Inc()
}

func (r *Run) Skipped(reason string) {
	if r == nil {
		return
	}
	r.linesSkipped.With(prometheus.Labels{"reason": reason}).Inc()
}

func (r *Run) ReferenceEntries(table string, n int) {
	if r == nil {
		return
	}
	r.referenceEntries.With(prometheus.Labels{"table": table}).Set(float64(n))
}

func (r *Run) ResultEntries(section string, n int) {
	if r == nil {
		return
	}
	r.resultEntries.With(prometheus.Labels{"section": section}).Set(float64(n))
}

// Done records the run duration and marks the run successful.
func (r *Run) Done(tm TimeMeasure) {
	if r == nil {
		return
	}
	tm.MeasureTime(r.duration)
	r.lastSuccess.SetToCurrentTime()
}
