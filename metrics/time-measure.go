package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type TimeMeasure struct {
	now time.Time
}

func TimeMeasureNow() TimeMeasure {
	return TimeMeasure{now: time.Now()}
}

// Start returns when the measure began.
func (t TimeMeasure) Start() time.Time {
	return t.now
}

func (t TimeMeasure) MeasureTime(metric prometheus.Gauge) {
	metric.Set(time.Since(t.now).Seconds())
}
