package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/prometheus/common/expfmt"
)

const pushJob = "flowcount"

// Push sends the run collectors to a Prometheus pushgateway.
func (r *Run) Push(uri string) error {
	if r == nil {
		return nil
	}
	err := push.New(uri, pushJob).
		Gatherer(r.registry).
		Format(expfmt.FmtText).
		Push()
	if err != nil {
		return fmt.Errorf("could not push metrics, %w", err)
	}
	return nil
}

// WriteTextfile writes the run collectors in the text exposition format,
// for the node exporter textfile collector.
func (r *Run) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("could not write metrics textfile, %w", err)
	}
	return nil
}
