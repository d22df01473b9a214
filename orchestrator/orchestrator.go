// Package orchestrator routes flow records to the counting trackers and
// assembles the final report.
package orchestrator

import (
	"github.com/netsampler/flowcount/lookup"
	"github.com/netsampler/flowcount/protocols"
	"github.com/netsampler/flowcount/tracker"
)

// Mode is selected once, when the orchestrator is built.
type Mode int

const (
	NoLookupTable Mode = iota
	WithLookupTable
)

func (m Mode) String() string {
	switch m {
	case WithLookupTable:
		return "with-lookup-table"
	default:
		return "no-lookup-table"
	}
}

// ResultSet holds the counts of a run in first-seen order.
type ResultSet struct {
	Tagging       bool // tag counts were computed
	Tags          []tracker.TagCount
	PortProtocols []tracker.PortProtocolCount
}

// TagLines returns one "tag,count" line per tag.
func (rs ResultSet) TagLines() []string {
	lines := make([]string, 0, len(rs.Tags))
	for _, c := range rs.Tags {
		lines = append(lines, c.String())
	}
	return lines
}

// PortProtocolLines returns one "port,protocol,count" line per pair.
func (rs ResultSet) PortProtocolLines() []string {
	lines := make([]string, 0, len(rs.PortProtocols))
	for _, c := range rs.PortProtocols {
		lines = append(lines, c.String())
	}
	return lines
}

type Orchestrator struct {
	mode      Mode
	tagging   *tracker.TaggingTracker
	portProto *tracker.PortProtocolTracker
}

// New creates an Orchestrator. A nil table disables tag counting.
func New(resolver *protocols.Resolver, table *lookup.Table) *Orchestrator {
	o := &Orchestrator{
		mode:      NoLookupTable,
		portProto: tracker.NewPortProtocolTracker(resolver),
	}
	if table != nil {
		o.mode = WithLookupTable
		o.tagging = tracker.NewTaggingTracker(resolver, table)
	}
	return o
}

func (o *Orchestrator) Mode() Mode {
	return o.mode
}

// ProcessRecord forwards a record to the active trackers. Errors from the
// port/protocol tracker, such as protocols.ErrOutOfRange, are returned.
func (o *Orchestrator) ProcessRecord(port, protocol int) error {
	if o.mode == WithLookupTable {
		if err := o.tagging.Record(port, protocol); err != nil {
			return err
		}
	}
	return o.portProto.Record(port, protocol)
}

// Finalize builds the result set from the trackers.
func (o *Orchestrator) Finalize() ResultSet {
	rs := ResultSet{
		PortProtocols: o.portProto.Entries(),
	}
	if o.mode == WithLookupTable {
		rs.Tagging = true
		rs.Tags = o.tagging.Entries()
	}
	return rs
}
