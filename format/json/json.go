// Package json renders a report as a JSON document.
package json

import (
	"encoding/json"

	"github.com/netsampler/flowcount/format"
	"github.com/netsampler/flowcount/orchestrator"
)

type TagCount struct {
	Tag   string `json:"tag"`
	Count uint64 `json:"count"`
}

type PortProtocolCount struct {
	Port     int    `json:"port"`
	Protocol string `json:"protocol"`
	Count    uint64 `json:"count"`
}

type Report struct {
	Tags          []TagCount          `json:"tags,omitempty"`
	PortProtocols []PortProtocolCount `json:"port_protocols"`
}

type JsonDriver struct {
}

func (d *JsonDriver) Prepare() error {
	return nil
}

func (d *JsonDriver) Init() error {
	return nil
}

func (d *JsonDriver) Render(rs orchestrator.ResultSet) ([]byte, []byte, error) {
	output, err := json.Marshal(NewReport(rs))
	return nil, output, err
}

// NewReport copies the counts of a result set into their JSON form.
func NewReport(rs orchestrator.ResultSet) Report {
	report := Report{
		PortProtocols: make([]PortProtocolCount, 0, len(rs.PortProtocols)),
	}
	for _, c := range rs.Tags {
		report.Tags = append(report.Tags, TagCount{Tag: c.Tag, Count: c.Count})
	}
	for _, c := range rs.PortProtocols {
		report.PortProtocols = append(report.PortProtocols, PortProtocolCount{Port: c.Port, Protocol: c.Protocol, Count: c.Count})
	}
	return report
}

func init() {
	d := &JsonDriver{}
	format.RegisterFormatDriver("json", d)
}
