// Package csv renders a report as the two comma separated count tables.
package csv

import (
	"bytes"

	"github.com/netsampler/flowcount/format"
	"github.com/netsampler/flowcount/orchestrator"
)

const (
	TagHeader          = "tag,count"
	PortProtocolHeader = "port,protocol,count"
)

type CSVDriver struct {
}

func (d *CSVDriver) Prepare() error {
	return nil
}

func (d *CSVDriver) Init() error {
	return nil
}

// Render writes the tag section when it has entries, then the port/protocol
// section when it has entries.
func (d *CSVDriver) Render(rs orchestrator.ResultSet) ([]byte, []byte, error) {
	var buf bytes.Buffer
	writeSection(&buf, TagHeader, rs.TagLines())
	writeSection(&buf, PortProtocolHeader, rs.PortProtocolLines())
	return nil, buf.Bytes(), nil
}

func writeSection(buf *bytes.Buffer, header string, lines []string) {
	if len(lines) == 0 {
		return
	}
	buf.WriteString(header)
	buf.WriteByte('\n')
	for _, line := range lines {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
}

func init() {
	d := &CSVDriver{}
	format.RegisterFormatDriver("csv", d)
}
