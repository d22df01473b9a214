package csv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netsampler/flowcount/format"
	"github.com/netsampler/flowcount/orchestrator"
	"github.com/netsampler/flowcount/tracker"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		rs       orchestrator.ResultSet
		expected string
	}{
		{
			name: "both sections",
			rs: orchestrator.ResultSet{
				Tagging: true,
				Tags:    []tracker.TagCount{{Tag: "sv_P1", Count: 2}, {Tag: "Untagged", Count: 1}},
				PortProtocols: []tracker.PortProtocolCount{
					{Port: 443, Protocol: "tcp", Count: 2},
					{Port: 53, Protocol: "udp", Count: 1},
				},
			},
			expected: "tag,count\nsv_P1,2\nUntagged,1\nport,protocol,count\n443,tcp,2\n53,udp,1\n",
		},
		{
			name: "no tag section",
			rs: orchestrator.ResultSet{
				PortProtocols: []tracker.PortProtocolCount{{Port: 443, Protocol: "tcp", Count: 2}},
			},
			expected: "port,protocol,count\n443,tcp,2\n",
		},
		{
			name: "tagging enabled but empty",
			rs: orchestrator.ResultSet{
				Tagging: true,
			},
			expected: "",
		},
	}
	d := &CSVDriver{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, out, err := d.Render(tt.rs)
			require.NoError(t, err)
			assert.Nil(t, key)
			assert.Equal(t, tt.expected, string(out))
		})
	}
}

func TestFormatRegistered(t *testing.T) {
	f, err := format.FindFormat("csv")
	require.NoError(t, err)
	assert.Equal(t, "csv", f.Name())

	_, out, err := f.Format(orchestrator.ResultSet{
		PortProtocols: []tracker.PortProtocolCount{{Port: 8080, Protocol: "47", Count: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "port,protocol,count\n8080,47,1\n", string(out))
}
