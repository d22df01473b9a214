package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/netsampler/flowcount/format/csv"
	_ "github.com/netsampler/flowcount/format/json"
	"github.com/netsampler/flowcount/pkg/flowcount/config"
	_ "github.com/netsampler/flowcount/transport/file"
)

const protocolReference = "Decimal,Keyword,Protocol,IPv6 Extension Header,Reference\n6,TCP,Transmission Control,,[RFC9293]\n17,UDP,User Datagram,,[RFC768]\n"

func flowLine(port, protocol string) string {
	return fmt.Sprintf("2 123456789012 eni-0a1b2c3d 10.0.1.201 198.51.100.2 443 %s %s 25 20000 1620140761 1620140821 ACCEPT OK\n", port, protocol)
}

type fixture struct {
	dir string
	cfg *config.Config
}

func newFixture(t *testing.T, flowLog string) *fixture {
	dir := t.TempDir()
	f := &fixture{dir: dir, cfg: config.Default()}
	f.cfg.LogLevel = "error"
	f.cfg.FlowLogPath = f.write(t, "flow.log", flowLog)
	f.cfg.ProtocolsPath = f.write(t, "protocol-numbers.csv", protocolReference)
	f.cfg.OutputPath = filepath.Join(dir, "output.csv")
	f.cfg.ErrorsPath = filepath.Join(dir, "errors.log")
	return f
}

func (f *fixture) write(t *testing.T, name, content string) string {
	path := filepath.Join(f.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (f *fixture) run(t *testing.T) error {
	a, err := New(f.cfg)
	require.NoError(t, err)
	return a.Run(context.Background())
}

func (f *fixture) output(t *testing.T) string {
	data, err := os.ReadFile(f.cfg.OutputPath)
	require.NoError(t, err)
	return string(data)
}

func (f *fixture) errors(t *testing.T) string {
	data, err := os.ReadFile(f.cfg.ErrorsPath)
	if os.IsNotExist(err) {
		return ""
	}
	require.NoError(t, err)
	return string(data)
}

func TestNoLookupTable(t *testing.T) {
	f := newFixture(t, flowLine("443", "6")+flowLine("443", "6"))
	require.NoError(t, f.run(t))

	assert.Equal(t, "port,protocol,count\n443,tcp,2\n", f.output(t))
	assert.Empty(t, f.errors(t))
}

func TestLookupTableMatch(t *testing.T) {
	f := newFixture(t, flowLine("443", "6"))
	f.cfg.LookupPath = f.write(t, "lookup.csv", "dstport,protocol,tag\n443,tcp,sv_P1\n")
	require.NoError(t, f.run(t))

	assert.Equal(t, "tag,count\nsv_P1,1\nport,protocol,count\n443,tcp,1\n", f.output(t))
}

func TestShortLineSkipped(t *testing.T) {
	f := newFixture(t, flowLine("443", "6")+"2 123456789012 eni-1 10.0.0.1 10.0.0.2\n"+flowLine("53", "17"))
	require.NoError(t, f.run(t))

	assert.Equal(t, "port,protocol,count\n443,tcp,1\n53,udp,1\n", f.output(t))
	assert.Contains(t, f.errors(t), "not in correct format")
}

func TestProtocolOutOfRange(t *testing.T) {
	f := newFixture(t, flowLine("443", "6")+flowLine("443", "999"))
	f.cfg.LookupPath = f.write(t, "lookup.csv", "dstport,protocol,tag\n443,tcp,sv_P1\n")
	require.NoError(t, f.run(t))

	assert.Equal(t, "tag,count\nsv_P1,1\nport,protocol,count\n443,tcp,1\n", f.output(t))
	errs := f.errors(t)
	assert.Equal(t, 1, strings.Count(errs, "\n"), "only the counting path reports the line")
	assert.Contains(t, errs, "out of range")
}

func TestMissingProtocolReference(t *testing.T) {
	f := newFixture(t, flowLine("443", "6"))
	f.cfg.ProtocolsPath = filepath.Join(f.dir, "missing.csv")

	err := f.run(t)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingMandatoryFile))

	_, statErr := os.Stat(f.cfg.OutputPath)
	assert.True(t, os.IsNotExist(statErr), "no output is produced")
}

func TestMissingLookupTable(t *testing.T) {
	f := newFixture(t, flowLine("443", "6"))
	f.cfg.LookupPath = filepath.Join(f.dir, "missing-lookup.csv")
	require.NoError(t, f.run(t))

	assert.Equal(t, "port,protocol,count\n443,tcp,1\n", f.output(t))
	assert.Contains(t, f.errors(t), "missing lookup table")
}

func TestMissingFlowLog(t *testing.T) {
	f := newFixture(t, "")
	f.cfg.FlowLogPath = filepath.Join(f.dir, "missing.log")

	err := f.run(t)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingMandatoryFile))

	_, statErr := os.Stat(f.cfg.OutputPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestUnwritableOutput(t *testing.T) {
	f := newFixture(t, flowLine("443", "6"))
	blocker := f.write(t, "blocker", "")
	f.cfg.OutputPath = filepath.Join(blocker, "output.csv")

	err := f.run(t)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOutput))
}

func TestUnknownTagsAndProtocols(t *testing.T) {
	f := newFixture(t, flowLine("25", "6")+flowLine("8080", "47")+flowLine("25", "6"))
	f.cfg.LookupPath = f.write(t, "lookup.csv", "dstport,protocol,tag\n25,tcp,sv_P1\n25,tcp,sv_P2\n")
	require.NoError(t, f.run(t))

	assert.Equal(t, "tag,count\nsv_P1,2\nUntagged,1\nport,protocol,count\n25,tcp,2\n8080,47,1\n", f.output(t))
}

func TestJSONFormatAndMetrics(t *testing.T) {
	f := newFixture(t, flowLine("443", "6"))
	f.cfg.Format = "json"
	f.cfg.MetricsTextfile = filepath.Join(f.dir, "flowcount.prom")
	require.NoError(t, f.run(t))

	assert.JSONEq(t, `{"port_protocols":[{"port":443,"protocol":"tcp","count":1}]}`, f.output(t))

	data, err := os.ReadFile(f.cfg.MetricsTextfile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "flowcount_records_total 1")
	assert.Contains(t, string(data), `flowcount_reference_entries{table="protocols"} 2`)
}

func TestCancelled(t *testing.T) {
	f := newFixture(t, flowLine("443", "6"))
	a, err := New(f.cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = a.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))

	_, statErr := os.Stat(f.cfg.OutputPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestNewInvalidConfig(t *testing.T) {
	cfg := config.Default()
	_, err := New(cfg)
	assert.True(t, errors.Is(err, config.ErrMissingSetting))

	f := newFixture(t, "")
	f.cfg.LogLevel = "loud"
	_, err = New(f.cfg)
	assert.Error(t, err)
}
