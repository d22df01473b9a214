package builder

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netsampler/flowcount/format"
	_ "github.com/netsampler/flowcount/format/csv"
	"github.com/netsampler/flowcount/lookup"
	"github.com/netsampler/flowcount/protocols"
	"github.com/netsampler/flowcount/transport"
	_ "github.com/netsampler/flowcount/transport/file"
)

func TestBuildFormatter(t *testing.T) {
	_, err := BuildFormatter("csv")
	require.NoError(t, err)

	_, err = BuildFormatter("xml")
	assert.True(t, errors.Is(err, format.ErrFormat))
}

func TestBuildTransport(t *testing.T) {
	tr, err := BuildTransport("file", filepath.Join(t.TempDir(), "out.csv"))
	require.NoError(t, err)
	require.NoError(t, tr.Close())

	_, err = BuildTransport("carrier-pigeon", "")
	assert.True(t, errors.Is(err, transport.ErrTransport))
}

func TestBuildResolver(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "protocols.csv")
	require.NoError(t, os.WriteFile(path, []byte("Decimal,Keyword\n6,TCP\n"), 0o644))

	r, err := BuildResolver(path)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())

	_, err = BuildResolver(filepath.Join(dir, "missing.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, protocols.ErrOpen))
	assert.Contains(t, err.Error(), "protocol reference")
}

func TestBuildLookup(t *testing.T) {
	dir := t.TempDir()

	tbl, err := BuildLookup("", nil)
	require.NoError(t, err)
	assert.Nil(t, tbl)

	_, err = BuildLookup(filepath.Join(dir, "missing.csv"), nil)
	assert.True(t, errors.Is(err, lookup.ErrOpen))

	path := filepath.Join(dir, "lookup.csv")
	require.NoError(t, os.WriteFile(path, []byte("dstport,protocol,tag\n443,tcp,sv_P1\n"), 0o644))
	tbl, err = BuildLookup(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "sv_P1", tbl.TagFor(443, "tcp"))
}
