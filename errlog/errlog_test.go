package errlog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fieldsError struct{}

func (fieldsError) Error() string { return "bad line" }

func (fieldsError) Fields() log.Fields {
	return log.Fields{"line_number": 7}
}

func TestFileSinkCreatesFileLazily(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.log")
	sink := Open(path, Options{})

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	require.NoError(t, sink.Close())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFileSinkReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.log")
	sink := Open(path, Options{})

	sink.Report(nil)
	sink.Report(errors.New("first failure"))
	sink.Report(fieldsError{})
	require.NoError(t, sink.Close())

	assert.Equal(t, int64(2), sink.Count())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "first failure")
	assert.Contains(t, string(data), "bad line")
	assert.Contains(t, string(data), "line_number=7")
}

func TestFileSinkAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.log")
	require.NoError(t, os.WriteFile(path, []byte("previous run\n"), 0o644))

	sink := Open(path, Options{})
	sink.Report(errors.New("new run"))
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "previous run")
	assert.Contains(t, string(data), "new run")
}

func TestFileSinkEchoMuting(t *testing.T) {
	echo, hook := test.NewNullLogger()
	sink := Open(filepath.Join(t.TempDir(), "errors.log"), Options{
		Echo:         echo,
		MuteCount:    2,
		MuteInterval: time.Hour,
	})
	defer sink.Close()

	for i := 0; i < 5; i++ {
		sink.Report(errors.New("failure"))
	}
	assert.Equal(t, int64(5), sink.Count())

	// two echoed reports, then a single muting warning
	entries := hook.AllEntries()
	require.Len(t, entries, 3)
	assert.Equal(t, "recoverable error", entries[0].Message)
	assert.Equal(t, "recoverable error", entries[1].Message)
	assert.Equal(t, "too many errors, muting", entries[2].Message)
}

func TestDiscard(t *testing.T) {
	Discard.Report(errors.New("ignored"))
}
