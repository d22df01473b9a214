// Package errlog records recoverable errors of a run in a dedicated file.
package errlog

import (
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/netsampler/flowcount/utils"
)

// Sink receives errors that do not stop a run.
type Sink interface {
	Report(err error)
}

// Discard drops every report.
var Discard Sink = discard{}

type discard struct{}

func (discard) Report(error) {}

// Options tune a FileSink.
type Options struct {
	// Echo also logs reports to this logger, throttled by MuteCount and
	// MuteInterval. The file always receives every report.
	Echo         log.FieldLogger
	MuteCount    int
	MuteInterval time.Duration
}

// FileSink writes reports to a file created on the first report.
type FileSink struct {
	logger *log.Logger
	file   *lazyFile
	echo   log.FieldLogger
	mute   *utils.BatchMute
	count  atomic.Int64
}

// Open prepares a sink for path. Nothing is created until a report is made.
func Open(path string, opts Options) *FileSink {
	file := &lazyFile{path: path}
	return newSink(file, file, opts)
}

func newSink(w io.Writer, file *lazyFile, opts Options) *FileSink {
	logger := log.New()
	logger.SetOutput(w)
	logger.SetFormatter(&log.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
	})
	s := &FileSink{
		logger: logger,
		file:   file,
		echo:   opts.Echo,
	}
	if opts.Echo != nil {
		s.mute = utils.NewBatchMute(opts.MuteInterval, opts.MuteCount)
	}
	return s
}

// Report appends err to the file.
func (s *FileSink) Report(err error) {
	if err == nil {
		return
	}
	s.count.Add(1)

	entry := s.logger.WithError(err)
	if f, ok := err.(interface{ Fields() log.Fields }); ok {
		entry = entry.WithFields(f.Fields())
	}
	entry.Error("skipped")

	if s.echo == nil {
		return
	}
	state, skipped := s.mute.Record()
	switch state {
	case utils.Muting:
		s.echo.Warn("too many errors, muting")
	case utils.Resuming:
		s.echo.WithField("count", skipped).Warn("skipped errors")
		s.echo.WithError(err).Warn("recoverable error")
	case utils.Pass:
		s.echo.WithError(err).Warn("recoverable error")
	}
}

// Count returns the number of reports made so far.
func (s *FileSink) Count() int64 {
	return s.count.Load()
}

// Close closes the underlying file if it was created.
func (s *FileSink) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}

// lazyFile opens its path in append mode on the first write.
type lazyFile struct {
	path string
	lock sync.Mutex
	file *os.File
}

func (f *lazyFile) Write(p []byte) (int, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.file == nil {
		file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return 0, err
		}
		f.file = file
	}
	return f.file.Write(p)
}

func (f *lazyFile) Close() error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}
