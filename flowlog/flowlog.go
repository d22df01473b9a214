// Package flowlog reads flow log files line by line and feeds the port and
// protocol of each record to an orchestrator.
package flowlog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"

	"github.com/netsampler/flowcount/errlog"
	"github.com/netsampler/flowcount/metrics"
	"github.com/netsampler/flowcount/protocols"
)

const (
	PortField     = 6
	ProtocolField = 7
	MinFields     = ProtocolField + 1

	// DefaultMaxLineLength bounds the lines Run parses. Longer lines are
	// reported with ErrLineTooLong.
	DefaultMaxLineLength = 64 * 1024

	previewLength = 256
)

var (
	ErrShortLine   = fmt.Errorf("flow log is not in correct format")
	ErrLineTooLong = fmt.Errorf("line is too long")
	ErrNotInteger  = fmt.Errorf("port or protocol are not integer")
	ErrOpen        = fmt.Errorf("cannot read flow log")
)

// LineError describes a line that was skipped.
type LineError struct {
	Number int
	Line   string
	Err    error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("skipping line %d because %s || %s ||", e.Number, e.Err.Error(), e.Line)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// Fields is used by the error sink to annotate the entry.
func (e *LineError) Fields() log.Fields {
	return log.Fields{
		"line_number": e.Number,
		"reason":      Reason(e.Err),
	}
}

// Reason classifies a line error for reporting.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrShortLine):
		return "format"
	case errors.Is(err, ErrLineTooLong):
		return "too_long"
	case errors.Is(err, ErrNotInteger):
		return "integer"
	case errors.Is(err, protocols.ErrOutOfRange):
		return "protocol_range"
	default:
		return "other"
	}
}

// RecordProcessor is satisfied by *orchestrator.Orchestrator.
type RecordProcessor interface {
	ProcessRecord(port, protocol int) error
}

// Stats summarizes a run.
type Stats struct {
	Lines   int // non blank lines
	Records int // lines counted
	Skipped int // lines reported to the sink
	Bytes   uint64
}

type Processor struct {
	Records RecordProcessor
	Sink    errlog.Sink
	Logger  log.FieldLogger
	Metrics *metrics.Run

	MaxLineLength int // DefaultMaxLineLength when zero
}

// ParseLine extracts the port and protocol number of a flow log line.
func ParseLine(line string) (port, protocol int, err error) {
	fields := strings.Fields(line)
	if len(fields) < MinFields {
		return 0, 0, ErrShortLine
	}
	if port, err = strconv.Atoi(fields[PortField]); err != nil {
		return 0, 0, fmt.Errorf("%w: port %q", ErrNotInteger, fields[PortField])
	}
	if protocol, err = strconv.Atoi(fields[ProtocolField]); err != nil {
		return 0, 0, fmt.Errorf("%w: protocol %q", ErrNotInteger, fields[ProtocolField])
	}
	return port, protocol, nil
}

// Run processes every line of r. Malformed lines are reported to the sink
// and skipped. It returns early if ctx is cancelled or the reader fails.
func (p *Processor) Run(ctx context.Context, r io.Reader) (Stats, error) {
	var stats Stats
	sink := p.Sink
	if sink == nil {
		sink = errlog.Discard
	}
	logger := p.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}

	maxLen := p.MaxLineLength
	if maxLen <= 0 {
		maxLen = DefaultMaxLineLength
	}
	lr := &lineReader{r: bufio.NewReader(r), max: maxLen}

	var lineNum int
	for {
		line, size, tooLong, err := lr.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("reading line %d: %w", lineNum+1, err)
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		lineNum++
		stats.Bytes += uint64(size)
		if !tooLong && strings.TrimSpace(line) == "" {
			continue
		}
		stats.Lines++
		p.Metrics.Line()

		var port, protocol int
		switch {
		case tooLong:
			err = fmt.Errorf("%w: %d bytes", ErrLineTooLong, size)
		default:
			port, protocol, err = ParseLine(line)
			if err == nil {
				err = p.Records.ProcessRecord(port, protocol)
			}
		}
		if err != nil {
			stats.Skipped++
			p.Metrics.Skipped(Reason(err))
			sink.Report(&LineError{Number: lineNum, Line: line, Err: err})
			continue
		}
		stats.Records++
		p.Metrics.Record()
	}
	logger.WithFields(log.Fields{
		"lines":   stats.Lines,
		"records": stats.Records,
		"skipped": stats.Skipped,
		"read":    humanize.Bytes(stats.Bytes),
	}).Info("flow log parsing complete")
	return stats, nil
}

// lineReader splits a reader into lines of any length. Lines longer than
// max are consumed entirely but only their first bytes are kept.
type lineReader struct {
	r   *bufio.Reader
	max int
}

// next returns the next line without its terminator, the number of bytes
// consumed, and whether the line was longer than max.
func (lr *lineReader) next() (line string, size int, tooLong bool, err error) {
	var buf []byte
	for {
		chunk, isPrefix, rerr := lr.r.ReadLine()
		if rerr != nil {
			if rerr == io.EOF && size > 0 {
				return string(buf), size, tooLong, nil
			}
			return "", size, tooLong, rerr
		}
		size += len(chunk)
		if !tooLong {
			buf = append(buf, chunk...)
			if len(buf) > lr.max {
				tooLong = true
				if len(buf) > previewLength {
					buf = buf[:previewLength]
				}
			}
		}
		if !isPrefix {
			return string(buf), size + 1, tooLong, nil
		}
	}
}

// RunFile opens path and processes it with Run.
func (p *Processor) RunFile(ctx context.Context, path string) (Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return Stats{}, fmt.Errorf("%w %s: %w", ErrOpen, path, err)
	}
	defer f.Close()
	return p.Run(ctx, f)
}
