// Package lookup classifies (port, protocol) pairs with tags read from a
// reference table.
package lookup

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/netsampler/flowcount/utils/errwrap"
)

// Untagged is returned for pairs that have no entry in the table.
const Untagged = "Untagged"

var ErrOpen = fmt.Errorf("cannot read lookup table")

// Key identifies a destination port and a protocol name.
type Key struct {
	Port     int
	Protocol string
}

// Table maps (port, protocol) pairs to tags. It is read-only after loading.
type Table struct {
	tags map[Key]string
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{
		tags: make(map[Key]string),
	}
}

// Add registers a tag for a port and protocol. The protocol is lowercased.
// An existing entry is kept: the first tag registered for a key wins.
// Add reports whether the tag was stored.
func (t *Table) Add(port int, protocol, tag string) bool {
	key := Key{Port: port, Protocol: strings.ToLower(strings.TrimSpace(protocol))}
	if _, ok := t.tags[key]; ok {
		return false
	}
	t.tags[key] = tag
	return true
}

// TagFor returns the tag registered for port and protocol, or Untagged.
func (t *Table) TagFor(port int, protocol string) string {
	if tag, ok := t.tags[Key{Port: port, Protocol: protocol}]; ok {
		return tag
	}
	return Untagged
}

// Len returns the number of distinct keys in the table.
func (t *Table) Len() int {
	return len(t.tags)
}

// Load reads a lookup table in CSV form (dstport,protocol,tag) with a header
// line. Rows with a non integer port, an empty tag or missing columns are
// skipped.
func Load(rdr io.Reader, logger log.FieldLogger) (*Table, error) {
	if logger == nil {
		logger = log.StandardLogger()
	}
	t := NewTable()
	scanner := bufio.NewScanner(rdr)
	var lineNum int
	for scanner.Scan() {
		lineNum++
		if lineNum == 1 {
			continue
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) < 3 {
			logger.WithField("line", lineNum).Debugf("skipping lookup entry with missing columns: %s", line)
			continue
		}
		port, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil {
			logger.WithField("line", lineNum).Debugf("skipping lookup entry for illegal format: %s", line)
			continue
		}
		tag := strings.TrimSpace(fields[2])
		if tag == "" {
			logger.WithField("line", lineNum).Debugf("skipping lookup entry without tag: %s", line)
			continue
		}
		if !t.Add(port, fields[1], tag) {
			logger.WithField("line", lineNum).Debugf("duplicate lookup entry ignored: %s", line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errwrap.Wrap(err)
	}
	return t, nil
}

// LoadFile opens path and loads it with Load.
func LoadFile(path string, logger log.FieldLogger) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrOpen, path, err)
	}
	defer f.Close()
	return Load(f, logger)
}
