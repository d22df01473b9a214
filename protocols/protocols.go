// Package protocols resolves IANA protocol numbers to their lowercase names.
package protocols

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/netsampler/flowcount/utils/errwrap"
)

// MaxProtocol is the highest protocol number carried in an IPv4/IPv6 header.
const MaxProtocol = 255

var (
	ErrOutOfRange = fmt.Errorf("protocol number out of range [0-%d]", MaxProtocol)
	ErrOpen       = fmt.Errorf("cannot read protocol reference")
)

// RangeError is returned when a protocol number does not fit in a single byte.
type RangeError struct {
	Number int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: %d", ErrOutOfRange.Error(), e.Number)
}

func (e *RangeError) Unwrap() error {
	return ErrOutOfRange
}

// Resolver maps protocol numbers to names. It is immutable once loaded and
// safe to share between trackers.
type Resolver struct {
	names [MaxProtocol + 1]string
	count int
}

// NewResolver builds a Resolver from a number to name mapping.
// Numbers outside [0-255] are ignored.
func NewResolver(names map[int]string) *Resolver {
	r := &Resolver{}
	for num, name := range names {
		r.set(num, name)
	}
	return r
}

func (r *Resolver) set(num int, name string) bool {
	if num < 0 || num > MaxProtocol {
		return false
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return false
	}
	if r.names[num] == "" {
		r.count++
	}
	r.names[num] = name
	return true
}

// Resolve returns the lowercase name registered for number, or its decimal
// representation when no name is registered.
func (r *Resolver) Resolve(number int) (string, error) {
	if number < 0 || number > MaxProtocol {
		return "", &RangeError{Number: number}
	}
	if name := r.names[number]; name != "" {
		return name, nil
	}
	return strconv.Itoa(number), nil
}

// Len returns the number of protocol numbers with a registered name.
func (r *Resolver) Len() int {
	return r.count
}

// Load reads a protocol reference in CSV form (Decimal,Keyword,...).
// The first line is a header. Rows without a leading decimal number, such as
// the unassigned "146-252" range, are skipped.
func Load(rdr io.Reader) (*Resolver, error) {
	r := &Resolver{}
	scanner := bufio.NewScanner(rdr)
	header := true
	for scanner.Scan() {
		if header {
			header = false
			continue
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) < 2 {
			continue
		}
		num, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil {
			continue
		}
		r.set(num, fields[1])
	}
	if err := scanner.Err(); err != nil {
		return nil, errwrap.Wrap(err)
	}
	return r, nil
}

// LoadFile opens path and loads it with Load.
func LoadFile(path string) (*Resolver, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrOpen, path, err)
	}
	defer f.Close()
	return Load(f)
}
