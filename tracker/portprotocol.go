package tracker

import (
	"strconv"

	"github.com/netsampler/flowcount/lookup"
	"github.com/netsampler/flowcount/protocols"
)

// PortProtocolTracker counts records per port and protocol name.
type PortProtocolTracker struct {
	resolver *protocols.Resolver
	counts   *CountTable[lookup.Key]
}

func NewPortProtocolTracker(resolver *protocols.Resolver) *PortProtocolTracker {
	return &PortProtocolTracker{
		resolver: resolver,
		counts:   NewCountTable[lookup.Key](),
	}
}

// Record counts one occurrence of port and protocol. A protocol number
// outside [0-255] is returned as an error wrapping protocols.ErrOutOfRange
// and nothing is counted.
func (t *PortProtocolTracker) Record(port, protocol int) error {
	name, err := t.resolver.Resolve(protocol)
	if err != nil {
		return err
	}
	t.counts.Increment(lookup.Key{Port: port, Protocol: name})
	return nil
}

// Count returns the occurrences recorded for a port and protocol name.
func (t *PortProtocolTracker) Count(port int, protocol string) uint64 {
	return t.counts.Get(lookup.Key{Port: port, Protocol: protocol})
}

// PortProtocolCount is the count of one port and protocol name pair.
type PortProtocolCount struct {
	Port     int
	Protocol string
	Count    uint64
}

func (c PortProtocolCount) String() string {
	return strconv.Itoa(c.Port) + "," + c.Protocol + "," + strconv.FormatUint(c.Count, 10)
}

// Entries returns the count of every distinct pair in first-seen order.
func (t *PortProtocolTracker) Entries() []PortProtocolCount {
	entries := make([]PortProtocolCount, 0, t.counts.Len())
	t.counts.Each(func(key lookup.Key, count uint64) {
		entries = append(entries, PortProtocolCount{Port: key.Port, Protocol: key.Protocol, Count: count})
	})
	return entries
}

// Snapshot returns one "port,protocol,count" line per distinct pair.
func (t *PortProtocolTracker) Snapshot() []string {
	return lines(t.Entries())
}
