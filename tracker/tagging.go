package tracker

import (
	"strconv"

	"github.com/netsampler/flowcount/lookup"
	"github.com/netsampler/flowcount/protocols"
)

// TaggingTracker counts records per tag.
type TaggingTracker struct {
	resolver *protocols.Resolver
	table    *lookup.Table
	counts   *CountTable[string]
}

func NewTaggingTracker(resolver *protocols.Resolver, table *lookup.Table) *TaggingTracker {
	return &TaggingTracker{
		resolver: resolver,
		table:    table,
		counts:   NewCountTable[string](),
	}
}

// Record counts one occurrence of the tag of port and protocol.
// Protocol numbers outside [0-255] cannot be tagged and are ignored without
// error.
func (t *TaggingTracker) Record(port, protocol int) error {
	if protocol < 0 || protocol > protocols.MaxProtocol {
		return nil
	}
	name, err := t.resolver.Resolve(protocol)
	if err != nil {
		return nil
	}
	t.counts.Increment(t.table.TagFor(port, name))
	return nil
}

// Count returns the occurrences recorded for tag.
func (t *TaggingTracker) Count(tag string) uint64 {
	return t.counts.Get(tag)
}

// TagCount is the count of one tag.
type TagCount struct {
	Tag   string
	Count uint64
}

func (c TagCount) String() string {
	return c.Tag + "," + strconv.FormatUint(c.Count, 10)
}

// Entries returns the count of every distinct tag in first-seen order.
func (t *TaggingTracker) Entries() []TagCount {
	entries := make([]TagCount, 0, t.counts.Len())
	t.counts.Each(func(tag string, count uint64) {
		entries = append(entries, TagCount{Tag: tag, Count: count})
	})
	return entries
}

// Snapshot returns one "tag,count" line per distinct tag.
func (t *TaggingTracker) Snapshot() []string {
	return lines(t.Entries())
}
