package builder

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/netsampler/flowcount/format"
	"github.com/netsampler/flowcount/lookup"
	"github.com/netsampler/flowcount/protocols"
	"github.com/netsampler/flowcount/transport"
	"github.com/netsampler/flowcount/utils/errwrap"
)

// BuildFormatter resolves a formatter by name.
func BuildFormatter(name string) (format.FormatInterface, error) {
	formatter, err := format.FindFormat(name)
	if err != nil {
		return nil, fmt.Errorf("build formatter %s: %w", name, err)
	}
	return formatter, nil
}

// BuildTransport resolves a transport by name and initializes it for dest.
func BuildTransport(name, dest string) (*transport.Transport, error) {
	t, err := transport.FindTransport(name, dest)
	if err != nil {
		return nil, fmt.Errorf("build transport %s: %w", name, err)
	}
	return t, nil
}

// BuildResolver loads the protocol reference at path.
func BuildResolver(path string) (*protocols.Resolver, error) {
	resolver, err := protocols.LoadFile(path)
	return resolver, errwrap.WrapWith(err, "protocol reference")
}

// BuildLookup loads the lookup table at path. An empty path returns a nil
// table and no error.
func BuildLookup(path string, logger log.FieldLogger) (*lookup.Table, error) {
	if path == "" {
		return nil, nil
	}
	table, err := lookup.LoadFile(path, logger)
	return table, errwrap.WrapWith(err, "lookup table")
}
