package config

import (
	"flag"
	"fmt"
	"strings"

	"github.com/netsampler/flowcount/format"
	"github.com/netsampler/flowcount/transport"
)

// BindCommonFlags registers shared logging/format/transport flags.
func BindCommonFlags(fs *flag.FlagSet, logLevel, logFmt, formatName, transportName *string) {
	fs.StringVar(logLevel, "loglevel", *logLevel, "Log level")
	fs.StringVar(logFmt, "logfmt", *logFmt, "Log formatter (normal or json)")
	fs.StringVar(formatName, "format", *formatName, fmt.Sprintf("Choose the format (available: %s)", strings.Join(format.GetFormats(), ", ")))
	fs.StringVar(transportName, "transport", *transportName, fmt.Sprintf("Choose the transport (available: %s)", strings.Join(transport.GetTransports(), ", ")))
}
