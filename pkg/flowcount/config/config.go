package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	ErrMissingSetting = errors.New("missing mandatory setting")
	ErrUnknownOption  = errors.New("unknown transport option")
)

// transports writing to a local path given by the output setting
var pathTransports = map[string]bool{
	"file":   true,
	"sqlite": true,
}

// Config holds configuration for a flowcount run.
type Config struct {
	FlowLogPath   string `yaml:"flowlog_path"`
	ProtocolsPath string `yaml:"protocols_path"`
	LookupPath    string `yaml:"lookup_path"`
	OutputPath    string `yaml:"output_path"`
	ErrorsPath    string `yaml:"errors_path"`

	Format    string `yaml:"format"`
	Transport string `yaml:"transport"`

	LogLevel string `yaml:"log_level"`
	LogFmt   string `yaml:"log_format"`

	ErrCnt int           `yaml:"errors_mute_count"`
	ErrInt time.Duration `yaml:"errors_mute_interval"`

	MetricsTextfile string `yaml:"metrics_textfile"`
	MetricsPush     string `yaml:"metrics_push"`

	// TransportOptions sets driver flags from the file, keyed by driver then
	// option: kafka.brokers sets -transport.kafka.brokers.
	TransportOptions map[string]map[string]string `yaml:"transport_options"`

	ConfigFile string `yaml:"-"`
	Version    bool   `yaml:"-"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Format:    "csv",
		Transport: "file",
		LogLevel:  "info",
		LogFmt:    "normal",
		ErrCnt:    10,
		ErrInt:    time.Second * 10,
	}
}

// BindFlags registers configuration flags and returns a Config.
func BindFlags(fs *flag.FlagSet) *Config {
	cfg := Default()

	fs.StringVar(&cfg.ConfigFile, "config", "", "YAML configuration file, flags set on the command line take precedence")
	fs.StringVar(&cfg.FlowLogPath, "flowlog.path", "", "Flow log file to process")
	fs.StringVar(&cfg.ProtocolsPath, "protocol.number.path", "", "Protocol numbers reference CSV (Decimal,Keyword,...)")
	fs.StringVar(&cfg.LookupPath, "lookup.table.path", "", "Lookup table CSV (dstport,protocol,tag), optional")
	fs.StringVar(&cfg.OutputPath, "output.file.path", "", "Output file for the counts")
	fs.StringVar(&cfg.ErrorsPath, "error.file.path", "", "File receiving skipped lines and other recoverable errors")
	BindCommonFlags(fs, &cfg.LogLevel, &cfg.LogFmt, &cfg.Format, &cfg.Transport)
	fs.IntVar(&cfg.ErrCnt, "err.cnt", cfg.ErrCnt, "Maximum errors per batch for muting")
	fs.DurationVar(&cfg.ErrInt, "err.int", cfg.ErrInt, "Maximum errors interval for muting")
	fs.StringVar(&cfg.MetricsTextfile, "metrics.textfile", "", "Write run metrics to this file (node exporter textfile format)")
	fs.StringVar(&cfg.MetricsPush, "metrics.push", "", "Prometheus pushgateway URL receiving run metrics")
	fs.BoolVar(&cfg.Version, "v", false, "Print version")

	return cfg
}

// Load decodes YAML from r on top of cfg.
func Load(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}
	return nil
}

// LoadFile reads the YAML configuration at path on top of cfg.
func LoadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	defer f.Close()
	return Load(f, cfg)
}

// ApplyFile loads cfg.ConfigFile, if any, and its transport options, then
// re-applies the flags that were set explicitly on fs so that the command
// line wins over the file. fs must have been parsed.
func ApplyFile(fs *flag.FlagSet, cfg *Config) error {
	if cfg.ConfigFile == "" {
		return nil
	}
	explicit := make(map[string]string)
	fs.Visit(func(f *flag.Flag) {
		explicit[f.Name] = f.Value.String()
	})
	if err := LoadFile(cfg.ConfigFile, cfg); err != nil {
		return err
	}
	if err := applyTransportOptions(fs, cfg.TransportOptions); err != nil {
		return err
	}
	for name, value := range explicit {
		if err := fs.Set(name, value); err != nil {
			return err
		}
	}
	return nil
}

func applyTransportOptions(fs *flag.FlagSet, options map[string]map[string]string) error {
	drivers := make([]string, 0, len(options))
	for driver := range options {
		drivers = append(drivers, driver)
	}
	sort.Strings(drivers)

	for _, driver := range drivers {
		keys := make([]string, 0, len(options[driver]))
		for key := range options[driver] {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			name := "transport." + driver + "." + key
			if fs.Lookup(name) == nil {
				return fmt.Errorf("%w: %s", ErrUnknownOption, name)
			}
			if err := fs.Set(name, options[driver][key]); err != nil {
				return fmt.Errorf("transport option %s: %w", name, err)
			}
		}
	}
	return nil
}

// Validate checks that mandatory settings are present.
func (c *Config) Validate() error {
	missing := func(name string) error {
		return fmt.Errorf("%w: %s", ErrMissingSetting, name)
	}
	switch {
	case c.FlowLogPath == "":
		return missing("flow log path")
	case c.ProtocolsPath == "":
		return missing("protocol reference path")
	case c.ErrorsPath == "":
		return missing("error file path")
	case pathTransports[c.Transport] && c.OutputPath == "":
		return missing("output file path")
	}
	return nil
}
