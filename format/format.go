// Package format renders the result set of a run into a report payload.
package format

import (
	"fmt"

	"github.com/netsampler/flowcount/orchestrator"
	"github.com/netsampler/flowcount/utils/registry"
)

var (
	formatDrivers = registry.New[FormatDriver]()

	ErrFormat = fmt.Errorf("format error")
)

// DriverFormatError wraps a driver error with its format name.
type DriverFormatError struct {
	Driver string
	Err    error
}

func (e *DriverFormatError) Error() string {
	return fmt.Sprintf("%s for %s format", e.Err.Error(), e.Driver)
}

func (e *DriverFormatError) Unwrap() []error {
	return []error{ErrFormat, e.Err}
}

type FormatDriver interface {
	Prepare() error // Prepare driver (eg: flag registration)
	Init() error    // Initialize driver
	// Render serializes the counts of a run, returns key and payload
	Render(rs orchestrator.ResultSet) ([]byte, []byte, error)
}

// FormatInterface is what the application needs to render a report.
type FormatInterface interface {
	Format(rs orchestrator.ResultSet) ([]byte, []byte, error)
}

// Format is a named driver returned by FindFormat.
type Format struct {
	driver FormatDriver
	name   string
}

func (f *Format) Name() string {
	return f.name
}

// Format renders rs, wrapping driver errors with the format name.
func (f *Format) Format(rs orchestrator.ResultSet) ([]byte, []byte, error) {
	key, payload, err := f.driver.Render(rs)
	if err != nil {
		return nil, nil, &DriverFormatError{f.name, err}
	}
	return key, payload, nil
}

func RegisterFormatDriver(name string, d FormatDriver) {
	formatDrivers.Register(name, d)
}

// FindFormat returns the initialized format registered under name.
func FindFormat(name string) (*Format, error) {
	d, ok := formatDrivers.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w %s not found", ErrFormat, name)
	}
	if err := d.Init(); err != nil {
		return nil, &DriverFormatError{name, err}
	}
	return &Format{driver: d, name: name}, nil
}

// GetFormats returns the sorted names of the registered formats.
func GetFormats() []string {
	return formatDrivers.Names()
}
