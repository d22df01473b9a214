// Package transport delivers rendered reports to their destination.
package transport

import (
	"errors"
	"fmt"

	"github.com/netsampler/flowcount/utils/registry"
)

var (
	transportDrivers = registry.New[TransportDriver]()

	// ErrTransport is the base error for transport failures.
	ErrTransport = fmt.Errorf("transport error")
)

// DriverTransportError wraps a driver-specific error with its transport name.
type DriverTransportError struct {
	Driver string
	Err    error
}

func (e *DriverTransportError) Error() string {
	return fmt.Sprintf("%s for %s transport", e.Err.Error(), e.Driver)
}

func (e *DriverTransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// TransportDriver is implemented by report outputs. A run initializes the
// driver once for its destination, sends the report and closes it.
type TransportDriver interface {
	Prepare() error              // Prepare driver (eg: flag registration)
	Init(dest string) error      // Initialize driver for a destination (eg: output path)
	Close() error                // Close driver, flushing anything buffered
	Send(key, data []byte) error // Send a rendered report
}

// Transport is an initialized driver returned by FindTransport.
type Transport struct {
	driver TransportDriver
	name   string
}

func (t *Transport) Name() string {
	return t.name
}

func (t *Transport) wrap(err error) error {
	if err == nil {
		return nil
	}
	return &DriverTransportError{t.name, err}
}

func (t *Transport) Send(key, data []byte) error {
	return t.wrap(t.driver.Send(key, data))
}

func (t *Transport) Close() error {
	return t.wrap(t.driver.Close())
}

// Deliver sends one report and closes the transport. The transport is
// closed even when sending fails, both errors are returned.
func (t *Transport) Deliver(key, data []byte) error {
	sendErr := t.Send(key, data)
	closeErr := t.Close()
	return errors.Join(sendErr, closeErr)
}

func RegisterTransportDriver(name string, d TransportDriver) {
	transportDrivers.Register(name, d)
}

// FindTransport returns the transport registered under name, initialized
// for dest.
func FindTransport(name, dest string) (*Transport, error) {
	d, ok := transportDrivers.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w %s not found", ErrTransport, name)
	}
	if err := d.Init(dest); err != nil {
		return nil, &DriverTransportError{name, err}
	}
	return &Transport{driver: d, name: name}, nil
}

// GetTransports returns the sorted names of the registered transports.
func GetTransports() []string {
	return transportDrivers.Names()
}
