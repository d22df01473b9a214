// Package nats publishes reports on a NATS subject.
package nats

import (
	"crypto/tls"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/netsampler/flowcount/transport"
)

var errNotInitialized = errors.New("driver not initialized")

// Publisher is the part of *nats.Conn used by the driver.
type Publisher interface {
	Publish(subject string, data []byte) error
	FlushTimeout(timeout time.Duration) error
	Close()
}

// Driver implements the transport interface for core NATS.
type Driver struct {
	natsURL     string
	subject     string
	timeout     time.Duration
	tlsCertFile string
	tlsKeyFile  string
	tlsCAFile   string
	tlsInsecure bool

	connect func(url string, opts ...nats.Option) (Publisher, error)
	conn    Publisher
}

// Prepare sets up command-line flags for the NATS transport.
func (d *Driver) Prepare() error {
	flag.StringVar(&d.natsURL, "transport.nats.url", nats.DefaultURL, "NATS server URL")
	flag.StringVar(&d.subject, "transport.nats.subject", "flowcount.reports", "NATS subject for publishing reports")
	flag.DurationVar(&d.timeout, "transport.nats.timeout", time.Second*10, "Time to wait for the server to acknowledge the flush")
	flag.StringVar(&d.tlsCertFile, "transport.nats.tls.cert", "", "NATS client certificate file")
	flag.StringVar(&d.tlsKeyFile, "transport.nats.tls.key", "", "NATS client key file")
	flag.StringVar(&d.tlsCAFile, "transport.nats.tls.ca", "", "NATS CA certificate file")
	flag.BoolVar(&d.tlsInsecure, "transport.nats.tls.insecure", false, "Skip TLS verification for NATS")

	return nil
}

func (d *Driver) options() []nats.Option {
	opts := []nats.Option{
		nats.Name("flowcount"),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.WithError(err).Error("NATS error")
		}),
	}
	if d.tlsCertFile != "" && d.tlsKeyFile != "" {
		opts = append(opts, nats.ClientCert(d.tlsCertFile, d.tlsKeyFile))
	}
	if d.tlsCAFile != "" {
		opts = append(opts, nats.RootCAs(d.tlsCAFile))
	}
	if d.tlsInsecure {
		opts = append(opts, nats.Secure(&tls.Config{InsecureSkipVerify: true}))
	}
	return opts
}

// Init connects to the server. dest, when set, overrides the subject.
func (d *Driver) Init(dest string) error {
	if dest != "" {
		d.subject = dest
	}
	if (d.tlsCertFile == "") != (d.tlsKeyFile == "") {
		return &TransportError{Err: fmt.Errorf("client TLS requires both tls.cert and tls.key")}
	}

	connect := d.connect
	if connect == nil {
		connect = func(url string, opts ...nats.Option) (Publisher, error) {
			return nats.Connect(url, opts...)
		}
	}
	conn, err := connect(d.natsURL, d.options()...)
	if err != nil {
		return &TransportError{Err: fmt.Errorf("failed to connect to NATS: %w", err)}
	}
	d.conn = conn
	return nil
}

// Send publishes a report on the subject.
func (d *Driver) Send(_, data []byte) error {
	if d.conn == nil {
		return &TransportError{Err: errNotInitialized}
	}
	if err := d.conn.Publish(d.subject, data); err != nil {
		return &TransportError{Err: fmt.Errorf("failed to publish report: %w", err)}
	}
	return nil
}

// Close flushes pending reports and closes the connection.
func (d *Driver) Close() error {
	if d.conn == nil {
		return nil
	}
	defer func() {
		d.conn.Close()
		d.conn = nil
	}()
	if err := d.conn.FlushTimeout(d.timeout); err != nil {
		return &TransportError{Err: fmt.Errorf("failed to flush: %w", err)}
	}
	return nil
}

func init() {
	d := &Driver{}
	transport.RegisterTransportDriver("nats", d)
}
