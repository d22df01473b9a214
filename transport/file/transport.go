// Package file implements a file/stdout transport.
package file

import (
	"bytes"
	"flag"
	"io"
	"os"
	"sync"

	"github.com/netsampler/flowcount/transport"
	"github.com/netsampler/flowcount/utils/atomic"
)

// FileDriver writes reports to stdout, or to a file replaced atomically when
// the driver is closed.
type FileDriver struct {
	lineSeparator string
	w             io.Writer
	buf           *bytes.Buffer
	file          atomic.Writer
	lock          *sync.Mutex
}

// Prepare registers flags for file transport configuration.
func (d *FileDriver) Prepare() error {
	flag.StringVar(&d.lineSeparator, "transport.file.sep", "", "Separator written after each report")
	return nil
}

// Init prepares the destination. An empty dest writes to stdout.
func (d *FileDriver) Init(dest string) error {
	d.lock.Lock()
	defer d.lock.Unlock()

	d.buf = nil
	d.file = nil
	if dest == "" {
		d.w = os.Stdout
		return nil
	}
	d.buf = &bytes.Buffer{}
	d.w = d.buf
	d.file = atomic.NewFileWriter(dest)
	return nil
}

// Send writes a formatted report followed by the separator, if any.
func (d *FileDriver) Send(key, data []byte) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if len(data) > 0 {
		if _, err := d.w.Write(data); err != nil {
			return err
		}
	}
	if d.lineSeparator == "" {
		return nil
	}
	_, err := d.w.Write([]byte(d.lineSeparator))
	return err
}

// Close writes the buffered reports to the destination file.
func (d *FileDriver) Close() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.file == nil {
		return nil
	}
	err := d.file.WriteAtomic(d.buf.Bytes())
	d.file = nil
	d.buf = nil
	return err
}

func init() {
	d := &FileDriver{
		lock: &sync.Mutex{},
	}
	transport.RegisterTransportDriver("file", d)
}
