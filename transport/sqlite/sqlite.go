// Package sqlite keeps a history of reports in a SQLite database.
package sqlite

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"regexp"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/netsampler/flowcount/transport"
)

var validTable = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SqliteDriver inserts every report of a run in a single transaction,
// committed when the driver is closed.
type SqliteDriver struct {
	table string

	db  *sql.DB
	tx  *sql.Tx
	now func() time.Time
}

func (d *SqliteDriver) Prepare() error {
	flag.StringVar(&d.table, "transport.sqlite.table", "reports", "SQLite table receiving the reports")
	return nil
}

// Init opens the database at dest and creates the table if needed.
func (d *SqliteDriver) Init(dest string) (err error) {
	if dest == "" {
		return errors.New("database path is empty")
	}
	if !validTable.MatchString(d.table) {
		return fmt.Errorf("invalid table name %q", d.table)
	}
	if d.now == nil {
		d.now = time.Now
	}

	d.db, err = sql.Open("sqlite3", dest)
	if err != nil {
		return fmt.Errorf("cannot open db %s: %w", dest, err)
	}
	defer func() {
		if err != nil {
			d.db.Close()
			d.db = nil
		}
	}()
	if err = d.db.Ping(); err != nil {
		return fmt.Errorf("error pinging db %s: %w", dest, err)
	}
	_, err = d.db.Exec(fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
created_at INTEGER,
report_key BLOB,
payload TEXT);
`, d.table))
	if err != nil {
		return fmt.Errorf("create failed: %w", err)
	}
	d.tx, err = d.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction failed: %w", err)
	}
	return nil
}

func (d *SqliteDriver) Send(key, data []byte) error {
	if d.tx == nil {
		return errors.New("driver not initialized")
	}
	_, err := d.tx.Exec(
		fmt.Sprintf("insert into %s(created_at, report_key, payload) values(?, ?, ?)", d.table),
		d.now().Unix(), key, string(data))
	if err != nil {
		return fmt.Errorf("exec failed: %w", err)
	}
	return nil
}

// Close commits the reports and closes the database.
func (d *SqliteDriver) Close() error {
	if d.db == nil {
		return nil
	}
	var err error
	if d.tx != nil {
		err = d.tx.Commit()
		d.tx = nil
	}
	if cerr := d.db.Close(); err == nil {
		err = cerr
	}
	d.db = nil
	return err
}

func init() {
	d := &SqliteDriver{}
	transport.RegisterTransportDriver("sqlite", d)
}
