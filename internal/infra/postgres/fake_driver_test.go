package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type drvMode struct {
	schemaErr bool
	queryErr  bool
	insertErr bool
}

var testDriverCounter atomic.Int64

// fakeDriver answers the handful of statements issued by this package. Rows
// inserted into stored_files are kept so they can be selected back.
type fakeDriver struct {
	mode drvMode

	mu    sync.Mutex
	files map[string][]driver.Value
	execs []string
}

type fakeConn struct{ d *fakeDriver }

type fakeRows struct {
	cols []string
	data [][]driver.Value
	i    int
}

func (d *fakeDriver) Open(name string) (driver.Conn, error) { return fakeConn{d: d}, nil }

func (c fakeConn) Prepare(query string) (driver.Stmt, error) {
	return nil, errors.New("not implemented")
}
func (c fakeConn) Close() error              { return nil }
func (c fakeConn) Begin() (driver.Tx, error) { return nil, errors.New("not implemented") }

func (c fakeConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	d := c.d
	d.mu.Lock()
	defer d.mu.Unlock()
	d.execs = append(d.execs, query)

	switch {
	case strings.Contains(query, "CREATE"):
		if d.mode.schemaErr {
			return nil, errors.New("schema failed")
		}
	case strings.Contains(query, "INSERT INTO stored_files"):
		if d.mode.insertErr {
			return nil, errors.New("insert failed")
		}
		row := make([]driver.Value, len(args))
		for i, a := range args {
			row[i] = a.Value
		}
		d.files[row[0].(string)] = row
	case strings.Contains(query, "DELETE FROM stored_files"):
		delete(d.files, args[0].Value.(string))
	}
	return driver.RowsAffected(1), nil
}

func (c fakeConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	d := c.d
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.mode.queryErr {
		return nil, errors.New("query failed")
	}
	if strings.Contains(query, "FROM stored_files") {
		rows := &fakeRows{cols: []string{"id", "repository", "filename", "extension", "mime_type", "size", "storage_key", "created_at"}}
		if row, ok := d.files[args[0].Value.(string)]; ok {
			rows.data = append(rows.data, row)
		}
		return rows, nil
	}
	return &fakeRows{
		cols: []string{"token", "rate_limit", "comment"},
		data: [][]driver.Value{{"tok1", int64(5), "ci"}, {"tok2", int64(2), ""}},
	}, nil
}

func (r *fakeRows) Columns() []string { return r.cols }
func (r *fakeRows) Close() error      { return nil }
func (r *fakeRows) Next(dest []driver.Value) error {
	if r.i >= len(r.data) {
		return io.EOF
	}
	copy(dest, r.data[r.i])
	r.i++
	return nil
}

func openTestDB(t *testing.T, mode drvMode) (*DB, *fakeDriver) {
	t.Helper()
	drv := &fakeDriver{mode: mode, files: make(map[string][]driver.Value)}
	name := fmt.Sprintf("fakedrv_%d", testDriverCounter.Add(1))
	sql.Register(name, drv)

	db, err := sql.Open(name, "")
	if err != nil {
		t.Fatalf("sql open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &DB{driver: name, db: db, dsn: "x"}, drv
}

var fixedTime = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
