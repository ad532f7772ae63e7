package mysql

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"
)

// fakeDriver is an in-process database/sql driver that understands exactly
// the statements Store issues. It checks the Go side of the adapter (argument
// order, scanning, ErrNoRows mapping) without a MySQL server.
type fakeDriver struct {
	mu     sync.Mutex
	tables map[string]*fakeTable
}

var testDriver = &fakeDriver{tables: make(map[string]*fakeTable)}

func init() {
	sql.Register("dona-fake", testDriver)
}

type fakeRow struct {
	id        string
	title     string
	createdAt time.Time
	starred   bool
	completed bool
}

type fakeTable struct {
	mu       sync.Mutex
	migrated bool
	rows     map[string]fakeRow
	execs    []string
}

// table returns the table behind a DSN, creating it on first use.
func (d *fakeDriver) table(name string) *fakeTable {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.tables[name]
	if !ok {
		t = &fakeTable{rows: make(map[string]fakeRow)}
		d.tables[name] = t
	}
	return t
}

func (d *fakeDriver) Open(name string) (driver.Conn, error) {
	return &fakeConn{table: d.table(name)}, nil
}

type fakeConn struct{ table *fakeTable }

func (c *fakeConn) Prepare(query string) (driver.Stmt, error) {
	return &fakeStmt{table: c.table, query: strings.Join(strings.Fields(query), " ")}, nil
}

func (c *fakeConn) Close() error              { return nil }
func (c *fakeConn) Begin() (driver.Tx, error) { return nil, errors.New("transactions not supported") }

type fakeStmt struct {
	table *fakeTable
	query string
}

func (s *fakeStmt) Close() error  { return nil }
func (s *fakeStmt) NumInput() int { return -1 }

func (s *fakeStmt) Exec(args []driver.Value) (driver.Result, error) {
	t := s.table
	t.mu.Lock()
	defer t.mu.Unlock()
	t.execs = append(t.execs, s.query)

	switch {
	case strings.HasPrefix(s.query, "CREATE TABLE IF NOT EXISTS tasks"):
		t.migrated = true
	case strings.HasPrefix(s.query, "INSERT INTO tasks"):
		row := fakeRow{
			id:        args[0].(string),
			title:     args[1].(string),
			createdAt: args[2].(time.Time),
			starred:   args[3].(bool),
			completed: args[4].(bool),
		}
		if existing, ok := t.rows[row.id]; ok && strings.Contains(s.query, "ON DUPLICATE KEY UPDATE") {
			// created_at is not in the update list.
			row.createdAt = existing.createdAt
		}
		t.rows[row.id] = row
	case strings.HasPrefix(s.query, "DELETE FROM tasks WHERE id = ?"):
		delete(t.rows, args[0].(string))
	default:
		return nil, fmt.Errorf("unexpected statement: %s", s.query)
	}
	return driver.RowsAffected(1), nil
}

func (s *fakeStmt) Query(args []driver.Value) (driver.Rows, error) {
	t := s.table
	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case strings.HasSuffix(s.query, "FROM tasks WHERE id = ?"):
		row, ok := t.rows[args[0].(string)]
		if !ok {
			return &fakeRows{}, nil
		}
		return &fakeRows{rows: []fakeRow{row}}, nil
	case strings.HasSuffix(s.query, "FROM tasks ORDER BY created_at DESC, id ASC"):
		rows := make([]fakeRow, 0, len(t.rows))
		for _, row := range t.rows {
			rows = append(rows, row)
		}
		slices.SortFunc(rows, func(a, b fakeRow) int {
			if c := b.createdAt.Compare(a.createdAt); c != 0 {
				return c
			}
			return strings.Compare(a.id, b.id)
		})
		return &fakeRows{rows: rows}, nil
	}
	return nil, fmt.Errorf("unexpected query: %s", s.query)
}

type fakeRows struct {
	rows []fakeRow
	pos  int
}

func (r *fakeRows) Columns() []string {
	return []string{"id", "title", "created_at", "is_starred", "is_completed"}
}

func (r *fakeRows) Close() error { return nil }

func (r *fakeRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.rows) {
		return io.EOF
	}
	row := r.rows[r.pos]
	r.pos++
	dest[0] = row.id
	dest[1] = row.title
	// The driver hands back DATETIME values in the session location.
	dest[2] = row.createdAt.In(time.FixedZone("CEST", 2*60*60))
	dest[3] = row.starred
	dest[4] = row.completed
	return nil
}
