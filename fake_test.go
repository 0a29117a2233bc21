package sqllog

import (
	"context"
	"database/sql/driver"
	"io"
	"sync"
)

// recLogger keeps everything passed to StmtLogger.
type recLogger struct {
	mu       sync.Mutex
	created  []string
	executed []StmtInstance
}

func (rl *recLogger) Created(sql string) {
	rl.mu.Lock()
	rl.created = append(rl.created, sql)
	rl.mu.Unlock()
}

func (rl *recLogger) Executed(si *StmtInstance) {
	rl.mu.Lock()
	rl.executed = append(rl.executed, *si)
	rl.mu.Unlock()
}

func (rl *recLogger) records() []StmtInstance {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return append([]StmtInstance(nil), rl.executed...)
}

type fakeResult struct{ id, n int64 }

func (r fakeResult) LastInsertId() (int64, error) { return r.id, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.n, nil }

type fakeRows struct{ closed bool }

func (r *fakeRows) Columns() []string              { return []string{"x"} }
func (r *fakeRows) Close() error                   { r.closed = true; return nil }
func (r *fakeRows) Next(dest []driver.Value) error { return io.EOF }

type fakeTx struct{ committed, rolledBack int }

func (tx *fakeTx) Commit() error   { tx.committed++; return nil }
func (tx *fakeTx) Rollback() error { tx.rolledBack++; return nil }

// fakeStmt implements driver.Stmt only.
type fakeStmt struct {
	numInput int
	result   driver.Result
	rows     driver.Rows
	err      error
	closeErr error

	execCalls  int
	queryCalls int
	closeCalls int
	args       []driver.Value
}

func (s *fakeStmt) Close() error  { s.closeCalls++; return s.closeErr }
func (s *fakeStmt) NumInput() int { return s.numInput }

func (s *fakeStmt) Exec(args []driver.Value) (driver.Result, error) {
	s.execCalls++
	s.args = args
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *fakeStmt) Query(args []driver.Value) (driver.Rows, error) {
	s.queryCalls++
	s.args = args
	if s.err != nil {
		return nil, s.err
	}
	return s.rows, nil
}

// fakeCtxStmt adds context aware methods and NamedValueChecker.
type fakeCtxStmt struct {
	*fakeStmt
	named      []driver.NamedValue
	checkCalls int
	checkErr   error
}

func (s *fakeCtxStmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	s.execCalls++
	s.named = args
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *fakeCtxStmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	s.queryCalls++
	s.named = args
	if s.err != nil {
		return nil, s.err
	}
	return s.rows, nil
}

func (s *fakeCtxStmt) CheckNamedValue(nv *driver.NamedValue) error {
	s.checkCalls++
	return s.checkErr
}

// fakeCCStmt converts every argument with its column converter.
type fakeCCStmt struct {
	*fakeStmt
}

func (s *fakeCCStmt) ColumnConverter(idx int) driver.ValueConverter {
	return prefixConverter("col")
}

type prefixConverter string

func (p prefixConverter) ConvertValue(v interface{}) (driver.Value, error) {
	s, _ := v.(string)
	return string(p) + ":" + s, nil
}

// fakeConn implements driver.Conn only.
type fakeConn struct {
	stmt       driver.Stmt
	tx         *fakeTx
	err        error
	closeCalls int
	beginCalls int
	prepared   []string
}

func (c *fakeConn) Prepare(query string) (driver.Stmt, error) {
	c.prepared = append(c.prepared, query)
	if c.err != nil {
		return nil, c.err
	}
	return c.stmt, nil
}

func (c *fakeConn) Close() error { c.closeCalls++; return nil }

func (c *fakeConn) Begin() (driver.Tx, error) {
	c.beginCalls++
	if c.err != nil {
		return nil, c.err
	}
	return c.tx, nil
}

// fakeLegacyConn adds Execer and Queryer.
type fakeLegacyConn struct {
	*fakeConn
	result  driver.Result
	rows    driver.Rows
	queries []string
	args    []driver.Value
}

func (c *fakeLegacyConn) Exec(query string, args []driver.Value) (driver.Result, error) {
	c.queries = append(c.queries, query)
	c.args = args
	if c.err != nil {
		return nil, c.err
	}
	return c.result, nil
}

func (c *fakeLegacyConn) Query(query string, args []driver.Value) (driver.Rows, error) {
	c.queries = append(c.queries, query)
	c.args = args
	if c.err != nil {
		return nil, c.err
	}
	return c.rows, nil
}

// fakeCtxConn implements every optional connection interface.
type fakeCtxConn struct {
	*fakeConn
	result  driver.Result
	rows    driver.Rows
	queries []string
	named   []driver.NamedValue
	opts    driver.TxOptions
	valid   bool
	pingErr error

	pingCalls  int
	resetCalls int
	checkCalls int
}

func (c *fakeCtxConn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	return c.fakeConn.Prepare(query)
}

func (c *fakeCtxConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	c.opts = opts
	return c.fakeConn.Begin()
}

func (c *fakeCtxConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.queries = append(c.queries, query)
	c.named = args
	if c.err != nil {
		return nil, c.err
	}
	return c.result, nil
}

func (c *fakeCtxConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	c.queries = append(c.queries, query)
	c.named = args
	if c.err != nil {
		return nil, c.err
	}
	return c.rows, nil
}

func (c *fakeCtxConn) Ping(ctx context.Context) error { c.pingCalls++; return c.pingErr }

func (c *fakeCtxConn) ResetSession(ctx context.Context) error {
	c.resetCalls++
	return driver.ErrBadConn
}

func (c *fakeCtxConn) IsValid() bool { return c.valid }

func (c *fakeCtxConn) CheckNamedValue(nv *driver.NamedValue) error {
	c.checkCalls++
	nv.Value = "conn-checked"
	return nil
}

// fakeDriver opens conn on every call.
type fakeDriver struct {
	conn  driver.Conn
	err   error
	names []string
}

func (d *fakeDriver) Open(name string) (driver.Conn, error) {
	d.names = append(d.names, name)
	if d.err != nil {
		return nil, d.err
	}
	return d.conn, nil
}

type fakeConnector struct {
	conn       driver.Conn
	drv        driver.Driver
	closeCalls int
}

func (c *fakeConnector) Connect(context.Context) (driver.Conn, error) { return c.conn, nil }
func (c *fakeConnector) Driver() driver.Driver                        { return c.drv }
func (c *fakeConnector) Close() error                                 { c.closeCalls++; return nil }

// fakeCtxDriver implements DriverContext.
type fakeCtxDriver struct {
	*fakeDriver
	connector *fakeConnector
}

func (d *fakeCtxDriver) OpenConnector(name string) (driver.Connector, error) {
	d.names = append(d.names, name)
	return d.connector, nil
}

// fakeCCCtxStmt has both NamedValueChecker and ColumnConverter.
type fakeCCCtxStmt struct {
	*fakeCtxStmt
}

func (s *fakeCCCtxStmt) ColumnConverter(idx int) driver.ValueConverter {
	return prefixConverter("col")
}
