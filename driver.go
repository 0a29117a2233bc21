package sqllog

import (
	"context"
	"database/sql/driver"
	"io"
)

// Driver wraps database driver. Every connection it opens is wrapped by Conn.
type Driver struct {
	driver driver.Driver
	logger StmtLogger
}

var (
	_ driver.Driver        = (*Driver)(nil)
	_ driver.DriverContext = (*Driver)(nil)
)

// NewDriver wraps d. Records of all connections go to l.
func NewDriver(d driver.Driver, l StmtLogger) *Driver {
	return &Driver{driver: d, logger: stmtLoggerOrNop(l)}
}

// Unwrap returns the wrapped driver.
func (d *Driver) Unwrap() driver.Driver {
	return d.driver
}

func (d *Driver) Open(name string) (driver.Conn, error) {
	c, err := d.driver.Open(name)
	if err != nil {
		return nil, err
	}
	return NewConn(c, d.logger), nil
}

func (d *Driver) OpenConnector(name string) (driver.Connector, error) {
	if dc, ok := d.driver.(driver.DriverContext); ok {
		c, err := dc.OpenConnector(name)
		if err != nil {
			return nil, err
		}
		return &Connector{connector: c, driver: d}, nil
	}
	return &Connector{connector: dsnConnector{dsn: name, driver: d.driver}, driver: d}, nil
}

// Connector wraps connector of the underlying driver.
type Connector struct {
	connector driver.Connector
	driver    *Driver
}

var (
	_ driver.Connector = (*Connector)(nil)
	_ io.Closer        = (*Connector)(nil)
)

// NewConnector wraps c. Records of all connections go to l.
func NewConnector(c driver.Connector, l StmtLogger) *Connector {
	return &Connector{connector: c, driver: NewDriver(c.Driver(), l)}
}

// Unwrap returns the wrapped connector.
func (c *Connector) Unwrap() driver.Connector {
	return c.connector
}

func (c *Connector) Connect(ctx context.Context) (driver.Conn, error) {
	conn, err := c.connector.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return NewConn(conn, c.driver.logger), nil
}

// Driver returns wrapping Driver.
func (c *Connector) Driver() driver.Driver {
	return c.driver
}

// Close closes the wrapped connector if it implements io.Closer.
// sql.DB calls it on Close.
func (c *Connector) Close() error {
	if cl, ok := c.connector.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}

// dsnConnector is a connector for drivers without DriverContext support.
type dsnConnector struct {
	dsn    string
	driver driver.Driver
}

func (t dsnConnector) Connect(_ context.Context) (driver.Conn, error) {
	return t.driver.Open(t.dsn)
}

func (t dsnConnector) Driver() driver.Driver {
	return t.driver
}
