// Package sqllog wraps database/sql drivers to log how long every executed
// SQL command took.
//
// A record is written after each successful execution:
//
//	[3 ms] queryContext [SELECT id, name FROM customer WHERE id=$1]
//
// Failed executions are not logged, the error of the underlying driver is
// returned as is. Everything else is passed to the underlying driver.
package sqllog

import (
	"bytes"
	"context"
	"database/sql"
	"database/sql/driver"
	"slices"
	"time"

	"github.com/axkit/errors"

	// pq registers "postgres" on import, NewPostgresDriver wraps its Driver.
	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// Open opens database using registered driver driverName with every
// connection wrapped by Conn and tries once to establish connection.
// If the attempt fails the database is closed and nil is returned.
func Open(driverName, dataSourceName string, l *zerolog.Logger) (*sql.DB, error) {
	db, err := open(driverName, dataSourceName, l)
	if err != nil {
		return nil, err
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func open(driverName, dataSourceName string, l *zerolog.Logger) (*sql.DB, error) {
	d, err := lookupDriver(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}

	w, ok := d.(*Driver)
	if !ok {
		w = NewDriver(d, NewZerologStmtLogger(l))
	}

	c, err := w.OpenConnector(dataSourceName)
	if err != nil {
		return nil, errors.Catch(err).
			Set("driver", driverName).
			Set("dsn", MaskPostgreSQLConnectionString(dataSourceName)).
			Severity(errors.Critical).
			Msg("sqllog: open connector failed")
	}

	return sql.OpenDB(c), nil
}

// lookupDriver returns driver registered in database/sql under name.
//
// database/sql gives access to a registered driver only through sql.DB,
// so a temporary one is opened. It does not connect, but a DriverContext
// driver gets OpenConnector called for it and the connector is closed
// together with the temporary sql.DB.
func lookupDriver(name, dataSourceName string) (driver.Driver, error) {
	if !slices.Contains(sql.Drivers(), name) {
		return nil, errors.Wrap(ErrUnknownDriver, errors.New("sqllog: unknown driver "+name).
			Set("driver", name).
			Severity(errors.Critical))
	}

	db, err := sql.Open(name, dataSourceName)
	if err != nil {
		return nil, errors.Catch(err).
			Set("driver", name).
			Set("dsn", MaskPostgreSQLConnectionString(dataSourceName)).
			Severity(errors.Critical).
			Msg("sqllog: driver lookup failed")
	}
	defer db.Close()

	return db.Driver(), nil
}

// OpenWithRetry tries to establish connection to database till ctx.Done() or
// success. It calls func aff() after every failed attempt, returned duration
// is a pause before the next attempt. If aff is nil the pause is 1 second.
func OpenWithRetry(ctx context.Context, driverName, dataSourceName string, l *zerolog.Logger, aff func(string, int, error) time.Duration) (*sql.DB, error) {

	var (
		a   = 0
		dur = time.Second
		dsn = MaskPostgreSQLConnectionString(dataSourceName)
	)

	for {
		db, err := open(driverName, dataSourceName, l)
		if err == nil {
			ctxt, cancel := context.WithTimeout(ctx, time.Second)
			err = db.PingContext(ctxt)
			cancel()
			if err == nil {
				return db, nil
			}
			db.Close()
		}

		a++
		if l != nil {
			l.Warn().Str("layer", "db").Str("dsn", dsn).Int("attempt", a).Err(err).Msg("database connection failed")
		}
		if aff != nil {
			dur = aff(dsn, a, err)
		}

		t := time.NewTimer(dur)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}

// Register makes wrapped driver d available by name in database/sql.
func Register(name string, d driver.Driver, l *zerolog.Logger) error {
	if d == nil {
		return errors.Wrap(ErrNilDriver, errors.New("sqllog: register failed").Set("driver", name))
	}

	if slices.Contains(sql.Drivers(), name) {
		return errors.New("sqllog: driver already registered").Set("driver", name)
	}

	sql.Register(name, NewDriver(d, NewZerologStmtLogger(l)))
	return nil
}

// NewPostgresDriver returns lib/pq driver wrapped by Driver.
func NewPostgresDriver(l *zerolog.Logger) *Driver {
	return NewDriver(&pq.Driver{}, NewZerologStmtLogger(l))
}

// MaskPostgreSQLConnectionString replaces password=12345 by password=*****.
func MaskPostgreSQLConnectionString(src string) string {

	res := []byte(src)

	from := bytes.Index(res, []byte("password"))
	if from < 0 {
		return src
	}

	from += bytes.IndexByte(res[from:], '=') + 1
	for from < len(res) && res[from] == ' ' {
		from++
	}

	to := bytes.IndexByte(res[from:], ' ')
	if to < 0 {
		to = len(res)
	} else {
		to += from
	}

	for i := from; i < to; i++ {
		res[i] = '*'
	}
	return string(res)
}
