// Command sqllog executes SQL commands with every command timed and logged.
//
//	sqllog -driver sqlite -dsn ./test.db "CREATE TABLE t(id int)" "SELECT * FROM t"
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/axkit/sqllog"
	"github.com/rs/zerolog"

	_ "modernc.org/sqlite"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("sqllog", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		cfgPath = fs.String("config", sqllog.ConfigPath(), "config file path")
		drv     = fs.String("driver", "", "database/sql driver name (postgres, sqlite)")
		dsn     = fs.String("dsn", "", "data source name")
		timeout = fs.Duration("timeout", 0, "give up connecting after timeout, 0 tries once")
	)

	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := sqllog.LoadConfig(*cfgPath)
	if err != nil {
		fmt.Fprintf(stderr, "sqllog: %v\n", err)
		return 1
	}

	if *drv != "" {
		cfg.DB.Driver = *drv
	}
	if *dsn != "" {
		cfg.DB.DSN = *dsn
	}

	l, err := cfg.Log.NewLogger(stderr)
	if err != nil {
		fmt.Fprintf(stderr, "sqllog: %v\n", err)
		return 1
	}

	db, err := openDB(cfg, &l, *timeout)
	if err != nil {
		l.Error().Err(err).Str("driver", cfg.DB.Driver).Str("dsn", sqllog.MaskPostgreSQLConnectionString(cfg.DB.DSN)).Msg("open database failed")
		return 1
	}
	defer db.Close()

	for _, qry := range fs.Args() {
		if err := execute(context.Background(), db, qry, stdout); err != nil {
			l.Error().Err(sqllog.WrapError(qry, err)).Str("sql", qry).Msg("sql command failed")
			return 1
		}
	}
	return 0
}

func openDB(cfg *sqllog.Config, l *zerolog.Logger, timeout time.Duration) (*sql.DB, error) {
	if timeout <= 0 {
		return sqllog.Open(cfg.DB.Driver, cfg.DB.DSN, l)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	delay := time.Duration(cfg.DB.RetryDelay)
	return sqllog.OpenWithRetry(ctx, cfg.DB.Driver, cfg.DB.DSN, l, func(string, int, error) time.Duration {
		return delay
	})
}

// execute runs qry and prints returned rows, if any, tab separated.
func execute(ctx context.Context, db *sql.DB, qry string, w io.Writer) error {
	rows, err := db.QueryContext(ctx, qry)
	if err != nil {
		return err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return err
	}

	if len(cols) == 0 {
		return rows.Err()
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(cols, "\t"))

	vals := make([]sql.NullString, len(cols))
	dest := make([]interface{}, len(cols))
	for i := range vals {
		dest[i] = &vals[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return err
		}
		s, sep := "", ""
		for i := range vals {
			v := "NULL"
			if vals[i].Valid {
				v = vals[i].String
			}
			s += sep + v
			sep = "\t"
		}
		fmt.Fprintln(tw, s)
	}

	if err := rows.Err(); err != nil {
		return err
	}
	return tw.Flush()
}
