// Package sqlstore lists rows of a SQL table through compiled filter
// predicates, translated to a parameterized WHERE clause.
package sqlstore

import (
	"context"
	"errors"
	"fmt"

	u "github.com/araddon/gou"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/lytics/qlpredicate/expr"
	"github.com/lytics/qlpredicate/filterqlvm"
	"github.com/lytics/qlpredicate/generators/gentypes"
	"github.com/lytics/qlpredicate/generators/sqlgen"
	"github.com/lytics/qlpredicate/predicate"
	"github.com/lytics/qlpredicate/schema"
)

const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"

	// IDColumn orders every select.
	IDColumn = "id"
)

var ErrNoDSN = errors.New("sqlstore: no dsn")

// Config of the database connection. For mysql, MySQL is formatted into
// the DSN when DSN is empty.
type Config struct {
	Driver string
	DSN    string
	MySQL  *mysql.Config
}

func (c *Config) dsn() (string, error) {
	if c.DSN != "" {
		return c.DSN, nil
	}
	if c.Driver == DriverMySQL && c.MySQL != nil {
		return c.MySQL.FormatDSN(), nil
	}
	return "", ErrNoDSN
}

func (c *Config) dialect() (sqlgen.Dialect, error) {
	switch c.Driver {
	case DriverSQLite, "":
		return sqlgen.SQLite, nil
	case DriverMySQL:
		return sqlgen.MySQL, nil
	}
	return 0, fmt.Errorf("sqlstore: unsupported driver %q", c.Driver)
}

// Store runs filtered selects against a database.
type Store struct {
	db      *sqlx.DB
	dialect sqlgen.Dialect
	vm      *filterqlvm.FilterVM
}

// Open the database described by cfg. Connecting is deferred to first use.
func Open(cfg Config, opts ...filterqlvm.Option) (*Store, error) {
	d, err := cfg.dialect()
	if err != nil {
		return nil, err
	}
	dsn, err := cfg.dsn()
	if err != nil {
		return nil, err
	}
	driver := cfg.Driver
	if driver == "" {
		driver = DriverSQLite
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, dialect: d, vm: filterqlvm.NewFilterVM(opts...)}, nil
}

// DB is the underlying connection pool.
func (m *Store) DB() *sqlx.DB { return m.db }

func (m *Store) Close() error { return m.db.Close() }

// Select returns the rows of table accepted by p, ordered by id. Predicate
// fields are read from their own columns.
func (m *Store) Select(ctx context.Context, table string, p predicate.Predicate) ([]map[string]any, error) {
	return m.selectWith(ctx, table, p, nil)
}

// Where compiles node against s and selects from the table named after the
// schema, reading each field from its declared column. A nil node lists
// every row.
func (m *Store) Where(ctx context.Context, s *schema.Schema, node expr.Node) ([]map[string]any, error) {
	p, err := m.vm.Compile(node, s)
	if err != nil {
		return nil, err
	}
	return m.selectWith(ctx, s.Name, p, gentypes.SchemaMapper(s))
}

func (m *Store) selectWith(ctx context.Context, table string, p predicate.Predicate, mapper gentypes.SchemaColumns) ([]map[string]any, error) {
	payload, err := sqlgen.NewGenerator(mapper, m.dialect).Generate(p)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf("SELECT * FROM %s WHERE %s ORDER BY %s",
		m.dialect.QuoteIdent(table), payload.Filter, m.dialect.QuoteIdent(IDColumn))
	q = m.db.Rebind(q)
	u.Debugf("sqlstore: %s %v", q, payload.Args)

	rows, err := m.db.QueryxContext(ctx, q, payload.Args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: select %s: %w", table, err)
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			return nil, err
		}
		for k, v := range row {
			// mysql returns text as raw bytes
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
