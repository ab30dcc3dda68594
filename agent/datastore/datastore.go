// Package datastore gives the query tools read access to the relational store
// holding extracted financial tables.
package datastore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Financial-Swarm-Analyst/agent/contract"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Driver string `envconfig:"DRIVER" split_words:"true" default:"sqlite"`
	DSN    string `envconfig:"DSN" split_words:"true" default:"./local_data/financial.db"`
	// Schema is only used by the postgres catalog.
	Schema string `envconfig:"SCHEMA" split_words:"true" default:"public"`
}

type Catalog interface {
	Tables(ctx context.Context) ([]string, error)
	// TableDDL returns the CREATE statement for name and false when the table does not exist.
	TableDDL(ctx context.Context, name string) (string, bool, error)
	Query(ctx context.Context, query string) (Result, error)
	Close() error
}

type Result struct {
	Columns []string
	Rows    [][]any
}

func Open(ctx context.Context, cfg Config) (Catalog, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverSQLite:
		return OpenSQLite(ctx, cfg.DSN)
	case DriverPostgres:
		return OpenPostgres(ctx, cfg.DSN, cfg.Schema)
	default:
		return nil, fmt.Errorf("%w: unsupported datastore driver %q", contractx.ErrConfig, cfg.Driver)
	}
}

func scanResult(rows *sql.Rows) (Result, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return Result{}, err
	}

	res := Result{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return Result{}, err
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		res.Rows = append(res.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return Result{}, err
	}
	return res, nil
}
