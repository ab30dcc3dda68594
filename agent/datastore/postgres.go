package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type Postgres struct {
	db     *bun.DB
	schema string
}

type pgColumn struct {
	Name       string `bun:"column_name"`
	DataType   string `bun:"data_type"`
	IsNullable string `bun:"is_nullable"`
}

func OpenPostgres(ctx context.Context, dsn, schema string) (*Postgres, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres: dsn is required")
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return NewPostgres(db, schema), nil
}

func NewPostgres(db *bun.DB, schema string) *Postgres {
	schema = strings.TrimSpace(schema)
	if schema == "" {
		schema = "public"
	}
	return &Postgres{db: db, schema: schema}
}

func (p *Postgres) Tables(ctx context.Context) ([]string, error) {
	var names []string
	err := p.db.NewRaw(
		"SELECT table_name FROM information_schema.tables WHERE table_schema = ? AND table_type = 'BASE TABLE' ORDER BY table_name",
		p.schema,
	).Scan(ctx, &names)
	if err != nil {
		return nil, fmt.Errorf("postgres: list tables: %w", err)
	}
	return names, nil
}

// TableDDL synthesises a CREATE TABLE statement from information_schema.
func (p *Postgres) TableDDL(ctx context.Context, name string) (string, bool, error) {
	var cols []pgColumn
	err := p.db.NewRaw(
		"SELECT column_name, data_type, is_nullable FROM information_schema.columns WHERE table_schema = ? AND table_name = ? ORDER BY ordinal_position",
		p.schema, name,
	).Scan(ctx, &cols)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", false, fmt.Errorf("postgres: table ddl %s: %w", name, err)
	}
	if len(cols) == 0 {
		return "", false, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", name)
	for i, c := range cols {
		fmt.Fprintf(&b, "  %s %s", c.Name, strings.ToUpper(c.DataType))
		if c.IsNullable == "NO" {
			b.WriteString(" NOT NULL")
		}
		if i < len(cols)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString(")")
	return b.String(), true, nil
}

// Query bypasses bun's placeholder formatting so model-written SQL runs verbatim.
// It runs inside a read-only transaction that is always rolled back.
func (p *Postgres) Query(ctx context.Context, query string) (Result, error) {
	tx, err := p.db.DB.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return Result{}, fmt.Errorf("postgres: begin read-only tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return Result{}, err
	}
	return scanResult(rows)
}

func (p *Postgres) Close() error {
	return p.db.Close()
}
