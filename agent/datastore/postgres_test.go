package datastore

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

func newMockPostgres(t *testing.T, schema string) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgres(bun.NewDB(db, pgdialect.New()), schema), mock
}

func TestPostgresTables(t *testing.T) {
	store, mock := newMockPostgres(t, "")

	mock.ExpectQuery(regexp.QuoteMeta("FROM information_schema.tables WHERE table_schema = 'public'") + ".*ORDER BY table_name").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).
			AddRow("balance_sheet").
			AddRow("cash_flow").
			AddRow("income"))

	tables, err := store.Tables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"balance_sheet", "cash_flow", "income"}, tables)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTablesError(t *testing.T) {
	store, mock := newMockPostgres(t, "public")

	mock.ExpectQuery("information_schema.tables").WillReturnError(errors.New("connection reset"))

	_, err := store.Tables(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: list tables")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTableDDL(t *testing.T) {
	store, mock := newMockPostgres(t, "finance")

	mock.ExpectQuery(regexp.QuoteMeta("WHERE table_schema = 'finance' AND table_name = 'income'")).
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable"}).
			AddRow("year", "integer", "NO").
			AddRow("revenue", "numeric", "YES").
			AddRow("note", "text", "YES"))

	ddl, ok, err := store.TableDDL(context.Background(), "income")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "CREATE TABLE income (\n  year INTEGER NOT NULL,\n  revenue NUMERIC,\n  note TEXT\n)", ddl)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTableDDLMissingTable(t *testing.T) {
	store, mock := newMockPostgres(t, "public")

	mock.ExpectQuery(regexp.QuoteMeta("table_name = 'ghost'")).
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable"}))

	ddl, ok, err := store.TableDDL(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, ddl)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresQueryRunsInRolledBackTx(t *testing.T) {
	store, mock := newMockPostgres(t, "public")

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT year, note FROM income ORDER BY year")).
		WillReturnRows(sqlmock.NewRows([]string{"year", "note"}).
			AddRow(int64(2022), []byte("restated")).
			AddRow(int64(2023), nil))
	mock.ExpectRollback()

	res, err := store.Query(context.Background(), "SELECT year, note FROM income ORDER BY year")
	require.NoError(t, err)
	assert.Equal(t, []string{"year", "note"}, res.Columns)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "restated", res.Rows[0][1])
	assert.Nil(t, res.Rows[1][1])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresQueryErrorStillRollsBack(t *testing.T) {
	store, mock := newMockPostgres(t, "public")

	mock.ExpectBegin()
	mock.ExpectQuery("DELETE FROM income").
		WillReturnError(errors.New("cannot execute DELETE in a read-only transaction"))
	mock.ExpectRollback()

	_, err := store.Query(context.Background(), "DELETE FROM income")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read-only transaction")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresQueryBeginFailure(t *testing.T) {
	store, mock := newMockPostgres(t, "public")

	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	_, err := store.Query(context.Background(), "SELECT 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: begin read-only tx")
	require.NoError(t, mock.ExpectationsWereMet())
}
