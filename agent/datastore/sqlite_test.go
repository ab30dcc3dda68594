package datastore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	contractx "github.com/tanpawarit/Financial-Swarm-Analyst/agent/contract"
)

func openTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	store, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "data", "financial.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteEmptySchema(t *testing.T) {
	store := openTestSQLite(t)

	tables, err := store.Tables(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tables)

	_, ok, err := store.TableDDL(context.Background(), "income")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteTablesAndQuery(t *testing.T) {
	store := openTestSQLite(t)
	ctx := context.Background()

	_, err := store.DB().ExecContext(ctx, `CREATE TABLE income (year INTEGER, revenue REAL, note TEXT)`)
	require.NoError(t, err)
	_, err = store.DB().ExecContext(ctx, `CREATE TABLE balance (year INTEGER)`)
	require.NoError(t, err)
	_, err = store.DB().ExecContext(ctx, `INSERT INTO income VALUES (2023, 704.2, NULL), (2022, 642.3, 'restated')`)
	require.NoError(t, err)

	tables, err := store.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"balance", "income"}, tables)

	ddl, ok, err := store.TableDDL(ctx, "income")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, ddl, "CREATE TABLE income")

	res, err := store.Query(ctx, "SELECT year, note FROM income ORDER BY year")
	require.NoError(t, err)
	assert.Equal(t, []string{"year", "note"}, res.Columns)
	require.Len(t, res.Rows, 2)
	assert.Nil(t, res.Rows[1][1])
	assert.Equal(t, "restated", res.Rows[0][1])
}

func TestSQLiteQueryCannotWrite(t *testing.T) {
	store := openTestSQLite(t)
	ctx := context.Background()

	_, err := store.DB().ExecContext(ctx, `CREATE TABLE accounts (id INTEGER)`)
	require.NoError(t, err)
	_, err = store.DB().ExecContext(ctx, `INSERT INTO accounts VALUES (1), (2)`)
	require.NoError(t, err)

	for _, q := range []string{
		"DELETE FROM accounts",
		"SELECT 1; DELETE FROM accounts",
		"SELECT 1; DROP TABLE accounts",
	} {
		_, _ = store.Query(ctx, q)
	}

	tables, err := store.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"accounts"}, tables)

	res, err := store.Query(ctx, "SELECT count(*) FROM accounts")
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.EqualValues(t, 2, res.Rows[0][0])

	// The connection leaves query_only mode once Query returns.
	_, err = store.DB().ExecContext(ctx, `INSERT INTO accounts VALUES (3)`)
	require.NoError(t, err)
}

func TestSQLiteQueryWithMock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT name FROM sqlite_master").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("cash_flow"))
	mock.ExpectQuery("SELECT sql FROM sqlite_master").
		WithArgs("cash_flow").
		WillReturnRows(sqlmock.NewRows([]string{"sql"}).AddRow([]byte("CREATE TABLE cash_flow (year INTEGER)")))

	store := NewSQLite(db)
	tables, err := store.Tables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"cash_flow"}, tables)

	ddl, ok, err := store.TableDDL(context.Background(), "cash_flow")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "CREATE TABLE cash_flow (year INTEGER)", ddl)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "oracle"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, contractx.ErrConfig))
}
