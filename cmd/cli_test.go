package cmd

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	contractx "github.com/tanpawarit/Financial-Swarm-Analyst/agent/contract"
)

func TestTablesListsConfiguredStore(t *testing.T) {
	dsn := setupEnv(t)
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE income (period TEXT, revenue REAL)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	stdout, _, err := executeCLI(t, "tables")
	require.NoError(t, err)
	assert.Contains(t, stdout, "The database contains the following tables: income")
}

func TestTablesEmptyStore(t *testing.T) {
	setupEnv(t)

	stdout, _, err := executeCLI(t, "tables")
	require.NoError(t, err)
	assert.Contains(t, stdout, "The database is empty; no tables were found.")
}

func TestCheckOfflinePrintsRoster(t *testing.T) {
	setupEnv(t)

	stdout, _, err := executeCLI(t, "check", "--offline")
	require.NoError(t, err)
	assert.Contains(t, stdout, "entry worker: planner")
	assert.Contains(t, stdout, "data_collector handoffs=[planner] tools=[check_upload, fetch_external, persist]")
}

func TestCheckRejectsUnknownDriver(t *testing.T) {
	setupEnv(t)
	t.Setenv("DB_DRIVER", "oracle")

	_, _, err := executeCLI(t, "check", "--offline")
	require.Error(t, err)
	assert.ErrorIs(t, err, contractx.ErrConfig)
}

func TestCheckRejectsBrokenRegistry(t *testing.T) {
	setupEnv(t)
	path := filepath.Join(t.TempDir(), "workers.yaml")
	require.NoError(t, writeFile(path, "entry: ghost\nworkers:\n  - id: planner\n    instructions: plan\n"))
	t.Setenv("SWARM_REGISTRY_FILE", path)

	_, _, err := executeCLI(t, "check", "--offline")
	require.Error(t, err)
	assert.ErrorIs(t, err, contractx.ErrConfig)
}

func TestFormatMessage(t *testing.T) {
	t.Parallel()

	cases := []struct {
		msg  contractx.Message
		want string
	}{
		{
			msg:  contractx.Message{Speaker: "planner", Kind: contractx.KindText, Content: "hello"},
			want: "[planner]: hello",
		},
		{
			msg: contractx.Message{Speaker: "data_agent", Kind: contractx.KindToolRequest, Tool: "get_schema",
				Args: map[string]string{"table_names": "income", "a": "b"}},
			want: `[data_agent] -> get_schema(a="b", table_names="income")`,
		},
		{
			msg: contractx.Message{Speaker: "data_agent", Kind: contractx.KindToolResult, Tool: "read_text",
				Content: "FILE_NOT_FOUND", ErrorKind: contractx.ToolErrDataNotFound},
			want: "[data_agent] <- read_text failed (data_not_found): FILE_NOT_FOUND",
		},
		{
			msg:  contractx.Message{Speaker: "planner", Kind: contractx.KindHandoff, Target: "writer"},
			want: "[planner] => writer",
		},
		{
			msg:  contractx.Message{Speaker: "router", Kind: contractx.KindProtocolViolation, Content: "nope"},
			want: "[router] !! nope",
		},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, formatMessage(tc.msg))
	}
}

func TestTranscriptPrinterSkipsUserPrompt(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	observe := transcriptPrinter(&buf)
	observe("s", contractx.Message{Speaker: contractx.SpeakerUser, Kind: contractx.KindText, Content: "composite prompt"})
	observe("s", contractx.Message{Speaker: "planner", Kind: contractx.KindText, Content: "on it"})
	assert.Equal(t, "[planner]: on it\n", buf.String())
}

// setupEnv points every store at a temp dir and returns the sqlite path.
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dsn := filepath.Join(dir, "financial.db")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", dsn)
	t.Setenv("ARTIFACT_DATA_DIR", filepath.Join(dir, "local_data"))
	t.Setenv("ARTIFACT_UPLOAD_DIR", filepath.Join(dir, "user_uploads"))
	t.Setenv("SWARM_REGISTRY_FILE", "")
	t.Setenv("METRICS_ADDR", "")
	return dsn
}

func executeCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}
