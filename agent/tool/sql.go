package tool

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/tanpawarit/Financial-Swarm-Analyst/agent/datastore"
)

const (
	ToolListTables = "list_tables"
	ToolGetSchema  = "get_schema"
	ToolRunQuery   = "run_read_only_query"
)

const (
	MaxQueryRows = 20

	EmptySchemaMessage = "The database is empty; no tables were found."
	NoRowsMessage      = "The query ran successfully but returned no rows."
	ReadOnlyWarning    = "Safety warning: only SELECT statements are allowed; the statement was not executed."
	SQLErrorPrefix     = "SQL execution error: "
)

func ListTables(ctx context.Context, store datastore.Catalog) (string, error) {
	tables, err := store.Tables(ctx)
	if err != nil {
		return "", err
	}
	if len(tables) == 0 {
		return EmptySchemaMessage, nil
	}
	return "The database contains the following tables: " + strings.Join(tables, ", "), nil
}

func GetSchema(ctx context.Context, store datastore.Catalog, names []string) (string, error) {
	parts := make([]string, 0, len(names))
	for _, name := range names {
		ddl, ok, err := store.TableDDL(ctx, name)
		if err != nil {
			return "", err
		}
		if !ok {
			parts = append(parts, fmt.Sprintf("Error: table '%s' not found", name))
			continue
		}
		parts = append(parts, fmt.Sprintf("--- Table: %s ---\n%s", name, ddl))
	}
	return strings.Join(parts, "\n\n"), nil
}

// RunReadOnlyQuery executes query only when it is a single SELECT statement.
// Execution failures are reported in the returned text, not as an error.
func RunReadOnlyQuery(ctx context.Context, store datastore.Catalog, query string) string {
	trimmed, ok := singleStatement(query)
	if !ok || !strings.HasPrefix(strings.ToLower(trimmed), "select") {
		return ReadOnlyWarning
	}

	res, err := store.Query(ctx, trimmed)
	if err != nil {
		return SQLErrorPrefix + err.Error()
	}
	if len(res.Rows) == 0 {
		tables, err := store.Tables(ctx)
		if err == nil && len(tables) == 0 {
			return EmptySchemaMessage
		}
		return NoRowsMessage
	}
	return RenderTable(res, MaxQueryRows)
}

// singleStatement returns query without its trailing semicolons and reports
// false when another statement follows a semicolon. Semicolons inside quotes
// and comments do not split statements.
func singleStatement(query string) (string, bool) {
	var quote rune
	runes := []rune(query)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"' || r == '`':
			quote = r
		case r == '-' && i+1 < len(runes) && runes[i+1] == '-':
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
		case r == '/' && i+1 < len(runes) && runes[i+1] == '*':
			end := strings.Index(string(runes[i+2:]), "*/")
			if end < 0 {
				return "", false
			}
			i += 2 + len([]rune(string(runes[i+2:])[:end])) + 1
		case r == ';':
			rest := strings.TrimLeft(string(runes[i:]), "; \t\r\n")
			return strings.TrimSpace(string(runes[:i])), rest == ""
		}
	}
	if quote != 0 {
		return "", false
	}
	return strings.TrimSpace(query), true
}

// RenderTable renders res as a pipe table with at most maxRows data rows.
func RenderTable(res datastore.Result, maxRows int) string {
	var b strings.Builder
	writeRow(&b, res.Columns)

	sep := make([]string, len(res.Columns))
	for i := range sep {
		sep[i] = "---"
	}
	writeRow(&b, sep)

	for i, row := range res.Rows {
		if maxRows > 0 && i >= maxRows {
			fmt.Fprintf(&b, "\n... (%d more rows omitted; add LIMIT to narrow the query) ...", len(res.Rows)-maxRows)
			break
		}
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = formatValue(v)
		}
		writeRow(&b, cells)
	}
	return b.String()
}

func writeRow(b *strings.Builder, cells []string) {
	b.WriteString("| ")
	b.WriteString(strings.Join(cells, " | "))
	b.WriteString(" |\n")
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(t)
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}

func splitNames(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func listTablesTool(store datastore.Catalog) Definition {
	return Definition{
		Name: ToolListTables,
		Desc: "List every table in the financial database.",
		Run: func(ctx context.Context, _ map[string]string) (string, error) {
			return ListTables(ctx, store)
		},
	}
}

func getSchemaTool(store datastore.Catalog) Definition {
	return Definition{
		Name: ToolGetSchema,
		Desc: "Return the CREATE TABLE statement of one or more tables.",
		Params: map[string]*schema.ParameterInfo{
			"table_names": {Type: schema.String, Desc: "Comma separated table names", Required: true},
		},
		Run: func(ctx context.Context, args map[string]string) (string, error) {
			return GetSchema(ctx, store, splitNames(args["table_names"]))
		},
	}
}

func runQueryTool(store datastore.Catalog) Definition {
	return Definition{
		Name: ToolRunQuery,
		Desc: "Run a read-only SELECT statement and return at most 20 rows as a table.",
		Params: map[string]*schema.ParameterInfo{
			"query": {Type: schema.String, Desc: "A single SELECT statement", Required: true},
		},
		Run: func(ctx context.Context, args map[string]string) (string, error) {
			return RunReadOnlyQuery(ctx, store, args["query"]), nil
		},
	}
}
