package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/tanpawarit/Financial-Swarm-Analyst/agent/artifact"
	contractx "github.com/tanpawarit/Financial-Swarm-Analyst/agent/contract"
)

const (
	ToolCheckUpload   = "check_upload"
	ToolFetchExternal = "fetch_external"
	ToolPersist       = "persist"
)

var subjectPeriodParams = map[string]*schema.ParameterInfo{
	"subject": {Type: schema.String, Desc: "Company name", Required: true},
	"period":  {Type: schema.String, Desc: "Report year, e.g. 2023", Required: true},
}

func acquisitionTools(store *artifact.Store) []Definition {
	return []Definition{
		{
			Name:   ToolCheckUpload,
			Desc:   "Check whether the user uploaded the annual report PDF for a company and year.",
			Params: subjectPeriodParams,
			Run: func(_ context.Context, args map[string]string) (string, error) {
				st, err := store.CheckUpload(args["subject"], args["period"])
				if err != nil {
					return "", err
				}
				return marshal(st)
			},
		},
		{
			Name:   ToolFetchExternal,
			Desc:   "Fetch the annual report of a company and year from public sources.",
			Params: subjectPeriodParams,
			Run: func(_ context.Context, args map[string]string) (string, error) {
				return marshal(FetchExternal(store, args["subject"], args["period"]))
			},
		},
		{
			Name: ToolPersist,
			Desc: "Save an acquired report record locally so other workers can read it.",
			Params: map[string]*schema.ParameterInfo{
				"record": {Type: schema.String, Desc: "The record returned by fetch_external, as JSON", Required: true},
				"format": {Type: schema.String, Desc: "Storage format; only json is supported"},
			},
			Run: func(_ context.Context, args map[string]string) (string, error) {
				rec, err := DecodeRecord(args["record"])
				if err != nil {
					return "", err
				}
				saved, err := store.Save(rec, args["format"])
				if err != nil {
					return "", contractx.NewToolError(contractx.ToolErrInvalidArgs, "%v", err)
				}
				return persistSummary(saved), nil
			},
		},
	}
}

// FetchExternal simulates a report download. The returned record is
// deterministic for a subject/period pair.
func FetchExternal(store *artifact.Store, subject, period string) artifact.Record {
	subject = strings.TrimSpace(subject)
	period = strings.TrimSpace(period)
	key := artifact.Key(subject, period)
	text := fmt.Sprintf(
		"%s annual report %s. Management discussion: revenue growth was driven by core businesses; "+
			"the company plans continued investment in research and development and notes currency and "+
			"regulatory risks for the coming year.", subject, period)

	return artifact.Record{
		Subject:       subject,
		Period:        period,
		SourceURL:     "https://reports.example.com/" + key + ".pdf",
		ExtractedText: &text,
		Tables: []artifact.Table{
			{Name: "income_statement", Fields: map[string]any{"revenue": 1000.0, "net_profit": 120.0, "gross_margin": 0.42}},
			{Name: "balance_sheet", Fields: map[string]any{"total_assets": 5200.0, "total_equity": 2600.0}},
		},
		KeyMetrics: map[string]any{"roe": 0.046, "eps": 1.25},
		Status:     "fetched",
		LocalPath:  store.Path(subject, period),
	}
}

// DecodeRecord parses the record argument of the persist tool.
func DecodeRecord(raw string) (artifact.Record, error) {
	var rec artifact.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return artifact.Record{}, contractx.NewToolError(contractx.ToolErrInvalidArgs, "record is not valid JSON: %v", err)
	}
	return rec, nil
}

func persistSummary(rec artifact.Record) string {
	metrics := make([]string, 0, len(rec.KeyMetrics))
	for k, v := range rec.KeyMetrics {
		metrics = append(metrics, fmt.Sprintf("%s=%v", k, v))
	}
	sort.Strings(metrics)
	if len(metrics) == 0 {
		metrics = append(metrics, "none")
	}
	return fmt.Sprintf("Saved %s %s to %s (%d tables; key metrics: %s).",
		rec.Subject, rec.Period, rec.LocalPath, len(rec.Tables), strings.Join(metrics, ", "))
}

func marshal(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
