package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
)

const (
	ToolSearchMarket  = "search_market_info"
	ToolGenerateChart = "generate_chart"
	ToolFormatReport  = "format_report"
)

var chartTypes = map[string]bool{"line": true, "bar": true, "pie": true}

func searchMarketTool() Definition {
	return Definition{
		Name: ToolSearchMarket,
		Desc: "Search for industry trends, competitor information and news.",
		Params: map[string]*schema.ParameterInfo{
			"query": {Type: schema.String, Desc: "Search query", Required: true},
		},
		Run: func(_ context.Context, args map[string]string) (string, error) {
			query := strings.TrimSpace(args["query"])
			return fmt.Sprintf("Market search results for %q (offline index):\n"+
				"- Industry demand remained stable with moderate growth.\n"+
				"- Competitors increased spending on cloud and AI services.\n"+
				"- Analysts highlight regulation and currency moves as the main risks.", query), nil
		},
	}
}

func generateChartTool() Definition {
	return Definition{
		Name: ToolGenerateChart,
		Desc: "Render a chart from a short data summary and return its reference.",
		Params: map[string]*schema.ParameterInfo{
			"data_summary": {Type: schema.String, Desc: "Series to plot, e.g. 2022: 554, 2023: 609", Required: true},
			"chart_type":   {Type: schema.String, Desc: "line, bar or pie"},
		},
		Run: func(_ context.Context, args map[string]string) (string, error) {
			kind := strings.ToLower(strings.TrimSpace(args["chart_type"]))
			if kind == "" {
				kind = "bar"
			}
			if !chartTypes[kind] {
				return "", fmt.Errorf("unsupported chart type %q", kind)
			}
			slug := strings.Map(func(r rune) rune {
				if r == ' ' || r == ':' || r == ',' || r == '/' {
					return '_'
				}
				return r
			}, strings.TrimSpace(args["data_summary"]))
			if r := []rune(slug); len(r) > 40 {
				slug = string(r[:40])
			}
			return fmt.Sprintf("![%s chart](charts/%s_%s.png)", kind, kind, slug), nil
		},
	}
}

func formatReportTool() Definition {
	return Definition{
		Name: ToolFormatReport,
		Desc: "Frame the final report with a title.",
		Params: map[string]*schema.ParameterInfo{
			"content": {Type: schema.String, Desc: "Report body in markdown", Required: true},
			"title":   {Type: schema.String, Desc: "Report title"},
		},
		Run: func(_ context.Context, args map[string]string) (string, error) {
			title := strings.TrimSpace(args["title"])
			if title == "" {
				title = "Financial Analysis Report"
			}
			return fmt.Sprintf("# %s\n\n%s\n", title, strings.TrimSpace(args["content"])), nil
		},
	}
}
