package orchestratornode

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Financial-Swarm-Analyst/agent/contract"
)

type Need string

const (
	NeedFinancial Need = "financial"
	NeedTextual   Need = "textual"
	NeedBoth      Need = "both"
	NeedUnknown   Need = "unknown"
)

var (
	financialKeywords = []string{
		"收入", "利润", "财务", "业绩", "毛利率", "roe", "eps", "增长", "营收", "盈利", "指标",
		"revenue", "profit", "financial", "earnings", "margin", "growth", "income", "metric",
	}
	textualKeywords = []string{
		"管理层", "观点", "战略", "风险", "展望", "讨论", "分析", "评述", "说明", "报告", "内容",
		"management", "opinion", "strategy", "risk", "outlook", "discussion", "analysis",
		"commentary", "explain", "report", "content",
	}
)

// ClassifyNeed is a keyword hint for the entry worker; it never drives routing.
func ClassifyNeed(text string) Need {
	lower := strings.ToLower(text)
	financial := containsAny(lower, financialKeywords)
	textual := containsAny(lower, textualKeywords)

	switch {
	case financial && textual:
		return NeedBoth
	case financial:
		return NeedFinancial
	case textual:
		return NeedTextual
	default:
		return NeedUnknown
	}
}

func (n Need) Hint() string {
	switch n {
	case NeedBoth:
		return "[Need analysis] The user needs both financial data and text analysis."
	case NeedFinancial:
		return "[Need analysis] The user mainly needs financial data."
	case NeedTextual:
		return "[Need analysis] The user mainly needs text analysis (management views, strategy, risks)."
	default:
		return "[Need analysis] The need type is unclear; decide from context."
	}
}

func BuildPrompt(in *GraphState, memory contractx.MemoryStore, acquisitions *AcquisitionLog) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	in.Need = ClassifyNeed(in.Text)

	sections := []string{memory.Project(), acquisitions.Render(), in.Need.Hint(), "[Current user request] " + in.Text}
	in.Prompt = strings.Join(sections, "\n\n")
	return in, nil
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
