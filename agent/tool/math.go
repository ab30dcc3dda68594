package tool

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/Financial-Swarm-Analyst/agent/contract"
)

const ToolMathEvaluate = "math_evaluate"

// Digits, whitespace, decimal points, thousands separators, operators, percent and parentheses.
var mathExpressionPattern = regexp.MustCompile(`^[\d\s\+\-\*/\^\(\)\.,%]+$`)

var percentPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)

type MathEvaluateOutput struct {
	Expression string  `json:"expression"`
	Result     float64 `json:"result"`
}

func mathTool() Definition {
	return Definition{
		Name: ToolMathEvaluate,
		Desc: "Evaluate an arithmetic expression, e.g. (609 - 554) / 554 * 100. " +
			"A trailing % divides a number by 100 and commas inside numbers are ignored.",
		Params: map[string]*schema.ParameterInfo{
			"expression": {Type: schema.String, Desc: "Expression to evaluate", Required: true},
		},
		Run: func(_ context.Context, args map[string]string) (string, error) {
			expression := strings.TrimSpace(args["expression"])
			result, err := Evaluate(expression)
			if err != nil {
				return "", contractx.NewToolError(contractx.ToolErrInvalidArgs, "%v", err)
			}
			return marshal(MathEvaluateOutput{Expression: expression, Result: result})
		},
	}
}

// Evaluate computes expression with govaluate after rewriting the notation
// analysts use: commas in numbers are dropped, n% becomes (n / 100) and ^
// becomes the ** power operator.
func Evaluate(expression string) (float64, error) {
	if err := validateMathExpression(expression); err != nil {
		return 0, err
	}

	rewritten := strings.ReplaceAll(expression, ",", "")
	rewritten = percentPattern.ReplaceAllString(rewritten, "($1 / 100)")
	if strings.Contains(rewritten, "%") {
		return 0, fmt.Errorf("percent sign must follow a number")
	}
	rewritten = strings.ReplaceAll(rewritten, "^", "**")

	exp, err := govaluate.NewEvaluableExpression(rewritten)
	if err != nil {
		return 0, fmt.Errorf("parse expression: %w", err)
	}
	raw, err := exp.Evaluate(nil)
	if err != nil {
		return 0, fmt.Errorf("evaluate expression: %w", err)
	}
	value, ok := raw.(float64)
	if !ok {
		return 0, fmt.Errorf("result %v is not a number", raw)
	}
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, fmt.Errorf("result is not a finite number")
	}
	return value, nil
}

func validateMathExpression(expression string) error {
	if expression == "" {
		return fmt.Errorf("expression is empty")
	}
	if !mathExpressionPattern.MatchString(expression) {
		return fmt.Errorf("expression contains invalid characters")
	}

	depth := 0
	for _, ch := range expression {
		switch ch {
		case '(':
			depth++
		case ')':
			if depth--; depth < 0 {
				return fmt.Errorf("expression has unbalanced parentheses")
			}
		}
	}
	if depth != 0 {
		return fmt.Errorf("expression has unbalanced parentheses")
	}
	return nil
}
