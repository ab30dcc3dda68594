package tool

import (
	"context"

	"github.com/tanpawarit/Financial-Swarm-Analyst/agent/artifact"
	contractx "github.com/tanpawarit/Financial-Swarm-Analyst/agent/contract"
)

const (
	ToolReadText = "read_text"

	maxTextRunes = 6000
)

func readTextTool(store *artifact.Store) Definition {
	return Definition{
		Name:   ToolReadText,
		Desc:   "Read the narrative text extracted from a saved annual report.",
		Params: subjectPeriodParams,
		Run: func(_ context.Context, args map[string]string) (string, error) {
			return ReadText(store, args["subject"], args["period"])
		},
	}
}

// ReadText maps the artifact reader's coded outcomes onto tool errors.
func ReadText(store *artifact.Store, subject, period string) (string, error) {
	text := store.ReadText(subject, period)
	switch text {
	case artifact.FileNotFound:
		return "", contractx.NewToolError(contractx.ToolErrDataNotFound,
			"%s: no saved report for %s %s; ask planner to arrange data collection", artifact.FileNotFound, subject, period)
	case artifact.NoExtractedText:
		return "", contractx.NewToolError(contractx.ToolErrDataNotFound,
			"%s: the saved report for %s %s has no extracted text", artifact.NoExtractedText, subject, period)
	case artifact.ReadError:
		return "", contractx.NewToolError(contractx.ToolErrRead,
			"%s: the saved report for %s %s could not be read", artifact.ReadError, subject, period)
	}

	runes := []rune(text)
	if len(runes) > maxTextRunes {
		return string(runes[:maxTextRunes]) + "\n... (text truncated) ...", nil
	}
	return text, nil
}
